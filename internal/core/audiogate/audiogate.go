// Package audiogate validates raw audio payloads before any downstream
// processing. It is a pure function of the bytes and the configured bounds
package audiogate

import (
	"errors"
	"fmt"
)

const (
	// DefaultMinBytes rejects payloads too small to hold usable speech
	DefaultMinBytes = 1000

	// DefaultMaxBytes caps payload size at 10 MiB
	DefaultMaxBytes = 10 << 20
)

// Sentinel reasons; callers branch with errors.Is
var (
	ErrEmpty         = errors.New("audio payload is empty")
	ErrTooShort      = errors.New("audio payload below minimum size")
	ErrTooLarge      = errors.New("audio payload above maximum size")
	ErrUnknownFormat = errors.New("unsupported audio container")
)

// wavTag is the RIFF chunk id that opens a WAV container
var wavTag = [4]byte{'R', 'I', 'F', 'F'}

// mpegSyncs are the recognized frame-sync byte pairs for MPEG audio streams
var mpegSyncs = [][2]byte{
	{0xFF, 0xFB},
	{0xFF, 0xF3},
	{0xFF, 0xF2},
}

// Config bounds the accepted payload size. Zero values take the defaults
type Config struct {
	MinBytes int
	MaxBytes int
}

// Gate validates audio payloads against a fixed config
type Gate struct {
	min int
	max int
}

// New builds a Gate, filling zero bounds with defaults
func New(cfg Config) *Gate {
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = DefaultMinBytes
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Gate{min: cfg.MinBytes, max: cfg.MaxBytes}
}

// Validate checks data in order: empty, min size, max size, container sniff.
// The first failing rule wins. No side effects
func (g *Gate) Validate(data []byte) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	if len(data) < g.min {
		return fmt.Errorf("%w: %d bytes (minimum %d)", ErrTooShort, len(data), g.min)
	}
	if len(data) > g.max {
		return fmt.Errorf("%w: %d bytes (maximum %d)", ErrTooLarge, len(data), g.max)
	}
	if !sniff(data) {
		return fmt.Errorf("%w: want WAV or MP3", ErrUnknownFormat)
	}
	return nil
}

// sniff reports whether data opens with a known audio container signature
func sniff(data []byte) bool {
	if len(data) >= len(wavTag) {
		ok := true
		for i := range wavTag {
			if data[i] != wavTag[i] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	if len(data) >= 2 {
		for _, s := range mpegSyncs {
			if data[0] == s[0] && data[1] == s[1] {
				return true
			}
		}
	}
	return false
}
