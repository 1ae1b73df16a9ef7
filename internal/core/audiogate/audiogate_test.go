package audiogate

import (
	"bytes"
	"errors"
	"testing"
)

// wav returns a RIFF-tagged payload of n bytes
func wav(n int) []byte {
	b := make([]byte, n)
	copy(b, []byte("RIFF"))
	return b
}

// mp3 returns an MPEG frame-synced payload of n bytes
func mp3(n int, second byte) []byte {
	b := make([]byte, n)
	b[0] = 0xFF
	b[1] = second
	return b
}

func TestGate_RuleOrder(t *testing.T) {
	g := New(Config{MinBytes: 1000, MaxBytes: 10 << 20})

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"nil payload", nil, ErrEmpty},
		{"empty payload", []byte{}, ErrEmpty},
		{"below minimum", wav(500), ErrTooShort},
		{"above maximum", wav(10<<20 + 1), ErrTooLarge},
		{"unknown container", bytes.Repeat([]byte{0x00}, 2048), ErrUnknownFormat},
		{"wav ok", wav(2048), nil},
		{"mp3 fb ok", mp3(2048, 0xFB), nil},
		{"mp3 f3 ok", mp3(2048, 0xF3), nil},
		{"mp3 f2 ok", mp3(2048, 0xF2), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Validate(tc.data)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGate_EmptyWinsOverShort(t *testing.T) {
	g := New(Config{})
	if err := g.Validate([]byte{}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty should be reported before size: %v", err)
	}
}

func TestGate_Defaults(t *testing.T) {
	g := New(Config{})
	if err := g.Validate(wav(DefaultMinBytes - 1)); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected default minimum to apply: %v", err)
	}
	if err := g.Validate(wav(DefaultMinBytes)); err != nil {
		t.Fatalf("payload at the minimum should pass: %v", err)
	}
}

func TestGate_BadMpegSync(t *testing.T) {
	g := New(Config{})
	b := mp3(2048, 0xFA) // not a recognized sync pattern
	if err := g.Validate(b); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected unknown format, got %v", err)
	}
}
