package module

import (
	"net/http"
	"time"

	modkit "voiceform/internal/modkit"
	"voiceform/internal/modkit/httpkit"
	"voiceform/internal/platform/config"
)

// Option is a configuration option for the questionnaire module
type Option = modkit.Option

// WithPrefix sets the route prefix for the module
func WithPrefix(prefix string) Option { return modkit.WithPrefix(prefix) }

// WithMiddlewares sets the middlewares for the module
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return modkit.WithMiddlewares(mw...)
}

// WithPorts sets the ports for the module
func WithPorts(p any) Option { return modkit.WithPorts(p) }

// WithRegister sets the register function for the module
func WithRegister(fn func(httpkit.Router)) Option { return modkit.WithRegister(fn) }

// Options configures the questionnaire module
type Options struct {
	ConfidenceThreshold float64
	MaxRetries          int
	TranscribeTimeout   time.Duration
	SessionTTL          time.Duration
	AudioMinBytes       int
	AudioMaxBytes       int
	MemoryStore         bool
	MemoryCapacity      int
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	qf := cfg.Prefix("CORE_QST_")
	return Options{
		ConfidenceThreshold: qf.MayFloat64("CONFIDENCE_THRESHOLD", 0.6),
		// <= 0 disables the cap; retries are unlimited by default
		MaxRetries:        qf.MayInt("MAX_RETRIES", 0),
		TranscribeTimeout: qf.MayDuration("TRANSCRIBE_TIMEOUT", 60*time.Second),
		SessionTTL:        qf.MayDuration("SESSION_TTL", 30*time.Minute),
		// zero keeps the gate defaults (1000 B / 10 MiB)
		AudioMinBytes: qf.MayInt("AUDIO_MIN_BYTES", 0),
		AudioMaxBytes: qf.MayInt("AUDIO_MAX_BYTES", 0),
		MemoryStore:       qf.MayBool("MEMORY_STORE", false),
		MemoryCapacity:    qf.MayInt("MEMORY_CAPACITY", 0),
	}
}
