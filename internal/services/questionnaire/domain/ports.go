package domain

import (
	"context"

	"voiceform/internal/core/catalog"
)

// StorePort persists sessions with a rolling TTL.
// Put refreshes the TTL; Get of an expired or unknown id fails with a
// not-found error
type StorePort interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Extend(ctx context.Context, sessionID string) error
}

// TranscriberPort turns recorded audio into text
type TranscriberPort interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// SynthesizerPort turns text into playable audio
type SynthesizerPort interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ClassifierPort maps a transcript onto one of the question's valid categories
type ClassifierPort interface {
	Classify(ctx context.Context, q catalog.Question, transcript string) (ClassificationResult, error)
}

// OrchestratorPort is the questionnaire's boundary surface
type OrchestratorPort interface {
	Start(ctx context.Context) (*Session, error)
	CurrentQuestion(ctx context.Context, sessionID string) (Progress, error)
	QuestionAudio(ctx context.Context, sessionID string) ([]byte, error)
	RetryAudio(ctx context.Context, message string) ([]byte, error)
	ProcessResponse(ctx context.Context, sessionID string, audio []byte) (ProcessingResult, error)
	Responses(ctx context.Context, sessionID string) (map[int]UserResponse, error)
	Delete(ctx context.Context, sessionID string) error
}

// CapabilityEvent records one call to an external capability
type CapabilityEvent struct {
	SessionID  string
	Capability string // "stt", "tts" or "classify"
	OK         bool
	ElapsedMS  int64
	QuestionID int
	Confidence float64
	Matched    bool
}

// EventSinkPort receives capability telemetry; implementations must never
// fail the request path
type EventSinkPort interface {
	Record(ctx context.Context, ev CapabilityEvent)
}
