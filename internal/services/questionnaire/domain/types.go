// Package domain defines core types and interfaces for the questionnaire
package domain

import (
	"fmt"
	"strings"
	"time"

	"voiceform/internal/core/catalog"
)

// SessionStatus is the lifecycle state of a questionnaire session
type SessionStatus string

const (
	// StatusActive means the session is accepting responses
	StatusActive SessionStatus = "active"

	// StatusCompleted means every question has been answered
	StatusCompleted SessionStatus = "completed"

	// StatusExpired means the store TTL lapsed; set externally, never by the orchestrator
	StatusExpired SessionStatus = "expired"
)

// UserResponse is one accepted answer to a question
type UserResponse struct {
	QuestionID         int       `json:"question_id"`
	Transcript         string    `json:"transcript"`
	ClassifiedCategory string    `json:"classified_category"`
	Confidence         float64   `json:"confidence"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// Session is one user's run through the questionnaire.
// Mutated only by the orchestrator; persisted whole after every change
type Session struct {
	SessionID            string               `json:"session_id"`
	CurrentQuestionIndex int                  `json:"current_question_index"`
	RetryCount           int                  `json:"retry_count"`
	Responses            map[int]UserResponse `json:"responses"`
	TranscriptHistory    []string             `json:"transcript_history"`
	CreatedAt            time.Time            `json:"created_at"`
	LastModifiedAt       time.Time            `json:"last_modified_at"`
	Status               SessionStatus        `json:"status"`
	MaxRetriesExceeded   bool                 `json:"max_retries_exceeded"`

	// Version is the store's compare-and-swap token; bumped on every Put
	Version int64 `json:"version"`
}

// NewSession returns a fresh active session at question zero
func NewSession(sessionID string) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID:         sessionID,
		Responses:         map[int]UserResponse{},
		TranscriptHistory: []string{},
		CreatedAt:         now,
		LastModifiedAt:    now,
		Status:            StatusActive,
	}
}

// Active reports whether the session still accepts responses
func (s *Session) Active() bool { return s.Status == StatusActive }

// Completed reports whether the questionnaire finished
func (s *Session) Completed() bool { return s.Status == StatusCompleted }

// RecordResponse stores an accepted answer, appends the transcript log line,
// advances the question index and resets the retry counter.
// No-op when the session is no longer active
func (s *Session) RecordResponse(r UserResponse) {
	if !s.Active() {
		return
	}
	s.Responses[r.QuestionID] = r
	s.TranscriptHistory = append(s.TranscriptHistory,
		transcriptLine(r.QuestionID, r.Transcript, r.ClassifiedCategory))
	s.CurrentQuestionIndex++
	s.RetryCount = 0
	s.touch()
}

// IncrementRetry bumps the retry counter without moving the question index.
// No-op when the session is no longer active
func (s *Session) IncrementRetry() {
	if !s.Active() {
		return
	}
	s.RetryCount++
	s.touch()
}

// MarkMaxRetriesExceeded flags the session once the configured retry cap is hit
func (s *Session) MarkMaxRetriesExceeded() {
	if !s.Active() {
		return
	}
	s.MaxRetriesExceeded = true
	s.touch()
}

// Complete transitions the session to completed
func (s *Session) Complete() {
	if s.Status == StatusCompleted {
		return
	}
	s.Status = StatusCompleted
	s.touch()
}

// Expire transitions the session to expired
func (s *Session) Expire() {
	s.Status = StatusExpired
	s.touch()
}

func (s *Session) touch() { s.LastModifiedAt = time.Now().UTC() }

func transcriptLine(questionID int, transcript, category string) string {
	return fmt.Sprintf("Q%d: %s -> %s", questionID, transcript, category)
}

// ClassificationResult is the classifier's verdict for one (question, transcript) pair.
// Not persisted; only the derived UserResponse survives the call
type ClassificationResult struct {
	Matched      bool    `json:"matched"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	RetryMessage string  `json:"retryMessage,omitempty"`
}

// Valid is the sole gate for advancing: matched, non-blank category, and
// confidence at or above the threshold (inclusive at the threshold)
func (r ClassificationResult) Valid(threshold float64) bool {
	return r.Matched && strings.TrimSpace(r.Category) != "" && r.Confidence >= threshold
}

// Clamp forces confidence into [0,1]
func (r *ClassificationResult) Clamp() {
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
}

// ProcessingStatus tags the outcome of one response submission
type ProcessingStatus string

const (
	// StatusSuccess means the answer was accepted and the session advanced
	StatusSuccess ProcessingStatus = "success"

	// StatusRetry means the answer was not accepted; same question again
	StatusRetry ProcessingStatus = "retry"

	// StatusDone means the questionnaire is complete
	StatusDone ProcessingStatus = "completed"

	// StatusMaxRetries means the configured retry cap was exceeded
	StatusMaxRetries ProcessingStatus = "max_retries_exceeded"
)

// ProcessingResult is the tagged outcome returned to the boundary layer
type ProcessingResult struct {
	Status         ProcessingStatus
	Session        *Session
	Classification *ClassificationResult
	Transcript     string
	NextQuestion   *catalog.Question
	Message        string
	RetryMessage   string
}

// SuccessResult builds the advanced-to-next-question outcome
func SuccessResult(s *Session, c ClassificationResult, transcript string, next catalog.Question) ProcessingResult {
	return ProcessingResult{
		Status:         StatusSuccess,
		Session:        s,
		Classification: &c,
		Transcript:     transcript,
		NextQuestion:   &next,
		Message:        "Response recorded successfully",
	}
}

// RetryResult builds the ask-again outcome
func RetryResult(s *Session, q catalog.Question, transcript, retryMessage string) ProcessingResult {
	return ProcessingResult{
		Status:       StatusRetry,
		Session:      s,
		Transcript:   transcript,
		NextQuestion: &q,
		Message:      "Please try answering again",
		RetryMessage: retryMessage,
	}
}

// CompletedResult builds the questionnaire-finished outcome.
// classification is nil when completion is observed without a final answer
func CompletedResult(s *Session, c *ClassificationResult, transcript string) ProcessingResult {
	return ProcessingResult{
		Status:         StatusDone,
		Session:        s,
		Classification: c,
		Transcript:     transcript,
		Message:        "Questionnaire completed successfully",
	}
}

// MaxRetriesResult builds the terminal retry-cap outcome
func MaxRetriesResult(s *Session, q catalog.Question, transcript string) ProcessingResult {
	return ProcessingResult{
		Status:       StatusMaxRetries,
		Session:      s,
		Transcript:   transcript,
		NextQuestion: &q,
		Message:      "Maximum retry attempts exceeded",
	}
}
