// Package service provides the questionnaire orchestrator
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"voiceform/internal/core/audiogate"
	"voiceform/internal/core/catalog"
	perr "voiceform/internal/platform/errors"
	"voiceform/internal/platform/logger"
	dom "voiceform/internal/services/questionnaire/domain"
)

// FallbackRetryMessage is spoken when the classifier gives no guidance
const FallbackRetryMessage = "I didn't quite catch that. Let me repeat the question."

// CompletionMessage is spoken once every question has been answered
const CompletionMessage = "Thank you for completing the questionnaire. Your responses have been recorded."

// Config for the questionnaire orchestrator
type Config struct {
	// ConfidenceThreshold is the minimum classifier confidence required to
	// accept an answer; the threshold itself is accepted (>=)
	ConfidenceThreshold float64

	// MaxRetries caps attempts per question; <= 0 means unlimited
	MaxRetries int

	// TranscribeTimeout bounds a single speech-to-text call
	TranscribeTimeout time.Duration

	// SessionTTL is reported to clients on session start; the store owns
	// the actual expiry
	SessionTTL time.Duration

	// AudioMinBytes and AudioMaxBytes bound accepted audio payloads;
	// zero values take the gate defaults
	AudioMinBytes int
	AudioMaxBytes int
}

func (c *Config) defaults() {
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = 0.6
	}
	if c.TranscribeTimeout <= 0 {
		c.TranscribeTimeout = 60 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
}

// Service drives sessions through the questionnaire.
// Implements domain.OrchestratorPort
type Service struct {
	store      dom.StorePort
	stt        dom.TranscriberPort
	tts        dom.SynthesizerPort
	classifier dom.ClassifierPort
	events     dom.EventSinkPort
	gate       *audiogate.Gate
	catalog    *catalog.Catalog
	cfg        Config
	log        *logger.Logger
}

var _ dom.OrchestratorPort = (*Service)(nil)

// New constructs the orchestrator. All ports are required except events,
// which falls back to a no-op sink when nil
func New(
	store dom.StorePort,
	stt dom.TranscriberPort,
	tts dom.SynthesizerPort,
	classifier dom.ClassifierPort,
	events dom.EventSinkPort,
	cat *catalog.Catalog,
	cfg Config,
) *Service {
	cfg.defaults()
	if store == nil || stt == nil || tts == nil || classifier == nil || cat == nil {
		panic("questionnaire service requires store, stt, tts, classifier and catalog")
	}
	if events == nil {
		events = noopSink{}
	}
	return &Service{
		store:      store,
		stt:        stt,
		tts:        tts,
		classifier: classifier,
		events:     events,
		gate:       audiogate.New(audiogate.Config{MinBytes: cfg.AudioMinBytes, MaxBytes: cfg.AudioMaxBytes}),
		catalog:    cat,
		cfg:        cfg,
		log:        logger.Named("questionnaire"),
	}
}

type noopSink struct{}

func (noopSink) Record(context.Context, dom.CapabilityEvent) {}

// TTL returns the configured session lifetime
func (s *Service) TTL() time.Duration { return s.cfg.SessionTTL }

// Start implements domain.OrchestratorPort
func (s *Service) Start(ctx context.Context) (*dom.Session, error) {
	sess := dom.NewSession(uuid.NewString())
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info().Str("session_id", sess.SessionID).Msg("session started")
	return sess, nil
}

// CurrentQuestion implements domain.OrchestratorPort.
// The first call past the last question transitions the session to
// completed and persists once; later calls observe the completed state
// without writing
func (s *Service) CurrentQuestion(ctx context.Context, sessionID string) (dom.Progress, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return dom.Progress{}, err
	}

	if sess.CurrentQuestionIndex >= s.catalog.Len() {
		if sess.Active() {
			sess.Complete()
			if err := s.store.Put(ctx, sess); err != nil {
				return dom.Progress{}, err
			}
		}
		return dom.Progress{Completed: true, TotalQuestions: s.catalog.Len()}, nil
	}

	q, _ := s.catalog.At(sess.CurrentQuestionIndex)
	return dom.Progress{
		Question:       &q,
		QuestionNumber: sess.CurrentQuestionIndex + 1,
		TotalQuestions: s.catalog.Len(),
	}, nil
}

// QuestionAudio implements domain.OrchestratorPort. Synthesis failures are
// hard failures here, unlike the degraded path inside response processing
func (s *Service) QuestionAudio(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	text := CompletionMessage
	if q, ok := s.catalog.At(sess.CurrentQuestionIndex); ok {
		text = q.Text
	}
	return s.synthesize(ctx, sess.SessionID, text)
}

// RetryAudio implements domain.OrchestratorPort; message falls back to the
// stock retry prompt when blank
func (s *Service) RetryAudio(ctx context.Context, message string) ([]byte, error) {
	if message == "" {
		message = FallbackRetryMessage
	}
	return s.synthesize(ctx, "", message)
}

func (s *Service) synthesize(ctx context.Context, sessionID, text string) ([]byte, error) {
	started := time.Now()
	audio, err := s.tts.Synthesize(ctx, text)
	s.events.Record(ctx, dom.CapabilityEvent{
		SessionID:  sessionID,
		Capability: "tts",
		OK:         err == nil,
		ElapsedMS:  time.Since(started).Milliseconds(),
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "speech synthesis failed")
	}
	return audio, nil
}

// ProcessResponse implements domain.OrchestratorPort. This is the response
// state machine: gate the audio, transcribe, classify, then advance or retry.
// External capability failures degrade into a retry outcome so a flaky
// dependency never aborts the questionnaire
func (s *Service) ProcessResponse(ctx context.Context, sessionID string, audio []byte) (dom.ProcessingResult, error) {
	if err := s.gate.Validate(audio); err != nil {
		return dom.ProcessingResult{}, perr.Wrap(err, perr.ErrorCodeInvalidAudio, "audio rejected")
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return dom.ProcessingResult{}, err
	}

	if !sess.Active() || sess.CurrentQuestionIndex >= s.catalog.Len() {
		if sess.Active() {
			sess.Complete()
			if err := s.store.Put(ctx, sess); err != nil {
				return dom.ProcessingResult{}, err
			}
		}
		return dom.CompletedResult(sess, nil, ""), nil
	}
	q, _ := s.catalog.At(sess.CurrentQuestionIndex)

	transcript, err := s.transcribe(ctx, sess.SessionID, q.ID, audio)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.SessionID).Msg("transcription failed, degrading to retry")
		return s.retry(ctx, sess, q, "", "")
	}
	if strings.TrimSpace(transcript) == "" {
		return s.retry(ctx, sess, q, "", "")
	}

	result, err := s.classify(ctx, sess.SessionID, q, transcript)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.SessionID).Msg("classification failed, degrading to retry")
		return s.retry(ctx, sess, q, transcript, "")
	}
	result.Clamp()

	if !result.Valid(s.cfg.ConfidenceThreshold) {
		return s.retry(ctx, sess, q, transcript, result.RetryMessage)
	}

	sess.RecordResponse(dom.UserResponse{
		QuestionID:         q.ID,
		Transcript:         transcript,
		ClassifiedCategory: result.Category,
		Confidence:         result.Confidence,
		RecordedAt:         time.Now().UTC(),
	})

	if sess.CurrentQuestionIndex >= s.catalog.Len() {
		sess.Complete()
		if err := s.store.Put(ctx, sess); err != nil {
			return dom.ProcessingResult{}, err
		}
		return dom.CompletedResult(sess, &result, transcript), nil
	}

	if err := s.store.Put(ctx, sess); err != nil {
		return dom.ProcessingResult{}, err
	}
	next, _ := s.catalog.At(sess.CurrentQuestionIndex)
	return dom.SuccessResult(sess, result, transcript, next), nil
}

// retry is the shared degraded path: bump the retry counter, persist, and
// either re-ask the question or, with a configured cap, escalate once the
// counter passes it
func (s *Service) retry(
	ctx context.Context,
	sess *dom.Session,
	q catalog.Question,
	transcript string,
	retryMessage string,
) (dom.ProcessingResult, error) {
	sess.IncrementRetry()

	if s.cfg.MaxRetries > 0 && sess.RetryCount > s.cfg.MaxRetries {
		sess.MarkMaxRetriesExceeded()
		if err := s.store.Put(ctx, sess); err != nil {
			return dom.ProcessingResult{}, err
		}
		return dom.MaxRetriesResult(sess, q, transcript), nil
	}

	if err := s.store.Put(ctx, sess); err != nil {
		return dom.ProcessingResult{}, err
	}
	if retryMessage == "" {
		retryMessage = FallbackRetryMessage
	}
	return dom.RetryResult(sess, q, transcript, retryMessage), nil
}

func (s *Service) transcribe(ctx context.Context, sessionID string, questionID int, audio []byte) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, s.cfg.TranscribeTimeout)
	defer cancel()

	started := time.Now()
	transcript, err := s.stt.Transcribe(tctx, audio)
	s.events.Record(ctx, dom.CapabilityEvent{
		SessionID:  sessionID,
		Capability: "stt",
		OK:         err == nil,
		ElapsedMS:  time.Since(started).Milliseconds(),
		QuestionID: questionID,
	})
	return transcript, err
}

func (s *Service) classify(
	ctx context.Context,
	sessionID string,
	q catalog.Question,
	transcript string,
) (dom.ClassificationResult, error) {
	started := time.Now()
	result, err := s.classifier.Classify(ctx, q, transcript)
	s.events.Record(ctx, dom.CapabilityEvent{
		SessionID:  sessionID,
		Capability: "classify",
		OK:         err == nil,
		ElapsedMS:  time.Since(started).Milliseconds(),
		QuestionID: q.ID,
		Confidence: result.Confidence,
		Matched:    result.Matched,
	})
	return result, err
}

// Responses implements domain.OrchestratorPort
func (s *Service) Responses(ctx context.Context, sessionID string) (map[int]dom.UserResponse, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make(map[int]dom.UserResponse, len(sess.Responses))
	for id, r := range sess.Responses {
		out[id] = r
	}
	return out, nil
}

// Delete implements domain.OrchestratorPort
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}
