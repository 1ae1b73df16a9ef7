// Package http provides http transport for the questionnaire
package http

import (
	"io"
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"voiceform/internal/core/catalog"
	"voiceform/internal/modkit/httpkit"
	perr "voiceform/internal/platform/errors"
	phttp "voiceform/internal/platform/net/http"
	"voiceform/internal/platform/net/http/bind"
	"voiceform/internal/services/questionnaire/domain"
	svc "voiceform/internal/services/questionnaire/service"
)

// maxUploadBytes bounds the multipart form memory; the audio gate enforces
// the real payload ceiling afterwards
const maxUploadBytes = 12 << 20

// Register mounts questionnaire endpoints on the given router
func Register(r httpkit.Router, s *svc.Service, cat *catalog.Catalog) {
	h := &handlers{svc: s, cat: cat}

	httpkit.Post(r, "/start", h.start)
	httpkit.Get(r, "/{sessionID}/question", h.question)
	r.Get("/{sessionID}/question/audio", h.questionAudio)
	r.Get("/{sessionID}/retry/audio", h.retryAudio)
	r.Post("/{sessionID}/retry/audio", h.retryAudioPrompt)
	r.Post("/{sessionID}/response", h.submit)
	httpkit.Get(r, "/{sessionID}/responses", h.responses)
	httpkit.Delete(r, "/{sessionID}", h.remove)
}

type handlers struct {
	svc *svc.Service
	cat *catalog.Catalog
}

// @Summary Start a questionnaire session
// @Tags Questionnaire
// @Produce json
// @Success 200 {object} domain.StartOutput "ok"
// @Router /questionnaire/start [post]
func (h *handlers) start(r *stdhttp.Request) (any, error) {
	sess, err := h.svc.Start(r.Context())
	if err != nil {
		return nil, err
	}
	return domain.StartOutput{
		SessionID:        sess.SessionID,
		Message:          "Session started",
		ExpiresInSeconds: int64(h.svc.TTL().Seconds()),
	}, nil
}

// @Summary Current question for a session
// @Tags Questionnaire
// @Produce json
// @Param sessionID path string true "Session id"
// @Success 200 {object} domain.QuestionOutput "ok"
// @Failure 404 {object} errors.Wire "session not found"
// @Router /questionnaire/{sessionID}/question [get]
func (h *handlers) question(r *stdhttp.Request) (any, error) {
	p, err := h.svc.CurrentQuestion(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		return nil, err
	}
	out := domain.QuestionOutput{
		TotalQuestions: p.TotalQuestions,
		Completed:      p.Completed,
	}
	if p.Completed {
		out.Message = svc.CompletionMessage
		return out, nil
	}
	out.Question = p.Question.Text
	out.QuestionNumber = p.QuestionNumber
	return out, nil
}

// @Summary Synthesized audio for the current question
// @Tags Questionnaire
// @Produce audio/mpeg
// @Param sessionID path string true "Session id"
// @Success 200 {file} binary "mp3 bytes"
// @Failure 404 {object} errors.Wire "session not found"
// @Failure 503 {object} errors.Wire "synthesis unavailable"
// @Router /questionnaire/{sessionID}/question/audio [get]
func (h *handlers) questionAudio(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	audio, err := h.svc.QuestionAudio(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	writeAudio(w, audio)
}

// @Summary Synthesized audio for a retry prompt
// @Tags Questionnaire
// @Produce audio/mpeg
// @Param sessionID path string true "Session id"
// @Param message query string false "Retry prompt override"
// @Success 200 {file} binary "mp3 bytes"
// @Failure 503 {object} errors.Wire "synthesis unavailable"
// @Router /questionnaire/{sessionID}/retry/audio [get]
func (h *handlers) retryAudio(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	audio, err := h.svc.RetryAudio(r.Context(), r.URL.Query().Get("message"))
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	writeAudio(w, audio)
}

// @Summary Synthesized audio for a caller-provided retry prompt
// @Tags Questionnaire
// @Accept json
// @Produce audio/mpeg
// @Param sessionID path string true "Session id"
// @Param body body domain.RetryAudioInput true "Retry prompt"
// @Success 200 {file} binary "mp3 bytes"
// @Failure 400 {object} errors.Wire "invalid prompt body"
// @Failure 503 {object} errors.Wire "synthesis unavailable"
// @Router /questionnaire/{sessionID}/retry/audio [post]
func (h *handlers) retryAudioPrompt(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	in, err := bind.ParseJSON[domain.RetryAudioInput](r)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	audio, err := h.svc.RetryAudio(r.Context(), in.Message)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	writeAudio(w, audio)
}

// @Summary Submit a recorded answer
// @Tags Questionnaire
// @Accept multipart/form-data
// @Produce json
// @Param sessionID path string true "Session id"
// @Param audio formData file true "Recorded answer"
// @Success 200 {object} domain.SubmissionOutput "ok"
// @Failure 400 {object} errors.Wire "invalid audio"
// @Failure 404 {object} errors.Wire "session not found"
// @Router /questionnaire/{sessionID}/response [post]
func (h *handlers) submit(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	audio, err := readAudioPart(r)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	result, err := h.svc.ProcessResponse(r.Context(), chi.URLParam(r, "sessionID"), audio)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	phttp.RespondOK(w, r, submissionOutput(result))
}

// @Summary Recorded answers for a session
// @Tags Questionnaire
// @Produce json
// @Param sessionID path string true "Session id"
// @Success 200 {object} domain.ResponsesOutput "ok"
// @Failure 404 {object} errors.Wire "session not found"
// @Router /questionnaire/{sessionID}/responses [get]
func (h *handlers) responses(r *stdhttp.Request) (any, error) {
	sessionID := chi.URLParam(r, "sessionID")
	responses, err := h.svc.Responses(r.Context(), sessionID)
	if err != nil {
		return nil, err
	}

	out := domain.ResponsesOutput{
		SessionID: sessionID,
		Responses: make([]domain.ResponseOutput, 0, len(responses)),
	}
	for _, q := range h.cat.Questions() {
		resp, ok := responses[q.ID]
		if !ok {
			continue
		}
		out.Responses = append(out.Responses, domain.ResponseOutput{
			QuestionID: q.ID,
			Question:   q.Text,
			Transcript: resp.Transcript,
			Category:   resp.ClassifiedCategory,
			Confidence: resp.Confidence,
			RecordedAt: resp.RecordedAt.Format(time.RFC3339),
		})
	}
	out.Completed = len(out.Responses) == h.cat.Len()
	return out, nil
}

// @Summary Delete a session
// @Tags Questionnaire
// @Produce json
// @Param sessionID path string true "Session id"
// @Success 200 {object} domain.DeleteOutput "ok"
// @Router /questionnaire/{sessionID} [delete]
func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.svc.Delete(r.Context(), sessionID); err != nil {
		return nil, err
	}
	return domain.DeleteOutput{SessionID: sessionID, Message: "Session deleted"}, nil
}

func submissionOutput(result domain.ProcessingResult) domain.SubmissionOutput {
	out := domain.SubmissionOutput{
		Status:       string(result.Status),
		Message:      result.Message,
		Transcript:   result.Transcript,
		RetryMessage: result.RetryMessage,
		Completed:    result.Status == domain.StatusDone,
	}
	if result.Classification != nil {
		out.Category = result.Classification.Category
		conf := result.Classification.Confidence
		out.Confidence = &conf
	}
	if result.Status == domain.StatusSuccess && result.NextQuestion != nil {
		out.NextQuestion = result.NextQuestion.Text
	}
	return out
}

func readAudioPart(r *stdhttp.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, perr.InvalidAudiof("multipart form required: %v", err)
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		return nil, perr.InvalidAudiof("missing audio part: %v", err)
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, perr.InvalidAudiof("read audio part: %v", err)
	}
	return audio, nil
}

func writeAudio(w stdhttp.ResponseWriter, audio []byte) {
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write(audio)
}
