package domain

import "voiceform/internal/core/catalog"

// Progress is the current position within the questionnaire
type Progress struct {
	Question       *catalog.Question
	QuestionNumber int
	TotalQuestions int
	Completed      bool
}

// StartOutput is the response body for starting a session
type StartOutput struct {
	SessionID        string `json:"session_id" example:"3f1c9a52-8a13-4c57-9c1e-2f2a7a0d1b42"`
	Message          string `json:"message" example:"Session started"`
	ExpiresInSeconds int64  `json:"expires_in_seconds" example:"1800"`
}

// QuestionOutput is the response body for fetching the current question
type QuestionOutput struct {
	Question       string `json:"question,omitempty" example:"How have you been feeling overall recently?"`
	QuestionNumber int    `json:"question_number,omitempty" example:"1"`
	TotalQuestions int    `json:"total_questions" example:"4"`
	Completed      bool   `json:"completed" example:"false"`
	Message        string `json:"message,omitempty"`
}

// RetryAudioInput is the request body for synthesizing a caller-provided
// retry prompt
type RetryAudioInput struct {
	Message string `json:"message" validate:"required,max=500"`
}

// SubmissionOutput is the response body for submitting an audio response
type SubmissionOutput struct {
	Status       string   `json:"status" example:"success"`
	Message      string   `json:"message"`
	Transcript   string   `json:"transcript,omitempty"`
	Category     string   `json:"category,omitempty" example:"good"`
	Confidence   *float64 `json:"confidence,omitempty" example:"0.92"`
	NextQuestion string   `json:"next_question,omitempty"`
	RetryMessage string   `json:"retry_message,omitempty"`
	Completed    bool     `json:"completed"`
}

// ResponseOutput is one recorded answer in the responses listing
type ResponseOutput struct {
	QuestionID int     `json:"question_id" example:"1"`
	Question   string  `json:"question"`
	Transcript string  `json:"transcript"`
	Category   string  `json:"category" example:"good"`
	Confidence float64 `json:"confidence" example:"0.92"`
	RecordedAt string  `json:"recorded_at" example:"2025-05-01T12:34:56Z"`
}

// ResponsesOutput is the response body for listing a session's answers
type ResponsesOutput struct {
	SessionID string           `json:"session_id"`
	Completed bool             `json:"completed"`
	Responses []ResponseOutput `json:"responses"`
}

// DeleteOutput acknowledges a session deletion
type DeleteOutput struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" example:"Session deleted"`
}
