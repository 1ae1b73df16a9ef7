// Package classify maps transcripts onto question categories with Gemini
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"voiceform/internal/core/catalog"
	"voiceform/internal/platform/config"
	perr "voiceform/internal/platform/errors"
	"voiceform/internal/platform/logger"
	"voiceform/internal/services/questionnaire/domain"
)

const defaultModel = "gemini-2.0-flash"

// Options configures the Classifier
type Options struct {
	Model string
}

// FromConfig reads options from config.Conf.
// The API key is read by the genai client itself (GEMINI_API_KEY)
func FromConfig(cfg config.Conf) Options {
	lf := cfg.Prefix("LLM_")
	return Options{
		Model: lf.MayString("MODEL", defaultModel),
	}
}

// Classifier asks a language model whether a transcript matches one of the
// question's valid categories. Implements domain.ClassifierPort
type Classifier struct {
	cli   *genai.Client
	model string
	log   *logger.Logger
}

var _ domain.ClassifierPort = (*Classifier)(nil)

// New constructs a Classifier
func New(ctx context.Context, o Options) (*Classifier, error) {
	if o.Model == "" {
		o.Model = defaultModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "genai client init failed")
	}
	return &Classifier{cli: cli, model: o.Model, log: logger.Named("classify")}, nil
}

// MustNew is New that panics on construction failure; used at wiring time
func MustNew(o Options) *Classifier {
	c, err := New(context.Background(), o)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify implements domain.ClassifierPort.
// The transcript must be non-empty; the orchestrator guards that
func (c *Classifier) Classify(
	ctx context.Context,
	q catalog.Question,
	transcript string,
) (domain.ClassificationResult, error) {
	prompt := buildPrompt(q, transcript)

	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return domain.ClassificationResult{}, perr.ClassificationFailed(err, "model call failed")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return domain.ClassificationResult{}, perr.ClassificationFailed(nil, "empty model response")
	}

	result, err := ParseResult(resp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	result = sanitize(q, result)

	c.log.Debug().
		Int("question_id", q.ID).
		Bool("matched", result.Matched).
		Float64("confidence", result.Confidence).
		Msg("classified")
	return result, nil
}

func buildPrompt(q catalog.Question, transcript string) string {
	var sb strings.Builder
	sb.WriteString("You are a health questionnaire response classifier. Decide whether the user's spoken response matches one of the predefined valid categories for the question.\n\n")
	fmt.Fprintf(&sb, "Question: %q\n", q.Text)
	fmt.Fprintf(&sb, "Valid categories: %s\n", strings.Join(q.ValidCategories, ", "))
	fmt.Fprintf(&sb, "User's spoken response: %q\n\n", transcript)
	sb.WriteString(`Classification rules:
1. Be flexible with synonyms (e.g., "pretty confident" matches "somewhat confident")
2. Handle numbers as words or digits (e.g., "zero days" or "0" both match "0")
3. Ignore filler words and minor variations
4. If the response clearly maps to a category, set matched=true
5. If ambiguous or matching no category, set matched=false and suggest in retryMessage how to rephrase

Respond with ONLY a JSON object in this exact format (no markdown, no preamble):
{"matched": true/false, "category": "exact category string or null", "confidence": 0.0-1.0, "retryMessage": "guidance when matched is false, else null"}
`)
	return sb.String()
}

// sanitize drops categories the model invented outside the question's
// valid set; such replies become unmatched
func sanitize(q catalog.Question, r domain.ClassificationResult) domain.ClassificationResult {
	if r.Matched && !q.MatchesCategory(r.Category) {
		r.Matched = false
		r.Category = ""
	}
	return r
}

// ParseResult decodes a model reply into a ClassificationResult.
// Markdown code fences and surrounding prose are tolerated; confidence is
// clamped to [0,1]
func ParseResult(reply string) (domain.ClassificationResult, error) {
	var result domain.ClassificationResult
	if err := json.Unmarshal([]byte(extractJSON(reply)), &result); err != nil {
		return domain.ClassificationResult{}, perr.ClassificationFailed(err, "malformed model reply")
	}
	result.Clamp()
	return result, nil
}

// extractJSON strips code fences and trims to the outermost JSON object
func extractJSON(reply string) string {
	cleaned := strings.TrimSpace(reply)

	if after, ok := strings.CutPrefix(cleaned, "```json"); ok {
		cleaned = after
	} else if after, ok := strings.CutPrefix(cleaned, "```"); ok {
		cleaned = after
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start >= 0 && end > start {
		return strings.TrimSpace(cleaned[start : end+1])
	}
	return strings.TrimSpace(cleaned)
}
