// Package catalog holds the ordered questionnaire and category matching rules
package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Question is one questionnaire entry with its accepted answer categories.
// The catalog order defines progression order
type Question struct {
	ID              int      `json:"id"`
	Text            string   `json:"text"`
	ValidCategories []string `json:"validCategories"`
}

// MatchesCategory reports whether category equals one of the question's valid
// categories after trimming and Unicode case folding
func (q Question) MatchesCategory(category string) bool {
	c := fold(category)
	if c == "" {
		return false
	}
	for _, v := range q.ValidCategories {
		if fold(v) == c {
			return true
		}
	}
	return false
}

var folder = cases.Fold()

func fold(s string) string { return folder.String(strings.TrimSpace(s)) }

// Catalog is an immutable ordered question list
type Catalog struct {
	questions []Question
}

// New validates and wraps an ordered question list.
// IDs must be unique and positive, every question needs text and at least one category
func New(questions []Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog: no questions")
	}
	seen := make(map[int]struct{}, len(questions))
	for _, q := range questions {
		if q.ID <= 0 {
			return nil, fmt.Errorf("catalog: question %q has non-positive id %d", q.Text, q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate question id %d", q.ID)
		}
		seen[q.ID] = struct{}{}
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("catalog: question %d has empty text", q.ID)
		}
		if len(q.ValidCategories) == 0 {
			return nil, fmt.Errorf("catalog: question %d has no valid categories", q.ID)
		}
	}
	cp := make([]Question, len(questions))
	copy(cp, questions)
	return &Catalog{questions: cp}, nil
}

// MustNew is New that panics; for static catalogs wired at startup
func MustNew(questions []Question) *Catalog {
	c, err := New(questions)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the stock health questionnaire
func Default() *Catalog {
	return MustNew([]Question{
		{
			ID:   1,
			Text: "Over the past week, how confident have you felt in making healthy food choices?",
			ValidCategories: []string{
				"very confident",
				"somewhat confident",
				"neutral",
				"not very confident",
				"not confident at all",
			},
		},
		{
			ID:              2,
			Text:            "In the past week, how many days did you engage in at least 20 minutes of moderate activity, such as walking?",
			ValidCategories: []string{"0", "1-3", "4-5", "6-7"},
		},
		{
			ID:   3,
			Text: "Over the past week, how often have you felt physically well and energized?",
			ValidCategories: []string{
				"always",
				"most of the time",
				"sometimes",
				"rarely",
				"never",
			},
		},
		{
			ID:   4,
			Text: "In the past week, have you taken all of your prescribed medication as directed?",
			ValidCategories: []string{
				"yes",
				"no",
				"sometimes",
				"i dont take medication",
				"i dont have access to my medication",
			},
		},
	})
}

// Len is the number of questions
func (c *Catalog) Len() int { return len(c.questions) }

// At returns the question at 0-based index i, false when out of range
func (c *Catalog) At(i int) (Question, bool) {
	if i < 0 || i >= len(c.questions) {
		return Question{}, false
	}
	return c.questions[i], true
}

// Questions returns a copy of the ordered question list
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}
