package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a retrieve request has no question text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// RetrieveRequest is the consumer-facing retrieve call: a question, a result count and an optional language.
type RetrieveRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	Lang     string `json:"lang,omitempty"` // empty means no language filter
}

// Validate normalizes the request. An empty question is an error; TopK falls back to
// defaultTopK when unset and is capped at maxTopK when maxTopK is positive.
func (r *RetrieveRequest) Validate(defaultTopK, maxTopK int) error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return ErrEmptyQuery
	}
	r.Lang = strings.TrimSpace(r.Lang)
	if r.TopK <= 0 {
		r.TopK = defaultTopK
	}
	if r.TopK <= 0 {
		r.TopK = 5
	}
	if maxTopK > 0 && r.TopK > maxTopK {
		r.TopK = maxTopK
	}
	return nil
}
