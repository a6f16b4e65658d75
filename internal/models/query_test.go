package models

import (
	"errors"
	"testing"
)

func TestRetrieveRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      RetrieveRequest
		wantErr  error
		wantTopK int
	}{
		{"empty question", RetrieveRequest{Question: ""}, ErrEmptyQuery, 0},
		{"blank question", RetrieveRequest{Question: "   "}, ErrEmptyQuery, 0},
		{"sets default top_k", RetrieveRequest{Question: "x"}, nil, 5},
		{"keeps explicit top_k", RetrieveRequest{Question: "x", TopK: 2}, nil, 2},
		{"caps top_k", RetrieveRequest{Question: "x", TopK: 500}, nil, 100},
		{"negative top_k uses default", RetrieveRequest{Question: "x", TopK: -3}, nil, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := req.Validate(5, 100)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && req.TopK != tt.wantTopK {
				t.Errorf("TopK = %d, want %d", req.TopK, tt.wantTopK)
			}
		})
	}
}

func TestRetrieveRequest_ValidateTrims(t *testing.T) {
	req := RetrieveRequest{Question: "  What is the categorical imperative?  ", Lang: " en "}
	if err := req.Validate(5, 0); err != nil {
		t.Fatal(err)
	}
	if req.Question != "What is the categorical imperative?" {
		t.Errorf("question not trimmed: %q", req.Question)
	}
	if req.Lang != "en" {
		t.Errorf("lang not trimmed: %q", req.Lang)
	}
}

func TestNewQueryResult(t *testing.T) {
	p := PassageRecord{WorkID: "pure_reason", ParaID: "2", Lang: "en", Text: "text"}
	r := NewQueryResult(p, 0.75)
	if r.WorkID != p.WorkID || r.ParaID != p.ParaID || r.Lang != p.Lang || r.Text != p.Text {
		t.Errorf("fields not copied: %+v", r)
	}
	if r.Score != 0.75 {
		t.Errorf("Score = %f", r.Score)
	}
}
