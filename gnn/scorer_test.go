package gnn

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/degkit/degkit/chem"
)

func TestDisabledScorer(t *testing.T) {
	s := New(Config{})
	_, err := s.ScoreCandidates(context.Background(), "CCO", []string{"CC=O"}, chem.StressOxidative)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestBlend(t *testing.T) {
	tests := []struct {
		rule  float64
		model float64
		want  float64
	}{
		{100, 1, 100},
		{50, 0.5, 50},
		{0, 0, 0},
		{80, 0, 56},
		{0, 1, 30},
		{100, 2, 100}, // out-of-range model score still clamps
	}
	for _, tt := range tests {
		if got := Blend(tt.rule, tt.model); got != tt.want {
			t.Errorf("Blend(%v, %v) = %v, want %v", tt.rule, tt.model, got, tt.want)
		}
	}
}

func TestValidateScores(t *testing.T) {
	if err := ValidateScores([]float64{0, 0.5, 1}, 3); err != nil {
		t.Errorf("valid scores rejected: %v", err)
	}
	if err := ValidateScores([]float64{0.5}, 2); err == nil {
		t.Error("length mismatch accepted")
	}
	if err := ValidateScores([]float64{1.5}, 1); err == nil {
		t.Error("out-of-range score accepted")
	}
	if err := ValidateScores([]float64{-0.1}, 1); err == nil {
		t.Error("negative score accepted")
	}
}

func TestHTTPScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" {
			t.Errorf("path = %q, want /score", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.SMILES != "CCO" || req.StressType != "oxidative" {
			t.Errorf("request = %+v", req)
		}
		scores := make([]float64, len(req.Candidates))
		for i := range scores {
			scores[i] = 0.5
		}
		json.NewEncoder(w).Encode(scoreResponse{Scores: scores})
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, APIKey: "sekrit"})
	scores, err := s.ScoreCandidates(context.Background(), "CCO", []string{"CC=O", "CC(=O)O"}, chem.StressOxidative)
	if err != nil {
		t.Fatalf("ScoreCandidates: %v", err)
	}
	if len(scores) != 2 || scores[0] != 0.5 {
		t.Errorf("scores = %v, want [0.5 0.5]", scores)
	}
}

func TestHTTPScorerServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{Error: "model not loaded"})
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	if _, err := s.ScoreCandidates(context.Background(), "CCO", []string{"CC=O"}, chem.StressOxidative); err == nil {
		t.Error("service error not surfaced")
	}
}

func TestHTTPScorerBadRequestNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	if _, err := s.ScoreCandidates(context.Background(), "CCO", []string{"CC=O"}, chem.StressOxidative); err == nil {
		t.Error("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls)
	}
}

func TestHTTPScorerEmptyCandidates(t *testing.T) {
	s := New(Config{BaseURL: "http://127.0.0.1:1"})
	scores, err := s.ScoreCandidates(context.Background(), "CCO", nil, chem.StressOxidative)
	if err != nil || scores != nil {
		t.Errorf("empty candidates: scores=%v err=%v, want nil/nil", scores, err)
	}
}
