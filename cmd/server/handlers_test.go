package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	degkit "github.com/degkit/degkit"
	"github.com/degkit/degkit/bayes"
	"github.com/degkit/degkit/chem"
	"github.com/degkit/degkit/rules"
	"github.com/degkit/degkit/store"
)

// stubEngine fakes the engine for handler tests; only the methods a test
// exercises need behavior.
type stubEngine struct {
	products []rules.CandidateProduct
	err      error
}

func (s *stubEngine) PredictProducts(context.Context, string, chem.Stress, ...degkit.PredictOption) ([]rules.CandidateProduct, error) {
	return s.products, s.err
}

func (s *stubEngine) ProjectMassBalance(context.Context, string, chem.Stress, float64) (*rules.MassBalance, error) {
	return &rules.MassBalance{PredictedLkImb: 95, PredictedCimb: 95, DegradationPercent: 10}, s.err
}

func (s *stubEngine) AnalyzeStructure(context.Context, string, chem.Stress, ...degkit.AnalyzeOption) (*degkit.StructureAnalysis, error) {
	return &degkit.StructureAnalysis{SMILES: "CCO"}, s.err
}

func (s *stubEngine) UpdatePosterior(priorMean, priorStd, dataMean, dataStd float64, n int) bayes.Posterior {
	return bayes.Update(priorMean, priorStd, dataMean, dataStd, n)
}

func (s *stubEngine) HistoricalPosterior(context.Context, string, chem.Stress, string, float64, float64, int) (*bayes.Posterior, error) {
	return nil, s.err
}

func (s *stubEngine) SimilarCompounds(context.Context, string, int) ([]store.SimilarCompound, error) {
	return nil, s.err
}

func (s *stubEngine) ImportObservations(_ context.Context, obs []degkit.ObservationInput) (int, error) {
	return len(obs), s.err
}

func (s *stubEngine) Stats(context.Context) (*degkit.Stats, error) { return &degkit.Stats{}, s.err }
func (s *stubEngine) Store() *store.Store                          { return nil }
func (s *stubEngine) Close() error                                 { return nil }

func postJSON(t *testing.T, fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	fn(w, req)
	return w
}

func TestHandlePredictProducts(t *testing.T) {
	h := newHandler(&stubEngine{products: []rules.CandidateProduct{{SMILES: "CC(=O)O", Confidence: 90}}})

	w := postJSON(t, h.handlePredictProducts, `{"smiles":"CC(=O)Oc1ccccc1C(=O)O","stress_type":"base"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	var resp struct {
		Products []rules.CandidateProduct `json:"products"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Products) != 1 || resp.Products[0].SMILES != "CC(=O)O" {
		t.Errorf("products = %+v", resp.Products)
	}
}

func TestHandlePredictProductsValidation(t *testing.T) {
	h := newHandler(&stubEngine{})
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing smiles", `{"stress_type":"base"}`},
		{"missing stress", `{"smiles":"CCO"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := postJSON(t, h.handlePredictProducts, tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestHandleBayesianUpdateRequiresAllFields(t *testing.T) {
	h := newHandler(&stubEngine{})

	w := postJSON(t, h.handleBayesianUpdate, `{"prior_mean":100,"prior_std":5,"data_mean":90,"data_std":2,"n":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	var p bayes.Posterior
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if p.Mean <= 90 || p.Mean >= 100 {
		t.Errorf("Mean = %v, want in (90, 100)", p.Mean)
	}

	// Zero is a legal value; only absent fields are rejected.
	if w := postJSON(t, h.handleBayesianUpdate, `{"prior_mean":100,"prior_std":0,"data_mean":90,"data_std":2}`); w.Code != http.StatusOK {
		t.Errorf("status with zero prior_std = %d, want 200", w.Code)
	}
	if w := postJSON(t, h.handleBayesianUpdate, `{"prior_mean":100,"prior_std":5,"data_mean":90}`); w.Code != http.StatusBadRequest {
		t.Errorf("status with missing data_std = %d, want 400", w.Code)
	}
}

func TestWriteEngineErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", degkit.ErrInvalidStructure), http.StatusBadRequest},
		{degkit.ErrCompoundNotFound, http.StatusNotFound},
		{degkit.ErrNoObservations, http.StatusNotFound},
		{degkit.ErrStoreDisabled, http.StatusServiceUnavailable},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		writeEngineError(w, "test", tt.err)
		if w.Code != tt.want {
			t.Errorf("writeEngineError(%v) status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := authMiddleware("sekrit", next)

	req := httptest.NewRequest("POST", "/predict-products", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest("POST", "/predict-products", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}

	// Health stays open.
	req = httptest.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", w.Code)
	}
}
