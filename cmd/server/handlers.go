package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	degkit "github.com/degkit/degkit"
	"github.com/degkit/degkit/chem"
)

type handler struct {
	engine degkit.Engine
}

func newHandler(e degkit.Engine) *handler {
	return &handler{engine: e}
}

// POST /predict-products
func (h *handler) handlePredictProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var req struct {
		SMILES      string `json:"smiles"`
		StressType  string `json:"stress_type"`
		MaxProducts int    `json:"max_products,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SMILES == "" || req.StressType == "" {
		writeError(w, http.StatusBadRequest, "smiles and stress_type are required")
		return
	}
	// Bound parameters.
	if req.MaxProducts < 0 || req.MaxProducts > 50 {
		req.MaxProducts = 0 // use default
	}

	var opts []degkit.PredictOption
	if req.MaxProducts > 0 {
		opts = append(opts, degkit.WithMaxProducts(req.MaxProducts))
	}

	products, err := h.engine.PredictProducts(ctx, req.SMILES, chem.Stress(req.StressType), opts...)
	if err != nil {
		writeEngineError(w, "predict-products", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
	})
}

// POST /predict-mb
func (h *handler) handlePredictMassBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var req struct {
		SMILES             string   `json:"smiles"`
		StressType         string   `json:"stress_type"`
		DegradationPercent *float64 `json:"degradation_percent,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SMILES == "" || req.StressType == "" {
		writeError(w, http.StatusBadRequest, "smiles and stress_type are required")
		return
	}
	degradation := 10.0
	if req.DegradationPercent != nil {
		degradation = *req.DegradationPercent
	}
	if degradation < 0 || degradation > 100 {
		writeError(w, http.StatusBadRequest, "degradation_percent must be in [0,100]")
		return
	}

	mb, err := h.engine.ProjectMassBalance(ctx, req.SMILES, chem.Stress(req.StressType), degradation)
	if err != nil {
		writeEngineError(w, "predict-mb", err)
		return
	}
	writeJSON(w, http.StatusOK, mb)
}

// POST /analyze
func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var req struct {
		SMILES      string   `json:"smiles"`
		StressType  string   `json:"stress_type"`
		Temperature *float64 `json:"temperature,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SMILES == "" || req.StressType == "" {
		writeError(w, http.StatusBadRequest, "smiles and stress_type are required")
		return
	}

	var opts []degkit.AnalyzeOption
	if req.Temperature != nil {
		opts = append(opts, degkit.WithTemperature(*req.Temperature))
	}

	analysis, err := h.engine.AnalyzeStructure(ctx, req.SMILES, chem.Stress(req.StressType), opts...)
	if err != nil {
		writeEngineError(w, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// POST /bayesian-update
func (h *handler) handleBayesianUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriorMean *float64 `json:"prior_mean"`
		PriorStd  *float64 `json:"prior_std"`
		DataMean  *float64 `json:"data_mean"`
		DataStd   *float64 `json:"data_std"`
		N         int      `json:"n,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PriorMean == nil || req.PriorStd == nil || req.DataMean == nil || req.DataStd == nil {
		writeError(w, http.StatusBadRequest, "prior_mean, prior_std, data_mean, and data_std are required")
		return
	}

	posterior := h.engine.UpdatePosterior(*req.PriorMean, *req.PriorStd, *req.DataMean, *req.DataStd, req.N)
	writeJSON(w, http.StatusOK, posterior)
}

// POST /historical-update
func (h *handler) handleHistoricalUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SMILES     string   `json:"smiles"`
		StressType string   `json:"stress_type"`
		Metric     string   `json:"metric"`
		DataMean   *float64 `json:"data_mean"`
		DataStd    *float64 `json:"data_std"`
		N          int      `json:"n,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SMILES == "" || req.StressType == "" || req.Metric == "" {
		writeError(w, http.StatusBadRequest, "smiles, stress_type, and metric are required")
		return
	}
	if req.DataMean == nil || req.DataStd == nil {
		writeError(w, http.StatusBadRequest, "data_mean and data_std are required")
		return
	}

	posterior, err := h.engine.HistoricalPosterior(r.Context(), req.SMILES,
		chem.Stress(req.StressType), req.Metric, *req.DataMean, *req.DataStd, req.N)
	if err != nil {
		writeEngineError(w, "historical-update", err)
		return
	}
	writeJSON(w, http.StatusOK, posterior)
}

// POST /similar
func (h *handler) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SMILES string `json:"smiles"`
		K      int    `json:"k,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SMILES == "" {
		writeError(w, http.StatusBadRequest, "smiles is required")
		return
	}
	if req.K < 0 || req.K > 100 {
		req.K = 0 // use default
	}

	similar, err := h.engine.SimilarCompounds(r.Context(), req.SMILES, req.K)
	if err != nil {
		writeEngineError(w, "similar", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"compounds": similar,
	})
}

// POST /observations/import
func (h *handler) handleImportObservations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Observations []degkit.ObservationInput `json:"observations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Observations) == 0 {
		writeError(w, http.StatusBadRequest, "observations is required")
		return
	}

	inserted, err := h.engine.ImportObservations(r.Context(), req.Observations)
	if err != nil {
		writeEngineError(w, "observations/import", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": inserted,
	})
}

// GET /stats
func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		writeEngineError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// writeEngineError maps engine sentinels onto HTTP statuses. Input problems
// surface their message; internal faults stay generic.
func writeEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, degkit.ErrInvalidStructure):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, degkit.ErrCompoundNotFound), errors.Is(err, degkit.ErrNoObservations):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, degkit.ErrStoreDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, op+" failed")
		slog.Error(op+" error", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
