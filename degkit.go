// Package degkit is the entry point for the degradation reasoning engine:
// structural prediction of degradation products, rule-based susceptibility
// and kinetics estimation, mass-balance projection, and Bayesian fusion of
// predictions with measured stress-study data.
package degkit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/degkit/degkit/bayes"
	"github.com/degkit/degkit/chem"
	"github.com/degkit/degkit/gnn"
	"github.com/degkit/degkit/kinetics"
	"github.com/degkit/degkit/rules"
	"github.com/degkit/degkit/store"
)

// Engine is the main entry point for the degradation engine.
type Engine interface {
	// PredictProducts enumerates ranked candidate degradation products of a
	// parent structure under the given stress condition.
	PredictProducts(ctx context.Context, smiles string, stress chem.Stress, opts ...PredictOption) ([]rules.CandidateProduct, error)

	// ProjectMassBalance projects assay-level mass balance at the given
	// degradation level from the top predicted products.
	ProjectMassBalance(ctx context.Context, smiles string, stress chem.Stress, degradationPercent float64) (*rules.MassBalance, error)

	// AnalyzeStructure computes descriptors, reactive sites, susceptibility,
	// and kinetics for one structure under one stress condition.
	AnalyzeStructure(ctx context.Context, smiles string, stress chem.Stress, opts ...AnalyzeOption) (*StructureAnalysis, error)

	// UpdatePosterior fuses a prior estimate with measured data via the
	// Normal-Normal conjugate update. Pure computation, no persistence.
	UpdatePosterior(priorMean, priorStd, dataMean, dataStd float64, n int) bayes.Posterior

	// HistoricalPosterior pools stored observations of (compound, stress,
	// metric) into a prior and updates it with freshly measured data.
	HistoricalPosterior(ctx context.Context, smiles string, stress chem.Stress, metric string, dataMean, dataStd float64, n int) (*bayes.Posterior, error)

	// SimilarCompounds returns the stored compounds nearest to the given
	// structure by fingerprint similarity.
	SimilarCompounds(ctx context.Context, smiles string, k int) ([]store.SimilarCompound, error)

	// ImportObservations records measured stress-study results, registering
	// compounds as needed. Returns the number of observations stored.
	ImportObservations(ctx context.Context, obs []ObservationInput) (int, error)

	// Stats reports store counts and rewrite-engine diagnostics.
	Stats(ctx context.Context) (*Stats, error)

	// Store returns the underlying store for diagnostic access, nil when
	// persistence is disabled.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// StructureAnalysis is the full structural report for one compound under one
// stress condition.
type StructureAnalysis struct {
	SMILES                    string                   `json:"smiles"`
	MolecularDescriptors      chem.Descriptors         `json:"molecular_descriptors"`
	DegradationSusceptibility kinetics.Assessment      `json:"degradation_susceptibility"`
	Kinetics                  kinetics.Estimate        `json:"kinetics"`
	ReactiveSites             map[string]kinetics.Site `json:"reactive_sites"`
}

// ObservationInput is one measured result to import, keyed by structure.
type ObservationInput struct {
	SMILES string  `json:"smiles"`
	Stress string  `json:"stress"`
	Metric string  `json:"metric"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	N      int     `json:"n"`
	Source string  `json:"source,omitempty"`
}

// Stats aggregates store counts and engine diagnostics.
type Stats struct {
	Store       *store.DBStats            `json:"store,omitempty"`
	Diagnostics rules.DiagnosticsSnapshot `json:"diagnostics"`
}

// PredictOption configures product prediction.
type PredictOption func(*predictOptions)

type predictOptions struct {
	maxProducts int
}

// WithMaxProducts overrides the candidate-list cap for this call.
func WithMaxProducts(n int) PredictOption {
	return func(o *predictOptions) { o.maxProducts = n }
}

// AnalyzeOption configures structure analysis.
type AnalyzeOption func(*analyzeOptions)

type analyzeOptions struct {
	temperatureC float64
}

// WithTemperature sets the kinetics estimation temperature in °C
// (default 25).
func WithTemperature(t float64) AnalyzeOption {
	return func(o *analyzeOptions) { o.temperatureC = t }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg    Config
	store  *store.Store
	rules  *rules.Engine
	scorer gnn.Scorer
}

// New creates a new degkit engine with the given configuration.
func New(cfg Config) (Engine, error) {
	// Apply defaults for zero values
	if cfg.FingerprintDim == 0 {
		cfg.FingerprintDim = 256
	}
	if cfg.FingerprintDim < 0 {
		return nil, fmt.Errorf("%w: fingerprint_dim must be positive", ErrInvalidConfig)
	}

	var s *store.Store
	if !cfg.DisableStore {
		var err error
		s, err = store.New(cfg.resolveDBPath(), cfg.FingerprintDim)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
	}

	return &engine{
		cfg:   cfg,
		store: s,
		rules: rules.NewEngine(rules.Config{
			MaxEmbeddings: cfg.MaxEmbeddings,
			MaxProducts:   cfg.MaxProducts,
		}),
		scorer: gnn.New(cfg.GNN),
	}, nil
}

// PredictProducts parses the structure, runs the rule engine, optionally
// reweights confidences with the external scorer, and logs the prediction.
func (e *engine) PredictProducts(ctx context.Context, smiles string, stress chem.Stress, opts ...PredictOption) ([]rules.CandidateProduct, error) {
	options := &predictOptions{}
	for _, o := range opts {
		o(options)
	}

	parent, err := e.parse(smiles)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	products := e.rules.PredictProducts(parent, stress, options.maxProducts)
	slog.Debug("predict: rule engine complete",
		"smiles", parent.Canonical(), "stress", stress,
		"candidates", len(products), "elapsed", time.Since(start).Round(time.Millisecond))

	e.rescore(ctx, parent.Canonical(), stress, products)
	e.logPrediction(ctx, parent, stress, "predict_products", products)
	return products, nil
}

// ProjectMassBalance parses the structure and projects mass balance at the
// given degradation level.
func (e *engine) ProjectMassBalance(ctx context.Context, smiles string, stress chem.Stress, degradationPercent float64) (*rules.MassBalance, error) {
	parent, err := e.parse(smiles)
	if err != nil {
		return nil, err
	}

	mb := e.rules.ProjectMassBalance(parent, stress, degradationPercent)
	e.logPrediction(ctx, parent, stress, "predict_mb", mb)
	return &mb, nil
}

// AnalyzeStructure computes the structural report for one compound.
func (e *engine) AnalyzeStructure(ctx context.Context, smiles string, stress chem.Stress, opts ...AnalyzeOption) (*StructureAnalysis, error) {
	options := &analyzeOptions{temperatureC: 25}
	for _, o := range opts {
		o(options)
	}

	m, err := e.parse(smiles)
	if err != nil {
		return nil, err
	}

	analysis := &StructureAnalysis{
		SMILES:                    m.Canonical(),
		MolecularDescriptors:      m.Descriptors(),
		DegradationSusceptibility: kinetics.AssessSusceptibility(m, stress),
		Kinetics:                  kinetics.EstimateKinetics(m, stress, options.temperatureC),
		ReactiveSites:             kinetics.ReactiveSites(m),
	}
	e.logPrediction(ctx, m, stress, "analyze_structure", analysis)
	return analysis, nil
}

// UpdatePosterior runs the Normal-Normal conjugate update.
func (e *engine) UpdatePosterior(priorMean, priorStd, dataMean, dataStd float64, n int) bayes.Posterior {
	return bayes.Update(priorMean, priorStd, dataMean, dataStd, n)
}

// HistoricalPosterior builds a prior from stored observations and fuses it
// with new measured data.
func (e *engine) HistoricalPosterior(ctx context.Context, smiles string, stress chem.Stress, metric string, dataMean, dataStd float64, n int) (*bayes.Posterior, error) {
	if e.store == nil {
		return nil, ErrStoreDisabled
	}

	m, err := e.parse(smiles)
	if err != nil {
		return nil, err
	}

	c, err := e.store.GetCompound(ctx, m.Canonical())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCompoundNotFound, m.Canonical())
		}
		return nil, fmt.Errorf("looking up compound: %w", err)
	}

	prior, err := e.store.ObservationPrior(ctx, c.ID, string(stress), metric)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s under %s", ErrNoObservations, metric, stress)
		}
		return nil, fmt.Errorf("pooling observations: %w", err)
	}

	posterior := bayes.Update(prior.Mean, prior.Std, dataMean, dataStd, n)
	return &posterior, nil
}

// SimilarCompounds runs fingerprint KNN against the compound registry.
func (e *engine) SimilarCompounds(ctx context.Context, smiles string, k int) ([]store.SimilarCompound, error) {
	if e.store == nil {
		return nil, ErrStoreDisabled
	}
	if k <= 0 {
		k = 5
	}

	m, err := e.parse(smiles)
	if err != nil {
		return nil, err
	}

	fp := m.Fingerprint(chem.FingerprintRadius)
	return e.store.SimilarCompounds(ctx, fp.Vector(e.cfg.FingerprintDim), k)
}

// ImportObservations validates, registers compounds, and stores measured
// results. Structures are canonicalized so repeated imports of the same
// compound share one registry row.
func (e *engine) ImportObservations(ctx context.Context, obs []ObservationInput) (int, error) {
	if e.store == nil {
		return 0, ErrStoreDisabled
	}

	records := make([]store.Observation, 0, len(obs))
	for i, o := range obs {
		m, err := e.parse(o.SMILES)
		if err != nil {
			return 0, fmt.Errorf("observation %d: %w", i, err)
		}
		id, err := e.upsertCompound(ctx, m)
		if err != nil {
			return 0, fmt.Errorf("observation %d: registering compound: %w", i, err)
		}
		records = append(records, store.Observation{
			CompoundID: id,
			Stress:     o.Stress,
			Metric:     o.Metric,
			Mean:       o.Mean,
			Std:        o.Std,
			N:          o.N,
			Source:     o.Source,
		})
	}
	return e.store.InsertObservations(ctx, records)
}

// Stats reports store counts and rule-engine diagnostics.
func (e *engine) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Diagnostics: e.rules.Diagnostics()}
	if e.store != nil {
		dbStats, err := e.store.DBStats(ctx)
		if err != nil {
			return nil, err
		}
		stats.Store = dbStats
	}
	return stats, nil
}

// Store returns the underlying store for diagnostic access.
func (e *engine) Store() *store.Store {
	return e.store
}

// Close shuts down the engine.
func (e *engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// parse converts a SMILES string to a molecule, mapping structure errors to
// the package sentinel.
func (e *engine) parse(smiles string) (*chem.Mol, error) {
	m, err := chem.ParseSMILES(smiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return m, nil
}

// rescore blends external model scores into rule-based confidences and
// re-sorts. Scorer failures keep the rule-based ranking untouched.
func (e *engine) rescore(ctx context.Context, parent string, stress chem.Stress, products []rules.CandidateProduct) {
	if len(products) == 0 {
		return
	}
	candidates := make([]string, len(products))
	for i, p := range products {
		candidates[i] = p.SMILES
	}

	scores, err := e.scorer.ScoreCandidates(ctx, parent, candidates, stress)
	if err != nil {
		if !errors.Is(err, gnn.ErrDisabled) {
			slog.Warn("gnn rescoring failed (non-fatal)", "error", err)
		}
		return
	}

	for i := range products {
		products[i].Confidence = gnn.Blend(products[i].Confidence, scores[i])
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Confidence > products[j].Confidence
	})
}

// upsertCompound registers the molecule with its descriptors and fingerprint.
func (e *engine) upsertCompound(ctx context.Context, m *chem.Mol) (int64, error) {
	desc, _ := json.Marshal(m.Descriptors())
	fp := m.Fingerprint(chem.FingerprintRadius)
	return e.store.UpsertCompound(ctx, store.Compound{
		SMILES:          m.Canonical(),
		MolecularWeight: m.Weight(),
		Descriptors:     string(desc),
	}, fp.Vector(e.cfg.FingerprintDim))
}

// logPrediction records one engine call in the audit log. Logging failures
// never fail the prediction itself.
func (e *engine) logPrediction(ctx context.Context, m *chem.Mol, stress chem.Stress, operation string, payload interface{}) {
	if e.store == nil {
		return
	}
	id, err := e.upsertCompound(ctx, m)
	if err != nil {
		slog.Warn("registering compound failed (non-fatal)", "operation", operation, "error", err)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("encoding prediction payload failed (non-fatal)", "operation", operation, "error", err)
		return
	}
	if _, err := e.store.LogPrediction(ctx, store.Prediction{
		CompoundID: id,
		Stress:     string(stress),
		Operation:  operation,
		Payload:    string(data),
	}); err != nil {
		slog.Warn("logging prediction failed (non-fatal)", "operation", operation, "error", err)
	}
}
