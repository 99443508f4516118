// Package gnn integrates an external graph-neural-network scoring service.
// The core engine works without it; when configured, its scores reweight the
// rule engine's structure-similarity confidences.
package gnn

import (
	"context"
	"errors"
	"fmt"

	"github.com/degkit/degkit/chem"
)

// ErrDisabled is returned by the no-op scorer. Callers treat it as "keep the
// rule-based confidence unchanged", not as a failure.
var ErrDisabled = errors.New("gnn: scorer disabled")

// Scorer scores candidate degradation products of a parent structure.
// Scores are in [0,1], one per candidate, in input order.
type Scorer interface {
	ScoreCandidates(ctx context.Context, parent string, candidates []string, stress chem.Stress) ([]float64, error)
}

// Config configures the HTTP scorer.
type Config struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

// New returns an HTTP-backed scorer, or the disabled scorer when no base URL
// is configured.
func New(cfg Config) Scorer {
	if cfg.BaseURL == "" {
		return Disabled()
	}
	return newHTTPScorer(cfg)
}

// Disabled returns a scorer that always reports ErrDisabled.
func Disabled() Scorer {
	return disabledScorer{}
}

type disabledScorer struct{}

func (disabledScorer) ScoreCandidates(context.Context, string, []string, chem.Stress) ([]float64, error) {
	return nil, ErrDisabled
}

// Blend folds a model score into a rule-based confidence. Both inputs stay on
// the 0..100 scale; the model contributes a fixed minority share so a flaky
// service cannot invert the structural ranking.
func Blend(ruleConfidence, modelScore float64) float64 {
	const modelShare = 0.3
	blended := (1-modelShare)*ruleConfidence + modelShare*modelScore*100
	if blended < 0 {
		return 0
	}
	if blended > 100 {
		return 100
	}
	return blended
}

// ValidateScores checks a service response against the request shape.
func ValidateScores(scores []float64, candidates int) error {
	if len(scores) != candidates {
		return fmt.Errorf("gnn: got %d scores for %d candidates", len(scores), candidates)
	}
	for i, s := range scores {
		if s < 0 || s > 1 {
			return fmt.Errorf("gnn: score %d out of range: %v", i, s)
		}
	}
	return nil
}
