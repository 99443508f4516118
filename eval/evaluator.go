package eval

import (
	"context"
	"fmt"
	"time"

	degkit "github.com/degkit/degkit"
	"github.com/degkit/degkit/chem"
	"github.com/degkit/degkit/rules"
)

// CaseResult is the outcome of one benchmark case.
type CaseResult struct {
	Name       string   `json:"name"`
	Passed     bool     `json:"passed"`
	Candidates int      `json:"candidates"`
	Issues     []string `json:"issues,omitempty"`
	ElapsedMs  int64    `json:"elapsed_ms"`
}

// Report aggregates the results of one dataset run.
type Report struct {
	Dataset string       `json:"dataset"`
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Cases   []CaseResult `json:"cases"`
}

// Evaluator runs benchmark datasets against an engine.
type Evaluator struct {
	engine degkit.Engine
}

// New creates an evaluator.
func New(engine degkit.Engine) *Evaluator {
	return &Evaluator{engine: engine}
}

// Run executes every case in the dataset and reports pass/fail per case.
// A case passes when the prediction and susceptibility checks it declares
// all hold.
func (e *Evaluator) Run(ctx context.Context, ds Dataset) (*Report, error) {
	report := &Report{Dataset: ds.Name, Total: len(ds.Tests)}
	for _, tc := range ds.Tests {
		result, err := e.runCase(ctx, tc)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", tc.Name, err)
		}
		if result.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Cases = append(report.Cases, *result)
	}
	return report, nil
}

func (e *Evaluator) runCase(ctx context.Context, tc TestCase) (*CaseResult, error) {
	start := time.Now()
	result := &CaseResult{Name: tc.Name}

	products, err := e.engine.PredictProducts(ctx, tc.SMILES, chem.Stress(tc.Stress))
	if err != nil {
		return nil, err
	}
	result.Candidates = len(products)

	if len(products) < tc.MinCandidates {
		result.Issues = append(result.Issues,
			fmt.Sprintf("expected at least %d candidates, got %d", tc.MinCandidates, len(products)))
	}

	if tc.ExpectedCategory != "" && !hasCategory(products, tc.ExpectedCategory) {
		result.Issues = append(result.Issues,
			fmt.Sprintf("no candidate with category %q", tc.ExpectedCategory))
	}

	if tc.ExpectedProduct != "" {
		want, err := canonical(tc.ExpectedProduct)
		if err != nil {
			return nil, fmt.Errorf("expected product: %w", err)
		}
		found := false
		for _, p := range products {
			if p.SMILES == want {
				found = true
				break
			}
		}
		if !found {
			result.Issues = append(result.Issues,
				fmt.Sprintf("expected product %q not predicted", want))
		}
	}

	for _, p := range products {
		if p.Confidence < 0 || p.Confidence > 100 {
			result.Issues = append(result.Issues,
				fmt.Sprintf("confidence out of range for %q: %v", p.SMILES, p.Confidence))
		}
		if p.Omega <= 0 {
			result.Issues = append(result.Issues,
				fmt.Sprintf("non-positive omega for %q: %v", p.SMILES, p.Omega))
		}
	}

	if tc.ExpectedLevel != "" || tc.MinSusceptible > 0 {
		analysis, err := e.engine.AnalyzeStructure(ctx, tc.SMILES, chem.Stress(tc.Stress))
		if err != nil {
			return nil, err
		}
		susc := analysis.DegradationSusceptibility
		if tc.ExpectedLevel != "" && susc.Level != tc.ExpectedLevel {
			result.Issues = append(result.Issues,
				fmt.Sprintf("expected level %s, got %s (score %v)", tc.ExpectedLevel, susc.Level, susc.Score))
		}
		if susc.Score < tc.MinSusceptible {
			result.Issues = append(result.Issues,
				fmt.Sprintf("expected susceptibility >= %v, got %v", tc.MinSusceptible, susc.Score))
		}
	}

	result.Passed = len(result.Issues) == 0
	result.ElapsedMs = time.Since(start).Milliseconds()
	return result, nil
}

func hasCategory(products []rules.CandidateProduct, category string) bool {
	for _, p := range products {
		if p.Category == category {
			return true
		}
	}
	return false
}

func canonical(smiles string) (string, error) {
	m, err := chem.ParseSMILES(smiles)
	if err != nil {
		return "", err
	}
	return m.Canonical(), nil
}
