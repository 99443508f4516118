package rules

import (
	"math"
	"sort"

	"github.com/degkit/degkit/chem"
	"github.com/degkit/degkit/pattern"
)

// Config tunes the rewrite engine. Zero values select the defaults.
type Config struct {
	// MaxEmbeddings caps pattern embeddings enumerated per rule per call.
	MaxEmbeddings int
	// MaxProducts caps the ranked candidate list returned by PredictProducts.
	MaxProducts int
}

// DefaultMaxProducts is the candidate-list cap when Config.MaxProducts is 0.
const DefaultMaxProducts = 5

// Engine applies the degradation rule registry to parent structures. It is
// safe for concurrent use; the only mutable state is the diagnostics counters.
type Engine struct {
	rules []Rule
	cfg   Config
	diag  Diagnostics
}

// NewEngine returns an engine over the built-in rule registry.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxEmbeddings <= 0 {
		cfg.MaxEmbeddings = pattern.DefaultMaxEmbeddings
	}
	if cfg.MaxProducts <= 0 {
		cfg.MaxProducts = DefaultMaxProducts
	}
	return &Engine{rules: DefaultRules(), cfg: cfg}
}

// CandidateProduct is one predicted degradation product, ranked by confidence.
type CandidateProduct struct {
	SMILES          string  `json:"smiles"`
	MolecularWeight float64 `json:"molecular_weight"`
	Omega           float64 `json:"omega"`
	Pathway         string  `json:"pathway"`
	RuleApplied     string  `json:"rule_applied"`
	Category        string  `json:"category"`
	Confidence      float64 `json:"confidence"`
}

// PredictProducts enumerates degradation products of parent under the given
// stress condition. Every rule selected by the stress is applied at every
// embedding of its reactant pattern, one site at a time. Candidates are
// deduplicated by canonical SMILES keeping the higher-confidence entry,
// sorted by confidence descending, and truncated to maxProducts (the
// configured cap when maxProducts <= 0).
func (e *Engine) PredictProducts(parent *chem.Mol, stress chem.Stress, maxProducts int) []CandidateProduct {
	if maxProducts <= 0 {
		maxProducts = e.cfg.MaxProducts
	}
	out := make([]CandidateProduct, 0, maxProducts)
	index := make(map[string]int)

	for _, r := range e.rules {
		if !r.AppliesTo(stress) {
			continue
		}
		embs, truncated := r.Reactant.FindAll(parent, e.cfg.MaxEmbeddings)
		if truncated {
			e.diag.embeddingCaps.Add(1)
		}
		for _, emb := range embs {
			e.diag.applications.Add(1)
			for _, frag := range e.applyAt(parent, r, emb) {
				if frag.Canonical() == parent.Canonical() {
					continue
				}
				cand := CandidateProduct{
					SMILES:          frag.Canonical(),
					MolecularWeight: round(frag.Weight(), 2),
					Omega:           round(parent.Weight()/frag.Weight(), 3),
					Pathway:         r.Description,
					RuleApplied:     r.ID,
					Category:        r.Category,
					Confidence:      Score(parent, frag, stress),
				}
				if i, dup := index[cand.SMILES]; dup {
					e.diag.duplicateMerges.Add(1)
					if cand.Confidence > out[i].Confidence {
						out[i] = cand
					}
					continue
				}
				index[cand.SMILES] = len(out)
				out = append(out, cand)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if len(out) > maxProducts {
		out = out[:maxProducts]
	}
	return out
}

// Diagnostics returns a snapshot of the engine's counters.
func (e *Engine) Diagnostics() DiagnosticsSnapshot {
	return e.diag.Snapshot()
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
