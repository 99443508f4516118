package rules

import (
	"math"
	"testing"

	"github.com/degkit/degkit/chem"
)

func mustMol(t *testing.T, smiles string) *chem.Mol {
	t.Helper()
	m, err := chem.ParseSMILES(smiles)
	if err != nil {
		t.Fatalf("ParseSMILES(%q): %v", smiles, err)
	}
	return m
}

func canonical(t *testing.T, smiles string) string {
	t.Helper()
	return mustMol(t, smiles).Canonical()
}

func findProduct(products []CandidateProduct, smiles string) (CandidateProduct, bool) {
	for _, p := range products {
		if p.SMILES == smiles {
			return p, true
		}
	}
	return CandidateProduct{}, false
}

func TestPredictProductsEsterHydrolysis(t *testing.T) {
	e := NewEngine(Config{})
	aspirin := mustMol(t, "CC(=O)Oc1ccccc1C(=O)O")

	products := e.PredictProducts(aspirin, chem.StressBase, 0)
	if len(products) != 2 {
		t.Fatalf("len(products) = %d, want 2 (acetic acid + salicylic acid)", len(products))
	}

	acetic, ok := findProduct(products, canonical(t, "CC(=O)O"))
	if !ok {
		t.Fatal("acetic acid not among predicted products")
	}
	if acetic.Omega != 3.0 {
		t.Errorf("acetic acid omega = %v, want 3.0", acetic.Omega)
	}
	if math.Abs(acetic.MolecularWeight-60.05) > 1e-9 {
		t.Errorf("acetic acid MW = %v, want 60.05", acetic.MolecularWeight)
	}
	if acetic.Category != CategoryAcidHydrolysis {
		t.Errorf("acetic acid category = %q, want %q", acetic.Category, CategoryAcidHydrolysis)
	}
	if acetic.RuleApplied != "ester_hydrolysis" {
		t.Errorf("acetic acid rule = %q, want ester_hydrolysis", acetic.RuleApplied)
	}

	salicylic, ok := findProduct(products, canonical(t, "OC(=O)c1ccccc1O"))
	if !ok {
		t.Fatal("salicylic acid not among predicted products")
	}
	if salicylic.Omega != 1.304 {
		t.Errorf("salicylic acid omega = %v, want 1.304", salicylic.Omega)
	}

	for i, p := range products {
		if p.Confidence <= 0 || p.Confidence > 100 {
			t.Errorf("product %d confidence = %v, want in (0,100]", i, p.Confidence)
		}
		if i > 0 && p.Confidence > products[i-1].Confidence {
			t.Errorf("products not sorted by confidence: %v after %v", p.Confidence, products[i-1].Confidence)
		}
	}
}

func TestPredictProductsDecarboxylation(t *testing.T) {
	e := NewEngine(Config{})
	acid := mustMol(t, "CCC(=O)O")

	products := e.PredictProducts(acid, chem.StressThermal, 0)
	if len(products) != 1 {
		t.Fatalf("len(products) = %d, want 1", len(products))
	}
	if products[0].SMILES != canonical(t, "CC") {
		t.Errorf("product = %q, want ethane", products[0].SMILES)
	}
	if products[0].Category != CategoryDecarboxylation {
		t.Errorf("category = %q, want %q", products[0].Category, CategoryDecarboxylation)
	}
	if products[0].Omega != 2.464 {
		t.Errorf("omega = %v, want 2.464", products[0].Omega)
	}
}

func TestPredictProductsSulfideOxidation(t *testing.T) {
	e := NewEngine(Config{})
	sulfide := mustMol(t, "CSC")

	products := e.PredictProducts(sulfide, chem.StressOxidative, 0)
	sulfoxide, ok := findProduct(products, canonical(t, "CS(=O)C"))
	if !ok {
		t.Fatalf("sulfoxide not among predicted products: %+v", products)
	}
	if sulfoxide.Category != CategoryOxidation {
		t.Errorf("category = %q, want %q", sulfoxide.Category, CategoryOxidation)
	}
	// Sulfoxide is heavier than the parent, so omega drops below 1.
	if sulfoxide.Omega >= 1 {
		t.Errorf("omega = %v, want < 1", sulfoxide.Omega)
	}
}

func TestPredictProductsDedupSymmetricSites(t *testing.T) {
	e := NewEngine(Config{})
	benzene := mustMol(t, "c1ccccc1")

	// Every embedding of the ring pattern yields the same phenol; the
	// candidate list must collapse to one entry.
	products := e.PredictProducts(benzene, chem.StressPhotolytic, 0)
	if len(products) != 1 {
		t.Fatalf("len(products) = %d, want 1", len(products))
	}
	if products[0].SMILES != canonical(t, "Oc1ccccc1") {
		t.Errorf("product = %q, want phenol", products[0].SMILES)
	}
	if snap := e.Diagnostics(); snap.DuplicatesMerged == 0 {
		t.Error("DuplicatesMerged = 0, want > 0 for symmetric ring rewrites")
	}
}

func TestPredictProductsMaxProducts(t *testing.T) {
	e := NewEngine(Config{})
	aspirin := mustMol(t, "CC(=O)Oc1ccccc1C(=O)O")

	products := e.PredictProducts(aspirin, chem.StressBase, 1)
	if len(products) != 1 {
		t.Fatalf("len(products) = %d, want 1", len(products))
	}

	// The call cap must not stick to the engine.
	products = e.PredictProducts(aspirin, chem.StressBase, 0)
	if len(products) != 2 {
		t.Errorf("len(products) = %d after capped call, want 2", len(products))
	}
}

func TestPredictProductsNoApplicableRules(t *testing.T) {
	e := NewEngine(Config{})
	benzene := mustMol(t, "c1ccccc1")

	if products := e.PredictProducts(benzene, chem.StressThermal, 0); len(products) != 0 {
		t.Errorf("len(products) = %d, want 0", len(products))
	}
}

func TestScoreStressMultipliers(t *testing.T) {
	aspirin := mustMol(t, "CC(=O)Oc1ccccc1C(=O)O")

	// A self-comparison pins Tanimoto at 1, exposing the bare multiplier.
	tests := []struct {
		stress chem.Stress
		want   float64
	}{
		{chem.StressAcid, 90},
		{chem.StressBase, 95},
		{chem.StressOxidative, 85},
		{chem.StressThermal, 75},
		{chem.StressPhotolytic, 70},
		{chem.Stress("uv"), 80},
	}
	for _, tt := range tests {
		if got := Score(aspirin, aspirin, tt.stress); got != tt.want {
			t.Errorf("Score(self, self, %s) = %v, want %v", tt.stress, got, tt.want)
		}
	}
}

func TestDefaultRulesWellFormed(t *testing.T) {
	for _, r := range DefaultRules() {
		if r.ID == "" || r.Category == "" || r.Description == "" {
			t.Errorf("rule %+v missing identity fields", r)
		}
		if len(r.Conditions) == 0 {
			t.Errorf("rule %s has no stress conditions", r.ID)
		}
		if r.Reactant == nil || len(r.Products) == 0 {
			t.Errorf("rule %s missing patterns", r.ID)
		}
	}
}
