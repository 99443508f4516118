package rules

import (
	"math"
	"testing"

	"github.com/degkit/degkit/chem"
)

func TestProjectMassBalance(t *testing.T) {
	e := NewEngine(Config{})
	aspirin := mustMol(t, "CC(=O)Oc1ccccc1C(=O)O")

	mb := e.ProjectMassBalance(aspirin, chem.StressBase, 10)

	if mb.NumProductsPredicted != 2 {
		t.Fatalf("NumProductsPredicted = %d, want 2", mb.NumProductsPredicted)
	}
	if len(mb.MajorProducts) != 2 {
		t.Fatalf("len(MajorProducts) = %d, want 2", len(mb.MajorProducts))
	}
	if mb.DegradationPercent != 10 {
		t.Errorf("DegradationPercent = %v, want 10", mb.DegradationPercent)
	}

	// 10% loss split across two products: 90 + 5*3.0 + 5*1.304 = 111.52.
	if math.Abs(mb.PredictedLkImb-111.52) > 1e-9 {
		t.Errorf("PredictedLkImb = %v, want 111.52", mb.PredictedLkImb)
	}
	if mb.PredictedCimb != mb.PredictedLkImb {
		t.Errorf("PredictedCimb = %v, want %v", mb.PredictedCimb, mb.PredictedLkImb)
	}
	if mb.Note != "" {
		t.Errorf("Note = %q, want empty", mb.Note)
	}
	for _, p := range mb.MajorProducts {
		if p.Pathway == "" || p.Omega <= 0 {
			t.Errorf("major product %+v missing pathway or omega", p)
		}
	}
}

func TestProjectMassBalanceNoProducts(t *testing.T) {
	e := NewEngine(Config{})
	benzene := mustMol(t, "c1ccccc1")

	mb := e.ProjectMassBalance(benzene, chem.StressThermal, 10)

	if mb.NumProductsPredicted != 0 || len(mb.MajorProducts) != 0 {
		t.Fatalf("expected no products, got %+v", mb)
	}
	if mb.PredictedLkImb != 90 || mb.PredictedCimb != 90 {
		t.Errorf("metrics = %v/%v, want 90/90", mb.PredictedLkImb, mb.PredictedCimb)
	}
	if mb.Note == "" {
		t.Error("Note is empty, want explanation")
	}
}

func TestProjectMassBalanceZeroDegradation(t *testing.T) {
	e := NewEngine(Config{})
	aspirin := mustMol(t, "CC(=O)Oc1ccccc1C(=O)O")

	mb := e.ProjectMassBalance(aspirin, chem.StressBase, 0)
	if mb.PredictedLkImb != 100 {
		t.Errorf("PredictedLkImb = %v, want 100 at zero degradation", mb.PredictedLkImb)
	}
}
