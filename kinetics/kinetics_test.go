package kinetics

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

func TestReactiveSites(t *testing.T) {
	aspirin := mustMol(t, "CC(=O)Oc1ccccc1C(=O)O")
	sites := ReactiveSites(aspirin)

	// Every category is reported, matched or not.
	for _, name := range []string{
		"ester", "amide", "lactone", "lactam", "secondary_alcohol",
		"primary_amine", "secondary_amine", "thioether", "phenol",
		"aromatic_amine", "enone", "aldehyde", "ketone",
	} {
		if _, ok := sites[name]; !ok {
			t.Errorf("site category %q missing from report", name)
		}
	}

	// The carboxyl group matches the ester-shaped pattern too.
	if got := sites["ester"].Count; got != 2 {
		t.Errorf("ester count = %d, want 2", got)
	}
	if got := sites["amide"].Count; got != 0 {
		t.Errorf("amide count = %d, want 0", got)
	}
	if got := len(sites["ester"].AtomIndices); got != 2 {
		t.Errorf("len(ester atom indices) = %d, want 2", got)
	}
}

func TestReactiveSitesByStructure(t *testing.T) {
	tests := []struct {
		smiles string
		site   string
		want   int
	}{
		{"CSC", "thioether", 1},
		{"CC(O)C", "secondary_alcohol", 1},
		{"Nc1ccccc1", "aromatic_amine", 1},
		{"Oc1ccccc1", "phenol", 1},
		{"CC(=O)C", "ketone", 1},
		{"CC=O", "aldehyde", 1},
		{"C=CC=O", "enone", 1},
		{"CCN", "primary_amine", 1},
		{"CC(C)NC", "secondary_amine", 1},
		{"CN(C)C", "secondary_amine", 0},
	}
	for _, tt := range tests {
		sites := ReactiveSites(mustMol(t, tt.smiles))
		if got := sites[tt.site].Count; got != tt.want {
			t.Errorf("%q %s count = %d, want %d", tt.smiles, tt.site, got, tt.want)
		}
	}
}

func TestAssessSusceptibility(t *testing.T) {
	tests := []struct {
		name   string
		smiles string
		stress chem.Stress
		score  float64
		level  string
	}{
		// Two ester-shaped sites: acid 15*2, base 35*2.
		{"aspirin acid", "CC(=O)Oc1ccccc1C(=O)O", chem.StressAcid, 30, LevelLow},
		{"aspirin base", "CC(=O)Oc1ccccc1C(=O)O", chem.StressBase, 70, LevelModerate},
		{"sulfide oxidative", "CSC", chem.StressOxidative, 40, LevelLow},
		{"benzene photolytic", "c1ccccc1", chem.StressPhotolytic, 30, LevelLow},
		{"aniline oxidative", "Nc1ccccc1", chem.StressOxidative, 30, LevelLow},
		{"aniline photolytic", "Nc1ccccc1", chem.StressPhotolytic, 55, LevelModerate},
		{"benzene thermal", "c1ccccc1", chem.StressThermal, 0, LevelLow},
		{"unknown stress", "CCO", chem.Stress("uv"), 50, LevelModerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AssessSusceptibility(mustMol(t, tt.smiles), tt.stress)
			if a.Score != tt.score {
				t.Errorf("Score = %v, want %v", a.Score, tt.score)
			}
			if a.Level != tt.level {
				t.Errorf("Level = %q, want %q", a.Level, tt.level)
			}
			if a.Score != 0 && len(a.Reasons) == 0 {
				t.Error("nonzero score with no reasons")
			}
			if a.ReactiveSites == nil {
				t.Error("ReactiveSites is nil")
			}
		})
	}
}

func TestAssessSusceptibilityClamp(t *testing.T) {
	// Methylamine under acid: no labile sites, one nitrogen. The protective
	// term must not push the score below zero.
	a := AssessSusceptibility(mustMol(t, "CN"), chem.StressAcid)
	if a.Score != 0 {
		t.Errorf("Score = %v, want 0 (clamped)", a.Score)
	}
	if a.Level != LevelLow {
		t.Errorf("Level = %q, want %q", a.Level, LevelLow)
	}
}

func TestEstimateKinetics(t *testing.T) {
	aspirin := mustMol(t, "CC(=O)Oc1ccccc1C(=O)O")
	est := EstimateKinetics(aspirin, chem.StressAcid, 25)

	if est.Factors.BaseK != 0.01 {
		t.Errorf("BaseK = %v, want 0.01", est.Factors.BaseK)
	}
	// Susceptibility 30 -> 1 + 30/50.
	if est.Factors.SusceptibilityFactor != 1.6 {
		t.Errorf("SusceptibilityFactor = %v, want 1.6", est.Factors.SusceptibilityFactor)
	}
	if est.Factors.TemperatureFactor != 1.0 {
		t.Errorf("TemperatureFactor = %v, want 1.0 at 25°C", est.Factors.TemperatureFactor)
	}
	wantMW := 1 - (aspirin.Weight()-300)/1000
	if math.Abs(est.Factors.MWFactor-wantMW) > 1e-9 {
		t.Errorf("MWFactor = %v, want %v", est.Factors.MWFactor, wantMW)
	}

	wantK := 0.01 * 1.6 * wantMW
	if math.Abs(est.RateConstant-wantK) > 1e-12 {
		t.Errorf("RateConstant = %v, want %v", est.RateConstant, wantK)
	}
	if math.Abs(est.HalfLifeHours-0.693/wantK) > 1e-9 {
		t.Errorf("HalfLifeHours = %v, want %v", est.HalfLifeHours, 0.693/wantK)
	}
	if math.Abs(est.HalfLifeDays-est.HalfLifeHours/24) > 1e-12 {
		t.Errorf("HalfLifeDays = %v, want hours/24", est.HalfLifeDays)
	}
}

func TestEstimateKineticsTemperature(t *testing.T) {
	m := mustMol(t, "CCO")
	cold := EstimateKinetics(m, chem.StressThermal, 25)
	hot := EstimateKinetics(m, chem.StressThermal, 60)

	if hot.Factors.TemperatureFactor <= 1 {
		t.Errorf("TemperatureFactor at 60°C = %v, want > 1", hot.Factors.TemperatureFactor)
	}
	if hot.RateConstant <= cold.RateConstant {
		t.Errorf("rate at 60°C (%v) not above rate at 25°C (%v)", hot.RateConstant, cold.RateConstant)
	}
	if hot.HalfLifeHours >= cold.HalfLifeHours {
		t.Errorf("half-life at 60°C (%v) not below 25°C (%v)", hot.HalfLifeHours, cold.HalfLifeHours)
	}
}

func TestEstimateKineticsMWFloor(t *testing.T) {
	// A light molecule raises the factor above 1; the floor only binds for
	// very heavy structures, so check the formula directly here.
	m := mustMol(t, "C")
	est := EstimateKinetics(m, chem.StressAcid, 25)
	want := 1 - (m.Weight()-300)/1000
	if math.Abs(est.Factors.MWFactor-want) > 1e-9 {
		t.Errorf("MWFactor = %v, want %v", est.Factors.MWFactor, want)
	}
}

func TestEstimateKineticsUnknownStress(t *testing.T) {
	est := EstimateKinetics(mustMol(t, "CCO"), chem.Stress("uv"), 25)
	if est.Factors.BaseK != 0.005 {
		t.Errorf("BaseK = %v, want default 0.005", est.Factors.BaseK)
	}
	// Unknown stress scores 50 -> factor 2.
	if est.Factors.SusceptibilityFactor != 2 {
		t.Errorf("SusceptibilityFactor = %v, want 2", est.Factors.SusceptibilityFactor)
	}
}
