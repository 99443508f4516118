package kinetics

import (
	"fmt"

	"github.com/degkit/degkit/chem"
)

// Susceptibility levels.
const (
	LevelHigh     = "HIGH"
	LevelModerate = "MODERATE"
	LevelLow      = "LOW"
)

// Assessment is a stress-specific susceptibility score with the structural
// reasoning behind it.
type Assessment struct {
	Score         float64         `json:"susceptibility_score"`
	Level         string          `json:"level"`
	Reasons       []string        `json:"reasons"`
	ReactiveSites map[string]Site `json:"reactive_sites"`
}

// AssessSusceptibility scores how prone the molecule is to degradation under
// the given stress condition on a 0..100 scale. Each stress has its own
// additive table over reactive-site counts; protective features subtract.
// An unrecognized stress scores a flat 50.
func AssessSusceptibility(m *chem.Mol, stress chem.Stress) Assessment {
	desc := m.Descriptors()
	sites := ReactiveSites(m)

	score := 0.0
	var reasons []string
	add := func(delta float64, format string, args ...interface{}) {
		score += delta
		reasons = append(reasons, fmt.Sprintf(format, args...))
	}

	switch stress {
	case chem.StressAcid:
		if n := sites["amide"].Count; n > 0 {
			add(25*capped(n, 3), "%d amide bond(s), acid labile", n)
		}
		if n := sites["lactam"].Count; n > 0 {
			add(20*float64(n), "%d lactam(s), prone to ring opening", n)
		}
		if n := sites["ester"].Count; n > 0 {
			add(15*capped(n, 2), "%d ester(s), acid hydrolysis", n)
		}
		if desc.Nitrogens > 0 {
			add(-10, "basic nitrogens, somewhat protective")
		}
	case chem.StressBase:
		if n := sites["ester"].Count; n > 0 {
			add(35*capped(n, 3), "%d ester(s), base hydrolysis", n)
		}
		if n := sites["lactone"].Count; n > 0 {
			add(30*float64(n), "%d lactone(s), base-catalyzed opening", n)
		}
		if n := sites["phenol"].Count; n > 0 {
			add(10*float64(n), "%d phenol(s), can undergo oxidation", n)
		}
	case chem.StressOxidative:
		if n := sites["thioether"].Count; n > 0 {
			add(40*float64(n), "%d sulfide(s), easily oxidized", n)
		}
		if n := sites["secondary_alcohol"].Count; n > 0 {
			add(25*capped(n, 2), "%d alcohol(s), oxidation to ketone", n)
		}
		if n := sites["primary_amine"].Count + sites["secondary_amine"].Count; n > 0 {
			add(20*capped(n, 2), "%d amine(s), N-oxidation", n)
		}
		if n := sites["aromatic_amine"].Count; n > 0 {
			add(30*float64(n), "%d aromatic amine(s), highly susceptible", n)
		}
	case chem.StressThermal:
		if n := sites["lactam"].Count; n > 0 {
			add(25*float64(n), "lactam(s) present, thermal ring opening")
		}
		if desc.MolecularWeight > 500 {
			add(20, "high molecular weight, increased thermal lability")
		}
		if desc.RotatableBonds > 5 {
			add(15, "high conformational flexibility")
		}
	case chem.StressPhotolytic:
		if n := desc.AromaticRings; n > 0 {
			add(30*capped(n, 3), "%d aromatic ring(s), UV absorption", n)
		}
		if n := sites["enone"].Count; n > 0 {
			add(35*float64(n), "%d conjugated enone(s), photoreactive", n)
		}
		if n := sites["aromatic_amine"].Count; n > 0 {
			add(25*float64(n), "aromatic amine(s), photosensitive")
		}
	default:
		score = 50
		reasons = []string{"unknown stress type, default moderate susceptibility"}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Assessment{
		Score:         score,
		Level:         levelFor(score),
		Reasons:       reasons,
		ReactiveSites: sites,
	}
}

func levelFor(score float64) string {
	switch {
	case score > 70:
		return LevelHigh
	case score > 40:
		return LevelModerate
	default:
		return LevelLow
	}
}

func capped(n, max int) float64 {
	if n > max {
		n = max
	}
	return float64(n)
}
