package chem

// Stress identifies a forced-degradation stress condition. Unrecognized
// values are legal everywhere: every consumer falls back to a documented
// default score, multiplier, or rate rather than failing.
type Stress string

const (
	StressAcid       Stress = "acid"
	StressBase       Stress = "base"
	StressOxidative  Stress = "oxidative"
	StressThermal    Stress = "thermal"
	StressPhotolytic Stress = "photolytic"
)

// KnownStresses lists the recognized stress conditions in canonical order.
func KnownStresses() []Stress {
	return []Stress{StressAcid, StressBase, StressOxidative, StressThermal, StressPhotolytic}
}

// Known reports whether s is one of the recognized stress conditions.
func (s Stress) Known() bool {
	switch s {
	case StressAcid, StressBase, StressOxidative, StressThermal, StressPhotolytic:
		return true
	}
	return false
}
