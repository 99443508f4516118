package rules

import "github.com/degkit/degkit/chem"

// Per-stress confidence multipliers. Specific conditions (base hydrolysis of
// an ester) are trusted more than broad ones (photolysis); unlisted stress
// values fall back to defaultStressMultiplier.
var stressMultipliers = map[chem.Stress]float64{
	chem.StressAcid:       0.90,
	chem.StressBase:       0.95,
	chem.StressOxidative:  0.85,
	chem.StressThermal:    0.75,
	chem.StressPhotolytic: 0.70,
}

const defaultStressMultiplier = 0.80

// Score estimates confidence in a predicted product on a 0..100 scale:
// Tanimoto similarity between parent and product fingerprints, scaled by the
// stress multiplier and rounded to one decimal. The scale is a relative
// ranking heuristic, not a calibrated probability.
func Score(parent, product *chem.Mol, stress chem.Stress) float64 {
	sim := chem.Tanimoto(
		parent.Fingerprint(chem.FingerprintRadius),
		product.Fingerprint(chem.FingerprintRadius),
	)
	mult, ok := stressMultipliers[stress]
	if !ok {
		mult = defaultStressMultiplier
	}
	return round(sim*100*mult, 1)
}
