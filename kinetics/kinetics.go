package kinetics

import (
	"math"

	"github.com/degkit/degkit/chem"
)

// Empirical first-order base rate constants, h⁻¹ at 25 °C.
var baseRates = map[chem.Stress]float64{
	chem.StressAcid:       0.01,
	chem.StressBase:       0.015,
	chem.StressOxidative:  0.005,
	chem.StressThermal:    0.002,
	chem.StressPhotolytic: 0.008,
}

const (
	defaultBaseRate  = 0.005
	activationEnergy = 50000 // J/mol, assumed
	gasConstant      = 8.314 // J/(mol·K)
	referenceTempC   = 25.0
)

// Factors is the multiplicative breakdown behind an estimated rate constant.
type Factors struct {
	BaseK                float64 `json:"base_k"`
	SusceptibilityFactor float64 `json:"susceptibility_factor"`
	MWFactor             float64 `json:"mw_factor"`
	TemperatureFactor    float64 `json:"temperature_factor"`
}

// Estimate is a first-order degradation rate estimate with its half-life.
type Estimate struct {
	RateConstant  float64 `json:"rate_constant_k"`
	HalfLifeHours float64 `json:"half_life_hours"`
	HalfLifeDays  float64 `json:"half_life_days"`
	Factors       Factors `json:"factors"`
}

// EstimateKinetics estimates the first-order degradation rate constant under
// the given stress at temperatureC. The estimate scales a per-stress base
// rate by susceptibility, molecular weight, and an Arrhenius temperature
// correction with an assumed activation energy.
func EstimateKinetics(m *chem.Mol, stress chem.Stress, temperatureC float64) Estimate {
	assessment := AssessSusceptibility(m, stress)

	kBase, ok := baseRates[stress]
	if !ok {
		kBase = defaultBaseRate
	}

	suscFactor := 1 + assessment.Score/50

	mwFactor := 1 - (m.Weight()-300)/1000
	if mwFactor < 0.5 {
		mwFactor = 0.5
	}

	tempFactor := 1.0
	if temperatureC != referenceTempC {
		tempFactor = math.Exp((activationEnergy / gasConstant) *
			(1/(referenceTempC+273) - 1/(temperatureC+273)))
	}

	k := kBase * suscFactor * mwFactor * tempFactor
	halfLife := 0.693 / k

	return Estimate{
		RateConstant:  k,
		HalfLifeHours: halfLife,
		HalfLifeDays:  halfLife / 24,
		Factors: Factors{
			BaseK:                kBase,
			SusceptibilityFactor: suscFactor,
			MWFactor:             mwFactor,
			TemperatureFactor:    tempFactor,
		},
	}
}
