// Package bayes implements the Normal-Normal conjugate update used to fuse a
// model-derived or historical prior with freshly measured data. Variances are
// treated as known, approximated by the supplied sample values.
package bayes

import "math"

const (
	// varianceFloor replaces non-positive variances so a degenerate input
	// (std = 0 from a single measurement, or a sentinel negative) yields a
	// near-certain estimate instead of a division error.
	varianceFloor = 1e-6

	// defaultSampleCount assumes triplicate measurement when n is absent.
	defaultSampleCount = 3

	z95 = 1.96
)

// Posterior is the result of one conjugate update. PriorWeight and DataWeight
// are the precision shares of the two inputs; they sum to 1.
type Posterior struct {
	Mean               float64    `json:"posterior_mean"`
	Std                float64    `json:"posterior_std"`
	CredibleInterval95 [2]float64 `json:"credible_interval_95"`
	PriorWeight        float64    `json:"prior_weight"`
	DataWeight         float64    `json:"data_weight"`
}

// Update combines a Gaussian prior with observed data under the Normal-Normal
// model. dataStd is the standard deviation of individual observations; the
// likelihood precision scales with the sample count n (n < 1 selects the
// default of 3). Non-positive standard deviations are floored, never rejected.
func Update(priorMean, priorStd, dataMean, dataStd float64, n int) Posterior {
	if n < 1 {
		n = defaultSampleCount
	}

	priorPrecision := 1 / flooredVariance(priorStd)
	dataPrecision := float64(n) / flooredVariance(dataStd)

	posteriorPrecision := priorPrecision + dataPrecision
	std := math.Sqrt(1 / posteriorPrecision)
	mean := (priorPrecision*priorMean + dataPrecision*dataMean) / posteriorPrecision

	return Posterior{
		Mean:               mean,
		Std:                std,
		CredibleInterval95: [2]float64{mean - z95*std, mean + z95*std},
		PriorWeight:        priorPrecision / posteriorPrecision,
		DataWeight:         dataPrecision / posteriorPrecision,
	}
}

func flooredVariance(std float64) float64 {
	if std <= 0 {
		return varianceFloor
	}
	return std * std
}
