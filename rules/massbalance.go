package rules

import "github.com/degkit/degkit/chem"

// maxMassBalanceProducts bounds how many candidates enter the projection;
// only the top-confidence products carry meaningful area share.
const maxMassBalanceProducts = 3

// MajorProduct is one product's contribution summary in a mass-balance
// projection.
type MajorProduct struct {
	Pathway    string  `json:"pathway"`
	Omega      float64 `json:"omega"`
	Confidence float64 `json:"confidence"`
}

// MassBalance is the projected assay-level mass balance at a given
// degradation level. PredictedCimb deliberately equals PredictedLkImb: the
// projection approximates the stoichiometric S-factor by omega, which makes
// the two metrics coincide. Downstream consumers treat them as separate
// fields because measured data distinguishes them.
type MassBalance struct {
	PredictedLkImb       float64        `json:"predicted_lk_imb"`
	PredictedCimb        float64        `json:"predicted_cimb"`
	DegradationPercent   float64        `json:"degradation_percent"`
	NumProductsPredicted int            `json:"num_products_predicted"`
	MajorProducts        []MajorProduct `json:"major_products"`
	Note                 string         `json:"note,omitempty"`
}

// ProjectMassBalance projects the expected mass balance for parent under the
// given stress at degradationPercent total parent loss. The loss is split
// equally across the top predicted products; each product's area contribution
// is weighted by its stoichiometric factor omega. With no predicted products
// both metrics collapse to the remaining parent assay.
func (e *Engine) ProjectMassBalance(parent *chem.Mol, stress chem.Stress, degradationPercent float64) MassBalance {
	products := e.PredictProducts(parent, stress, maxMassBalanceProducts)

	if len(products) == 0 {
		remaining := 100 - degradationPercent
		return MassBalance{
			PredictedLkImb:     round(remaining, 2),
			PredictedCimb:      round(remaining, 2),
			DegradationPercent: degradationPercent,
			Note:               "no degradation products predicted",
		}
	}

	perProduct := degradationPercent / float64(len(products))
	contribution := 0.0
	major := make([]MajorProduct, 0, len(products))
	for _, p := range products {
		contribution += perProduct * p.Omega
		major = append(major, MajorProduct{
			Pathway:    p.Pathway,
			Omega:      p.Omega,
			Confidence: p.Confidence,
		})
	}
	lk := (100 - degradationPercent) + contribution

	return MassBalance{
		PredictedLkImb:       round(lk, 2),
		PredictedCimb:        round(lk, 2),
		DegradationPercent:   degradationPercent,
		NumProductsPredicted: len(products),
		MajorProducts:        major,
	}
}
