// Package eval benchmarks the degradation engine against compounds with
// well-characterized forced-degradation behavior.
package eval

// Dataset is a collection of benchmark cases.
type Dataset struct {
	Name  string     `json:"name"`
	Tests []TestCase `json:"tests"`
}

// TestCase defines one benchmark compound/stress pair and the behavior the
// engine is expected to reproduce.
type TestCase struct {
	Name             string  `json:"name"`
	SMILES           string  `json:"smiles"`
	Stress           string  `json:"stress"`
	MinCandidates    int     `json:"min_candidates"`
	ExpectedCategory string  `json:"expected_category,omitempty"`
	ExpectedProduct  string  `json:"expected_product,omitempty"` // canonical SMILES
	ExpectedLevel    string  `json:"expected_level,omitempty"`
	MinSusceptible   float64 `json:"min_susceptibility,omitempty"`
	Explanation      string  `json:"explanation"`
}

// HydrolysisDataset covers acid/base ester and amide cleavage.
func HydrolysisDataset() Dataset {
	return Dataset{
		Name: "Hydrolysis - ester and amide cleavage",
		Tests: []TestCase{
			{
				Name:             "aspirin base hydrolysis",
				SMILES:           "CC(=O)Oc1ccccc1C(=O)O",
				Stress:           "base",
				MinCandidates:    1,
				ExpectedCategory: "acid_hydrolysis",
				ExpectedLevel:    "MODERATE",
				MinSusceptible:   70,
				Explanation:      "Acetyl ester cleaves to salicylic acid and acetic acid; two ester-pattern sites score 35*2.",
			},
			{
				Name:             "aspirin acid hydrolysis",
				SMILES:           "CC(=O)Oc1ccccc1C(=O)O",
				Stress:           "acid",
				MinCandidates:    1,
				ExpectedCategory: "acid_hydrolysis",
				ExpectedLevel:    "LOW",
				Explanation:      "Same cleavage, slower under acid; ester contribution caps at 15*2.",
			},
			{
				Name:             "ethyl acetate base hydrolysis",
				SMILES:           "CCOC(C)=O",
				Stress:           "base",
				MinCandidates:    1,
				ExpectedCategory: "acid_hydrolysis",
				ExpectedProduct:  "CC(=O)O",
				Explanation:      "Simple ester saponification to acetic acid and ethanol.",
			},
			{
				Name:             "acetanilide acid hydrolysis",
				SMILES:           "CC(=O)Nc1ccccc1",
				Stress:           "acid",
				MinCandidates:    1,
				ExpectedCategory: "acid_hydrolysis",
				Explanation:      "Amide cleaves to acetic acid and aniline.",
			},
		},
	}
}

// OxidationDataset covers sulfide, alcohol, and amine oxidation.
func OxidationDataset() Dataset {
	return Dataset{
		Name: "Oxidation - heteroatom and alcohol oxidation",
		Tests: []TestCase{
			{
				Name:             "dimethyl sulfide oxidation",
				SMILES:           "CSC",
				Stress:           "oxidative",
				MinCandidates:    1,
				ExpectedCategory: "oxidation",
				ExpectedLevel:    "LOW",
				MinSusceptible:   40,
				Explanation:      "Thioether to sulfoxide; one sulfide site scores 40.",
			},
			{
				Name:             "propanol oxidation",
				SMILES:           "CCCO",
				Stress:           "oxidative",
				MinCandidates:    1,
				ExpectedCategory: "oxidation",
				Explanation:      "Primary alcohol to propanal.",
			},
			{
				Name:             "isopropanol oxidation",
				SMILES:           "CC(O)C",
				Stress:           "oxidative",
				MinCandidates:    1,
				ExpectedCategory: "oxidation",
				ExpectedProduct:  "CC(C)=O",
				Explanation:      "Secondary alcohol to acetone.",
			},
		},
	}
}

// PhotolyticThermalDataset covers decarboxylation and aromatic photochemistry.
func PhotolyticThermalDataset() Dataset {
	return Dataset{
		Name: "Photolytic/Thermal - decarboxylation and hydroxylation",
		Tests: []TestCase{
			{
				Name:             "benzene photohydroxylation",
				SMILES:           "c1ccccc1",
				Stress:           "photolytic",
				MinCandidates:    1,
				ExpectedCategory: "photolysis",
				ExpectedLevel:    "LOW",
				Explanation:      "Single aromatic ring picks up a hydroxyl; one ring scores 30.",
			},
			{
				Name:             "propionic acid decarboxylation",
				SMILES:           "CCC(=O)O",
				Stress:           "thermal",
				MinCandidates:    1,
				ExpectedCategory: "decarboxylation",
				Explanation:      "Thermal loss of CO2 leaves ethane.",
			},
			{
				Name:          "benzene thermal stability",
				SMILES:        "c1ccccc1",
				Stress:        "thermal",
				MinCandidates: 0,
				ExpectedLevel: "LOW",
				Explanation:   "No thermally labile groups; no products expected.",
			},
		},
	}
}

// AllDatasets returns every benchmark dataset in a fixed order.
func AllDatasets() []Dataset {
	return []Dataset{
		HydrolysisDataset(),
		OxidationDataset(),
		PhotolyticThermalDataset(),
	}
}
