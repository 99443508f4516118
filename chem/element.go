package chem

import "math"

// Element data for the organic subset this engine handles. Average atomic
// masses; monoisotopic masses are not needed for stoichiometric factors.
var atomicNumbers = map[string]int{
	"H": 1, "B": 5, "C": 6, "N": 7, "O": 8, "F": 9,
	"P": 15, "S": 16, "Cl": 17, "Br": 35, "I": 53,
}

var atomicMasses = map[string]float64{
	"H": 1.008, "B": 10.811, "C": 12.011, "N": 14.007, "O": 15.999,
	"F": 18.998, "P": 30.974, "S": 32.066, "Cl": 35.453, "Br": 79.904,
	"I": 126.904,
}

// defaultValences lists the allowed total valences per neutral element,
// smallest first. Multi-valent elements (P, S) pick the smallest that fits.
var defaultValences = map[string][]int{
	"H": {1}, "B": {3}, "C": {4}, "N": {3}, "O": {2},
	"P": {3, 5}, "S": {2, 4, 6},
	"F": {1}, "Cl": {1}, "Br": {1}, "I": {1},
}

// organicSubset holds the elements that may be written without brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// aromaticSymbols maps lowercase SMILES aromatic symbols to element symbols.
var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S",
}

// allowedValences returns the valence targets for an element adjusted for a
// formal charge. Heteroatom cations gain a bonding slot (N+ is tetravalent),
// anions and charged carbons lose one.
func allowedValences(symbol string, charge int) []int {
	base, ok := defaultValences[symbol]
	if !ok {
		return nil
	}
	if charge == 0 {
		return base
	}
	hetero := symbol == "N" || symbol == "O" || symbol == "P" || symbol == "S"
	out := make([]int, 0, len(base))
	for _, v := range base {
		adj := v
		if hetero {
			adj = v + charge
		} else {
			adj = v - abs(charge)
		}
		if adj >= 0 {
			out = append(out, adj)
		}
	}
	return out
}

// ImplicitHydrogens computes the implicit hydrogen count for an atom given
// the sum of its bond orders (aromatic bonds count 1.5). Returns false when
// no allowed valence can accommodate the bonding.
func ImplicitHydrogens(symbol string, charge int, aromatic bool, bondOrderSum float64) (int, bool) {
	for _, v := range allowedValences(symbol, charge) {
		d := float64(v) - bondOrderSum
		if d > -0.55 {
			h := int(math.Round(d))
			if h < 0 {
				h = 0
			}
			return h, true
		}
	}
	return 0, false
}

// valenceOK reports whether bondOrderSum plus the declared hydrogen count is
// consistent with some allowed valence. Aliphatic sums are integral and
// checked exactly; aromatic atoms get slack for fused systems and bracket
// forms like [nH], where the writer's hydrogen count is authoritative.
func valenceOK(symbol string, charge int, aromatic bool, hcount int, bondOrderSum float64) bool {
	total := bondOrderSum + float64(hcount)
	for _, v := range allowedValences(symbol, charge) {
		if aromatic {
			if total >= float64(v)-0.55 && total <= float64(v)+1.05 {
				return true
			}
			continue
		}
		if math.Abs(total-float64(v)) < 0.01 {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
