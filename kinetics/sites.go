// Package kinetics estimates stress-specific degradation susceptibility and
// first-order degradation kinetics from structural features. Scores come from
// fixed rule tables over reactive-site counts, not from a fitted model; they
// rank liabilities rather than predict assay values.
package kinetics

import (
	"github.com/degkit/degkit/chem"
	"github.com/degkit/degkit/pattern"
)

// Reactive-site categories referenced by the susceptibility tables. Counts
// are unique-by-atom-set, so symmetric re-embeddings of one site count once.
var sitePatterns = []struct {
	name string
	pat  *pattern.Pattern
}{
	{"ester", pattern.MustCompile("C(=O)O")},
	{"amide", pattern.MustCompile("C(=O)N")},
	{"lactone", pattern.MustCompile("C1OC(=O)C1")},
	{"lactam", pattern.MustCompile("C1NC(=O)C1")},
	{"secondary_alcohol", pattern.MustCompile("[CH](O)")},
	{"primary_amine", pattern.MustCompile("[CH2]N")},
	{"secondary_amine", pattern.MustCompile("[CH]N")},
	{"thioether", pattern.MustCompile("CSC")},
	{"phenol", pattern.MustCompile("c[OH]")},
	{"aromatic_amine", pattern.MustCompile("cN")},
	{"enone", pattern.MustCompile("C=CC=O")},
	{"aldehyde", pattern.MustCompile("[CH]=O")},
	{"ketone", pattern.MustCompile("CC(=O)C")},
}

// Site reports the occurrences of one reactive-site category.
type Site struct {
	Count       int     `json:"count"`
	AtomIndices [][]int `json:"atom_indices"`
}

// ReactiveSites locates every reactive-site category in the molecule. The
// returned map has an entry for every known category, zero-count included,
// so table lookups never miss.
func ReactiveSites(m *chem.Mol) map[string]Site {
	sites := make(map[string]Site, len(sitePatterns))
	for _, sp := range sitePatterns {
		embs, _ := sp.pat.FindAllUnique(m, 0)
		s := Site{Count: len(embs)}
		if len(embs) > 0 {
			s.AtomIndices = embs
		}
		sites[sp.name] = s
	}
	return sites
}
