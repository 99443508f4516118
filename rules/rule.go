// Package rules implements the graph-rewrite transformation rule engine:
// enumerating plausible degradation products of a parent structure, scoring
// them against the parent, and projecting assay-level mass balance.
package rules

import (
	"fmt"
	"strings"

	"github.com/degkit/degkit/chem"
	"github.com/degkit/degkit/pattern"
)

// Rule is one immutable transformation rule: a reactant pattern, the product
// templates it rewrites to, and the stress conditions it applies under.
// The full rule set is process-wide static state built once at startup.
type Rule struct {
	ID          string
	Category    string
	Description string
	Conditions  []chem.Stress
	Reactant    *pattern.Pattern
	Products    []*pattern.Pattern
}

// AppliesTo reports whether the rule is selected under the given stress
// condition (exact membership, no fallback).
func (r Rule) AppliesTo(s chem.Stress) bool {
	for _, c := range r.Conditions {
		if c == s {
			return true
		}
	}
	return false
}

// Rule categories.
const (
	CategoryAcidHydrolysis  = "acid_hydrolysis"
	CategoryOxidation       = "oxidation"
	CategoryDecarboxylation = "decarboxylation"
	CategoryPhotolysis      = "photolysis"
)

var defaultRules = buildDefaultRules()

// DefaultRules returns the built-in degradation rule registry. The returned
// slice is shared, read-only state; callers must not modify it.
func DefaultRules() []Rule {
	return defaultRules
}

func buildDefaultRules() []Rule {
	return []Rule{
		mustRule("ester_hydrolysis", CategoryAcidHydrolysis,
			"Ester hydrolysis to carboxylic acid + alcohol",
			"[C,c:1](=[O:2])[O:3][C,c:4]>>[C,c:1](=[O:2])[O].[C,c:4][O:3]",
			chem.StressAcid, chem.StressBase),
		mustRule("amide_hydrolysis", CategoryAcidHydrolysis,
			"Amide hydrolysis to carboxylic acid + amine",
			"[C,c:1](=[O:2])[N:3][C,c:4]>>[C,c:1](=[O:2])[O].[C,c:4][N:3]",
			chem.StressAcid, chem.StressBase),
		mustRule("lactone_opening", CategoryAcidHydrolysis,
			"Lactone ring opening",
			"[C,c:1](=[O:2])[O:3][C,c:4]>>[C,c:1](=[O:2])[O].[C,c:4][O:3]",
			chem.StressAcid, chem.StressBase),
		mustRule("alcohol_oxidation", CategoryOxidation,
			"Primary alcohol to aldehyde",
			"[C:1][CH2:2][OH:3]>>[C:1][C:2]=[O:3]",
			chem.StressOxidative),
		mustRule("secondary_alcohol_oxidation", CategoryOxidation,
			"Secondary alcohol to ketone",
			"[C:1][CH:2]([OH:3])[C:4]>>[C:1][C:2](=[O:3])[C:4]",
			chem.StressOxidative),
		mustRule("sulfide_oxidation", CategoryOxidation,
			"Sulfide to sulfoxide",
			"[C:1][S:2][C:3]>>[C:1][S:2](=[O])[C:3]",
			chem.StressOxidative),
		mustRule("amine_oxidation", CategoryOxidation,
			"Primary amine N-oxidation",
			"[C:1][NH2:2]>>[C:1][N:2]=[O]",
			chem.StressOxidative),
		mustRule("carboxylic_acid_loss", CategoryDecarboxylation,
			"Decarboxylation (loss of CO2)",
			"[C:1][C:2](=[O:3])[OH:4]>>[C:1]",
			chem.StressThermal, chem.StressPhotolytic),
		mustRule("aromatic_hydroxylation", CategoryPhotolysis,
			"Aromatic hydroxylation",
			"[cH:1]1[c:2][c:3][c:4][c:5][c:6]1>>[c:1]1([O])[c:2][c:3][c:4][c:5][c:6]1",
			chem.StressPhotolytic, chem.StressOxidative),
	}
}

// mustRule compiles a "reactant>>products" expression into a Rule. The
// registry is static data; a malformed entry is a programming error, so this
// panics like regexp.MustCompile.
func mustRule(id, category, description, smirks string, conditions ...chem.Stress) Rule {
	parts := strings.SplitN(smirks, ">>", 2)
	if len(parts) != 2 {
		panic(fmt.Sprintf("rules: rule %s: missing '>>' in %q", id, smirks))
	}
	reactant, err := pattern.Compile(parts[0])
	if err != nil {
		panic(fmt.Sprintf("rules: rule %s: %v", id, err))
	}
	products, err := pattern.CompileFragments(parts[1])
	if err != nil {
		panic(fmt.Sprintf("rules: rule %s: %v", id, err))
	}
	if len(conditions) == 0 {
		panic(fmt.Sprintf("rules: rule %s: empty condition set", id))
	}

	// Every reactant atom must carry a unique map so the rewrite is
	// well defined, and product maps must refer back to reactant atoms.
	seen := make(map[int]bool)
	for i, a := range reactant.Atoms {
		if a.Map <= 0 {
			panic(fmt.Sprintf("rules: rule %s: reactant atom %d is unmapped", id, i))
		}
		if seen[a.Map] {
			panic(fmt.Sprintf("rules: rule %s: duplicate atom map %d", id, a.Map))
		}
		seen[a.Map] = true
	}
	for _, pt := range products {
		for i, a := range pt.Atoms {
			if a.Map > 0 && !seen[a.Map] {
				panic(fmt.Sprintf("rules: rule %s: product atom %d maps to unknown atom %d", id, i, a.Map))
			}
		}
	}

	return Rule{
		ID:          id,
		Category:    category,
		Description: description,
		Conditions:  conditions,
		Reactant:    reactant,
		Products:    products,
	}
}
