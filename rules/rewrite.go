package rules

import (
	"github.com/degkit/degkit/chem"
	"github.com/degkit/degkit/pattern"
)

// applyAt rewrites the molecule at a single embedding of the rule's reactant
// pattern and returns the sanitized product fragments. Rules are applied one
// site at a time; simultaneous multi-site rewrites are never combined.
// Fragments that fail sanitization are dropped and counted in diagnostics.
func (e *Engine) applyAt(m *chem.Mol, r Rule, emb []int) []*chem.Mol {
	atoms := m.Atoms()
	bonds := make(map[[2]int]chem.Bond, m.NumBonds())
	for _, b := range m.Bonds() {
		bonds[pairKey(b.A, b.B)] = b
	}

	// Atom-map number -> parent graph atom index for this embedding.
	graphOf := make(map[int]int)
	for mapNo, pi := range r.Reactant.MapTable() {
		graphOf[mapNo] = emb[pi]
	}

	prodMaps := make(map[int]bool)
	prodBondKind := make(map[[2]int]int) // normalized map pair -> bond kind
	for _, pt := range r.Products {
		for _, a := range pt.Atoms {
			if a.Map > 0 {
				prodMaps[a.Map] = true
			}
		}
		for _, tb := range pt.Bonds {
			ma, mb := pt.Atoms[tb.A].Map, pt.Atoms[tb.B].Map
			if ma > 0 && mb > 0 {
				prodBondKind[pairKey(ma, mb)] = tb.Kind
			}
		}
	}

	changed := make(map[int]bool)
	deleted := make(map[int]bool)
	fixedH := make(map[int]bool)

	// Reconcile bonds between mapped atoms: delete the ones the product side
	// drops, retype the ones it rewrites. Default-kind product bonds keep the
	// parent bond untouched.
	for _, rb := range r.Reactant.Bonds {
		ma := r.Reactant.Atoms[rb.A].Map
		mb := r.Reactant.Atoms[rb.B].Map
		ga, gb := graphOf[ma], graphOf[mb]
		key := pairKey(ga, gb)
		kind, kept := prodBondKind[pairKey(ma, mb)]
		if !kept {
			delete(bonds, key)
			changed[ga], changed[gb] = true, true
			continue
		}
		if kind == pattern.BondDefault {
			continue
		}
		old := bonds[key]
		order, aromatic := bondFromKind(kind, atoms[ga], atoms[gb])
		if old.Order != order || old.Aromatic != aromatic {
			old.Order, old.Aromatic = order, aromatic
			bonds[key] = old
			changed[ga], changed[gb] = true, true
		}
	}

	// Mapped atoms absent from every product fragment are removed outright.
	for mapNo, ga := range graphOf {
		if prodMaps[mapNo] {
			continue
		}
		deleted[ga] = true
		for key, b := range bonds {
			if b.A == ga || b.B == ga {
				delete(bonds, key)
				other := b.A
				if other == ga {
					other = b.B
				}
				changed[other] = true
			}
		}
	}

	// Materialize new atoms and the bonds the product templates introduce.
	for _, pt := range r.Products {
		loc := make([]int, len(pt.Atoms))
		for ti, ta := range pt.Atoms {
			if ta.Map > 0 {
				gi := graphOf[ta.Map]
				loc[ti] = gi
				if ta.Charge != nil && atoms[gi].Charge != *ta.Charge {
					atoms[gi].Charge = *ta.Charge
					changed[gi] = true
				}
				continue
			}
			alt := ta.Alts[0]
			na := chem.Atom{Symbol: alt.Symbol, Aromatic: alt.Aromatic}
			if ta.Charge != nil {
				na.Charge = *ta.Charge
			}
			if ta.HCount != nil {
				na.HCount = *ta.HCount
			}
			idx := len(atoms)
			atoms = append(atoms, na)
			loc[ti] = idx
			if ta.HCount != nil {
				fixedH[idx] = true
			} else {
				changed[idx] = true
			}
		}
		for _, tb := range pt.Bonds {
			ga, gb := loc[tb.A], loc[tb.B]
			key := pairKey(ga, gb)
			if _, exists := bonds[key]; exists {
				continue
			}
			order, aromatic := bondFromKind(tb.Kind, atoms[ga], atoms[gb])
			bonds[key] = chem.Bond{A: ga, B: gb, Order: order, Aromatic: aromatic}
			changed[ga], changed[gb] = true, true
		}
	}

	// Recompute implicit hydrogens on every atom whose bonding changed.
	sums := make([]float64, len(atoms))
	for _, b := range bonds {
		sums[b.A] += b.OrderValue()
		sums[b.B] += b.OrderValue()
	}
	for gi := range changed {
		if deleted[gi] || fixedH[gi] {
			continue
		}
		a := &atoms[gi]
		h, ok := chem.ImplicitHydrogens(a.Symbol, a.Charge, a.Aromatic, sums[gi])
		if !ok {
			e.diag.invalidProducts.Add(1)
			return nil
		}
		a.HCount = h
	}

	return e.assembleFragments(atoms, bonds, deleted)
}

// assembleFragments compacts the edited atom set, splits it into connected
// components, and sanitizes each component independently. A component that
// fails sanitization is dropped without failing its siblings.
func (e *Engine) assembleFragments(atoms []chem.Atom, bonds map[[2]int]chem.Bond, deleted map[int]bool) []*chem.Mol {
	parent := make([]int, len(atoms))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, b := range bonds {
		ra, rb := find(b.A), find(b.B)
		if ra != rb {
			parent[ra] = rb
		}
	}

	members := make(map[int][]int)
	for i := range atoms {
		if deleted[i] {
			continue
		}
		root := find(i)
		members[root] = append(members[root], i)
	}

	// Deterministic component order: by smallest member index.
	roots := make([]int, 0, len(members))
	for root := range members {
		roots = append(roots, root)
	}
	for i := 0; i < len(roots); i++ {
		for j := i + 1; j < len(roots); j++ {
			if minInt(members[roots[j]]) < minInt(members[roots[i]]) {
				roots[i], roots[j] = roots[j], roots[i]
			}
		}
	}

	var out []*chem.Mol
	for _, root := range roots {
		idxs := members[root]
		local := make(map[int]int, len(idxs))
		fragAtoms := make([]chem.Atom, 0, len(idxs))
		for _, gi := range idxs {
			local[gi] = len(fragAtoms)
			fragAtoms = append(fragAtoms, atoms[gi])
		}
		var fragBonds []chem.Bond
		for _, b := range bonds {
			la, aok := local[b.A]
			lb, bok := local[b.B]
			if !aok || !bok {
				continue
			}
			fragBonds = append(fragBonds, chem.Bond{A: la, B: lb, Order: b.Order, Aromatic: b.Aromatic})
		}
		sortBonds(fragBonds)
		frag, err := chem.Assemble(fragAtoms, fragBonds)
		if err != nil {
			e.diag.invalidProducts.Add(1)
			continue
		}
		out = append(out, frag)
	}
	return out
}

func bondFromKind(kind int, a, b chem.Atom) (order int, aromatic bool) {
	switch kind {
	case pattern.BondDouble:
		return 2, false
	case pattern.BondTriple:
		return 3, false
	case pattern.BondAromatic:
		return 1, true
	case pattern.BondSingle:
		return 1, false
	}
	if a.Aromatic && b.Aromatic {
		return 1, true
	}
	return 1, false
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func minInt(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func sortBonds(bonds []chem.Bond) {
	for i := 0; i < len(bonds); i++ {
		for j := i + 1; j < len(bonds); j++ {
			ki, kj := pairKey(bonds[i].A, bonds[i].B), pairKey(bonds[j].A, bonds[j].B)
			if kj[0] < ki[0] || (kj[0] == ki[0] && kj[1] < ki[1]) {
				bonds[i], bonds[j] = bonds[j], bonds[i]
			}
		}
	}
}
