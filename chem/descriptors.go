package chem

// Descriptors holds the molecular descriptors consumed by the susceptibility
// tables and reported by structure analysis. JSON field names follow the
// external payload contract.
type Descriptors struct {
	MolecularWeight float64 `json:"molecular_weight"`
	HeavyAtoms      int     `json:"num_heavy_atoms"`
	RingCount       int     `json:"num_rings"`
	AromaticRings   int     `json:"num_aromatic_rings"`
	RotatableBonds  int     `json:"num_rotatable_bonds"`
	HBondDonors     int     `json:"num_h_donors"`
	HBondAcceptors  int     `json:"num_h_acceptors"`
	Heteroatoms     int     `json:"num_heteroatoms"`
	Nitrogens       int     `json:"num_nitrogens"`
	Oxygens         int     `json:"num_oxygens"`
	Sulfurs         int     `json:"num_sulfurs"`
	Halogens        int     `json:"num_halogens"`
}

// Descriptors computes the descriptor set for the molecule.
func (m *Mol) Descriptors() Descriptors {
	d := Descriptors{
		MolecularWeight: m.weight,
		HeavyAtoms:      len(m.atoms),
		RingCount:       m.RingCount(),
		AromaticRings:   m.AromaticRingCount(),
		RotatableBonds:  m.RotatableBonds(),
	}
	for _, a := range m.atoms {
		switch a.AtomicNum {
		case 7:
			d.Nitrogens++
		case 8:
			d.Oxygens++
		case 16:
			d.Sulfurs++
		case 9, 17, 35, 53:
			d.Halogens++
		}
		if a.AtomicNum != 6 && a.AtomicNum != 1 {
			d.Heteroatoms++
		}
		if (a.AtomicNum == 7 || a.AtomicNum == 8) && a.HCount > 0 {
			d.HBondDonors++
		}
		if a.AtomicNum == 7 || a.AtomicNum == 8 {
			d.HBondAcceptors++
		}
	}
	return d
}

// RingCount returns the number of rings (cyclomatic number of the graph).
func (m *Mol) RingCount() int {
	n := m.NumBonds() - m.NumAtoms() + len(m.components())
	if n < 0 {
		return 0
	}
	return n
}

// AromaticRingCount returns the number of rings in the aromatic-bond
// subgraph, counting fused systems correctly (naphthalene has two).
func (m *Mol) AromaticRingCount() int {
	// Collect the aromatic subgraph.
	atomSet := make(map[int]bool)
	edges := 0
	for _, b := range m.bonds {
		if b.Aromatic {
			atomSet[b.A] = true
			atomSet[b.B] = true
			edges++
		}
	}
	if edges == 0 {
		return 0
	}
	// Count connected components of the aromatic subgraph.
	seen := make(map[int]bool)
	comps := 0
	for start := range atomSet {
		if seen[start] {
			continue
		}
		comps++
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, bi := range m.adj[cur] {
				b := m.bonds[bi]
				if !b.Aromatic {
					continue
				}
				next := b.A
				if next == cur {
					next = b.B
				}
				if !seen[next] {
					seen[next] = true
					stack = append(stack, next)
				}
			}
		}
	}
	n := edges - len(atomSet) + comps
	if n < 0 {
		return 0
	}
	return n
}

// RotatableBonds counts acyclic single bonds between two non-terminal heavy
// atoms.
func (m *Mol) RotatableBonds() int {
	n := 0
	for _, b := range m.bonds {
		if b.Order != 1 || b.Aromatic || b.InRing {
			continue
		}
		if len(m.adj[b.A]) >= 2 && len(m.adj[b.B]) >= 2 {
			n++
		}
	}
	return n
}

// HeteroatomCount returns the number of atoms of the given element symbol.
func (m *Mol) HeteroatomCount(symbol string) int {
	n := 0
	for _, a := range m.atoms {
		if a.Symbol == symbol {
			n++
		}
	}
	return n
}
