package chem

import (
	"fmt"
	"sort"
)

// StructureError reports a structure string that cannot be parsed or
// assembled into a chemically valid molecular graph.
type StructureError struct {
	SMILES string
	Reason string
}

func (e *StructureError) Error() string {
	if e.SMILES == "" {
		return "chem: invalid structure: " + e.Reason
	}
	return fmt.Sprintf("chem: invalid structure %q: %s", e.SMILES, e.Reason)
}

// Atom is a node in a molecular graph.
type Atom struct {
	Symbol    string // element symbol, e.g. "C", "Cl"
	AtomicNum int
	Charge    int
	Aromatic  bool
	InRing    bool
	HCount    int // implicit + explicit hydrogens
}

// Bond is a typed edge between two atoms, identified by atom index.
type Bond struct {
	A, B     int
	Order    int // 1, 2, 3
	Aromatic bool
	InRing   bool
}

// OrderValue returns the bond order used in valence sums; aromatic bonds
// contribute 1.5.
func (b Bond) OrderValue() float64 {
	if b.Aromatic {
		return 1.5
	}
	return float64(b.Order)
}

// Mol is an immutable molecular graph. Built once by ParseSMILES or
// Assemble; all accessors return copies or values, so a Mol is safe to share
// across goroutines without synchronization.
type Mol struct {
	atoms     []Atom
	bonds     []Bond
	adj       [][]int // bond indices per atom
	bondIdx   map[[2]int]int
	canonical string
	weight    float64
}

// NumAtoms returns the number of heavy atoms.
func (m *Mol) NumAtoms() int { return len(m.atoms) }

// NumBonds returns the number of bonds.
func (m *Mol) NumBonds() int { return len(m.bonds) }

// AtomAt returns the atom at index i.
func (m *Mol) AtomAt(i int) Atom { return m.atoms[i] }

// BondAt returns the bond at index i.
func (m *Mol) BondAt(i int) Bond { return m.bonds[i] }

// Atoms returns a copy of the atom list.
func (m *Mol) Atoms() []Atom {
	out := make([]Atom, len(m.atoms))
	copy(out, m.atoms)
	return out
}

// Bonds returns a copy of the bond list.
func (m *Mol) Bonds() []Bond {
	out := make([]Bond, len(m.bonds))
	copy(out, m.bonds)
	return out
}

// Neighbors returns the atom indices bonded to atom i, in ascending order.
func (m *Mol) Neighbors(i int) []int {
	out := make([]int, 0, len(m.adj[i]))
	for _, bi := range m.adj[i] {
		b := m.bonds[bi]
		if b.A == i {
			out = append(out, b.B)
		} else {
			out = append(out, b.A)
		}
	}
	sort.Ints(out)
	return out
}

// BondBetween returns the bond connecting atoms a and b, if any.
func (m *Mol) BondBetween(a, b int) (Bond, bool) {
	bi, ok := m.bondIdx[bondKey(a, b)]
	if !ok {
		return Bond{}, false
	}
	return m.bonds[bi], true
}

// Degree returns the heavy-atom degree of atom i.
func (m *Mol) Degree(i int) int { return len(m.adj[i]) }

// Weight returns the molecular weight in g/mol, including hydrogens.
func (m *Mol) Weight() float64 { return m.weight }

// Canonical returns the canonical SMILES form used as the identity key for
// deduplication.
func (m *Mol) Canonical() string { return m.canonical }

func bondKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Assemble builds a Mol from raw atoms and bonds, performing the full
// sanitization pass: adjacency, ring perception, aromatic consistency, and
// valence checks. The rewrite engine relies on Assemble rejecting chemically
// invalid products; those rejections are expected, not exceptional.
func Assemble(atoms []Atom, bonds []Bond) (*Mol, error) {
	if len(atoms) == 0 {
		return nil, &StructureError{Reason: "no atoms"}
	}
	m := &Mol{
		atoms:   make([]Atom, len(atoms)),
		bonds:   make([]Bond, len(bonds)),
		adj:     make([][]int, len(atoms)),
		bondIdx: make(map[[2]int]int, len(bonds)),
	}
	copy(m.atoms, atoms)
	copy(m.bonds, bonds)

	for i := range m.atoms {
		a := &m.atoms[i]
		num, ok := atomicNumbers[a.Symbol]
		if !ok {
			return nil, &StructureError{Reason: fmt.Sprintf("unsupported element %q", a.Symbol)}
		}
		a.AtomicNum = num
		a.InRing = false
	}
	for bi, b := range m.bonds {
		if b.A == b.B || b.A < 0 || b.B < 0 || b.A >= len(atoms) || b.B >= len(atoms) {
			return nil, &StructureError{Reason: "bond endpoints out of range"}
		}
		key := bondKey(b.A, b.B)
		if _, dup := m.bondIdx[key]; dup {
			return nil, &StructureError{Reason: "duplicate bond"}
		}
		m.bondIdx[key] = bi
		m.adj[b.A] = append(m.adj[b.A], bi)
		m.adj[b.B] = append(m.adj[b.B], bi)
	}

	m.perceiveRings()

	for i, a := range m.atoms {
		sum := m.bondOrderSum(i)
		if !valenceOK(a.Symbol, a.Charge, a.Aromatic, a.HCount, sum) {
			return nil, &StructureError{Reason: fmt.Sprintf("valence violation on atom %d (%s)", i, a.Symbol)}
		}
		if a.Aromatic {
			aromBonds := 0
			for _, bi := range m.adj[i] {
				if m.bonds[bi].Aromatic {
					aromBonds++
				}
			}
			if aromBonds < 2 {
				return nil, &StructureError{Reason: fmt.Sprintf("aromatic atom %d outside an aromatic ring", i)}
			}
		}
	}

	for _, a := range m.atoms {
		m.weight += atomicMasses[a.Symbol] + float64(a.HCount)*atomicMasses["H"]
	}
	m.canonical = m.canonicalize()
	return m, nil
}

func (m *Mol) bondOrderSum(i int) float64 {
	var sum float64
	for _, bi := range m.adj[i] {
		sum += m.bonds[bi].OrderValue()
	}
	return sum
}

// perceiveRings marks ring bonds and ring atoms. A bond is a ring bond iff
// its endpoints stay connected when the bond is removed.
func (m *Mol) perceiveRings() {
	for bi := range m.bonds {
		b := &m.bonds[bi]
		if m.connectedWithout(b.A, b.B, bi) {
			b.InRing = true
			m.atoms[b.A].InRing = true
			m.atoms[b.B].InRing = true
		}
	}
}

func (m *Mol) connectedWithout(from, to, skipBond int) bool {
	seen := make([]bool, len(m.atoms))
	queue := []int{from}
	seen[from] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		for _, bi := range m.adj[cur] {
			if bi == skipBond {
				continue
			}
			b := m.bonds[bi]
			next := b.A
			if next == cur {
				next = b.B
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// components returns the connected components as lists of atom indices.
func (m *Mol) components() [][]int {
	comp := make([]int, len(m.atoms))
	for i := range comp {
		comp[i] = -1
	}
	var out [][]int
	for i := range m.atoms {
		if comp[i] >= 0 {
			continue
		}
		id := len(out)
		var members []int
		stack := []int{i}
		comp[i] = id
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, cur)
			for _, nb := range m.Neighbors(cur) {
				if comp[nb] < 0 {
					comp[nb] = id
					stack = append(stack, nb)
				}
			}
		}
		sort.Ints(members)
		out = append(out, members)
	}
	return out
}
