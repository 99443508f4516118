package chem

import (
	"fmt"
	"sort"
	"strings"
)

// canonicalize produces the canonical SMILES string for the molecule.
// Atom ordering uses Morgan-style iterative invariant refinement with
// deterministic tie-breaking, then each fragment is written by a DFS that
// visits neighbors in rank order. Fragments are sorted lexicographically.
func (m *Mol) canonicalize() string {
	ranks := m.canonicalRanks()
	comps := m.components()
	frags := make([]string, 0, len(comps))
	for _, comp := range comps {
		frags = append(frags, m.writeFragment(comp, ranks))
	}
	sort.Strings(frags)
	return strings.Join(frags, ".")
}

// canonicalRanks assigns each atom a rank in [0, n) such that structurally
// distinguishable atoms get distinct ranks. Ties left after refinement are
// broken by atom index; for such ties the atoms are automorphic in practice,
// so either choice writes the same string.
func (m *Mol) canonicalRanks() []int {
	n := len(m.atoms)
	keys := make([]string, n)
	for i, a := range m.atoms {
		keys[i] = fmt.Sprintf("%03d|%t|%+03d|%d|%d|%t",
			a.AtomicNum, a.Aromatic, a.Charge, a.HCount, len(m.adj[i]), a.InRing)
	}
	ranks := rankKeys(keys)
	ranks = m.refineRanks(ranks)

	for countDistinct(ranks) < n {
		// Promote the lowest-index member of the lowest tied class.
		class := -1
		for i := 0; i < n; i++ {
			if classSize(ranks, ranks[i]) > 1 && (class < 0 || ranks[i] < class) {
				class = ranks[i]
			}
		}
		chosen := -1
		for i := 0; i < n; i++ {
			if ranks[i] == class {
				chosen = i
				break
			}
		}
		for i := range keys {
			promoted := 1
			if i == chosen {
				promoted = 0
			}
			keys[i] = fmt.Sprintf("%06d|%d", ranks[i], promoted)
		}
		ranks = rankKeys(keys)
		ranks = m.refineRanks(ranks)
	}
	return ranks
}

func (m *Mol) refineRanks(ranks []int) []int {
	n := len(m.atoms)
	keys := make([]string, n)
	for {
		before := countDistinct(ranks)
		for i := range m.atoms {
			parts := make([]string, 0, len(m.adj[i]))
			for _, bi := range m.adj[i] {
				b := m.bonds[bi]
				nb := b.A
				if nb == i {
					nb = b.B
				}
				code := byte('0' + b.Order)
				if b.Aromatic {
					code = 'a'
				}
				parts = append(parts, fmt.Sprintf("%c%06d", code, ranks[nb]))
			}
			sort.Strings(parts)
			keys[i] = fmt.Sprintf("%06d|%s", ranks[i], strings.Join(parts, ","))
		}
		ranks = rankKeys(keys)
		if countDistinct(ranks) == before {
			return ranks
		}
	}
}

func rankKeys(keys []string) []int {
	uniq := make([]string, len(keys))
	copy(uniq, keys)
	sort.Strings(uniq)
	pos := make(map[string]int, len(uniq))
	for _, k := range uniq {
		if _, ok := pos[k]; !ok {
			pos[k] = len(pos)
		}
	}
	ranks := make([]int, len(keys))
	for i, k := range keys {
		ranks[i] = pos[k]
	}
	return ranks
}

func countDistinct(ranks []int) int {
	seen := make(map[int]bool, len(ranks))
	for _, r := range ranks {
		seen[r] = true
	}
	return len(seen)
}

func classSize(ranks []int, class int) int {
	n := 0
	for _, r := range ranks {
		if r == class {
			n++
		}
	}
	return n
}

type smilesWriter struct {
	m        *Mol
	ranks    []int
	visited  []bool
	bondUsed []bool
	children [][]int          // tree children per atom, in visit order
	closures map[int][]closure // per atom, in allocation order
	nextRing int
	sb       strings.Builder
}

type closure struct {
	digit int
	bond  Bond
}

func (m *Mol) writeFragment(comp []int, ranks []int) string {
	w := &smilesWriter{
		m:        m,
		ranks:    ranks,
		visited:  make([]bool, len(m.atoms)),
		bondUsed: make([]bool, len(m.bonds)),
		children: make([][]int, len(m.atoms)),
		closures: make(map[int][]closure),
		nextRing: 1,
	}
	root := comp[0]
	for _, i := range comp {
		if ranks[i] < ranks[root] || (ranks[i] == ranks[root] && i < root) {
			root = i
		}
	}
	w.walk(root)
	w.emit(root, -1)
	return w.sb.String()
}

// walk performs the DFS that fixes child order and allocates ring-closure
// digits before any output is written.
func (w *smilesWriter) walk(atom int) {
	w.visited[atom] = true
	for _, nb := range w.orderedNeighbors(atom) {
		bi := w.m.bondIdx[bondKey(atom, nb)]
		if w.bondUsed[bi] {
			continue
		}
		if w.visited[nb] {
			w.bondUsed[bi] = true
			d := w.nextRing
			w.nextRing++
			w.closures[atom] = append(w.closures[atom], closure{digit: d, bond: w.m.bonds[bi]})
			w.closures[nb] = append(w.closures[nb], closure{digit: d, bond: w.m.bonds[bi]})
			continue
		}
		w.bondUsed[bi] = true
		w.children[atom] = append(w.children[atom], nb)
		w.walk(nb)
	}
}

func (w *smilesWriter) orderedNeighbors(atom int) []int {
	nbs := w.m.Neighbors(atom)
	sort.Slice(nbs, func(i, j int) bool {
		ri, rj := w.ranks[nbs[i]], w.ranks[nbs[j]]
		if ri != rj {
			return ri < rj
		}
		return nbs[i] < nbs[j]
	})
	return nbs
}

func (w *smilesWriter) emit(atom, parent int) {
	if parent >= 0 {
		b, _ := w.m.BondBetween(parent, atom)
		w.sb.WriteString(w.bondSymbol(b))
	}
	w.sb.WriteString(w.atomToken(atom))
	for _, cl := range w.closures[atom] {
		w.sb.WriteString(w.bondSymbol(cl.bond))
		if cl.digit < 10 {
			fmt.Fprintf(&w.sb, "%d", cl.digit)
		} else {
			fmt.Fprintf(&w.sb, "%%%02d", cl.digit)
		}
	}
	kids := w.children[atom]
	for i, kid := range kids {
		if i < len(kids)-1 {
			w.sb.WriteByte('(')
			w.emit(kid, atom)
			w.sb.WriteByte(')')
		} else {
			w.emit(kid, atom)
		}
	}
}

func (w *smilesWriter) bondSymbol(b Bond) string {
	if b.Aromatic {
		return ""
	}
	switch b.Order {
	case 2:
		return "="
	case 3:
		return "#"
	}
	if w.m.atoms[b.A].Aromatic && w.m.atoms[b.B].Aromatic {
		return "-"
	}
	return ""
}

func (w *smilesWriter) atomToken(i int) string {
	a := w.m.atoms[i]
	sym := a.Symbol
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}
	bracket := a.Charge != 0 || !organicSubset[a.Symbol]
	if !bracket {
		h, ok := ImplicitHydrogens(a.Symbol, 0, a.Aromatic, w.m.bondOrderSum(i))
		if !ok || h != a.HCount {
			bracket = true
		}
	}
	if !bracket {
		return sym
	}
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(sym)
	switch {
	case a.HCount == 1:
		sb.WriteByte('H')
	case a.HCount > 1:
		fmt.Fprintf(&sb, "H%d", a.HCount)
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		fmt.Fprintf(&sb, "+%d", a.Charge)
	case a.Charge < -1:
		fmt.Fprintf(&sb, "-%d", -a.Charge)
	}
	sb.WriteByte(']')
	return sb.String()
}
