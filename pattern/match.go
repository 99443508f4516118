package pattern

import (
	"sort"

	"github.com/degkit/degkit/chem"
)

// DefaultMaxEmbeddings bounds embedding enumeration per match call.
// Subgraph matching is combinatorial on symmetric inputs; the bound keeps
// worst-case latency predictable. Callers pass an explicit limit to override.
const DefaultMaxEmbeddings = 128

// FindAll returns every embedding of the pattern in the molecule as a tuple
// of atom indices, one entry per pattern atom. Embeddings are enumerated in
// deterministic order: ascending anchor atom index, then lexicographically by
// the remaining assignments, so downstream rule application is reproducible.
// Enumeration stops at limit (DefaultMaxEmbeddings when limit <= 0); the
// second result reports whether the cap was hit.
func (p *Pattern) FindAll(m *chem.Mol, limit int) ([][]int, bool) {
	if limit <= 0 {
		limit = DefaultMaxEmbeddings
	}
	s := &search{p: p, m: m, limit: limit,
		mapping: make([]int, len(p.Atoms)),
		used:    make([]bool, m.NumAtoms()),
	}
	for start := 0; start < m.NumAtoms(); start++ {
		if !p.Atoms[0].Matches(m.AtomAt(start)) {
			continue
		}
		s.mapping[0] = start
		s.used[start] = true
		if !s.extend(1) {
			break
		}
		s.used[start] = false
	}
	return s.out, s.truncated
}

// FindAllUnique is FindAll deduplicated by atom set, mirroring the uniquify
// behavior expected for reactive-site counting: symmetric re-embeddings over
// the same atoms count once.
func (p *Pattern) FindAllUnique(m *chem.Mol, limit int) ([][]int, bool) {
	all, truncated := p.FindAll(m, limit)
	seen := make(map[string]bool, len(all))
	out := make([][]int, 0, len(all))
	for _, emb := range all {
		key := atomSetKey(emb)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, emb)
	}
	return out, truncated
}

type search struct {
	p         *Pattern
	m         *chem.Mol
	limit     int
	mapping   []int
	used      []bool
	out       [][]int
	truncated bool
}

// extend assigns pattern atom k; returns false when enumeration must stop.
func (s *search) extend(k int) bool {
	if k == len(s.p.Atoms) {
		emb := make([]int, len(s.mapping))
		copy(emb, s.mapping)
		s.out = append(s.out, emb)
		if len(s.out) >= s.limit {
			s.truncated = true
			return false
		}
		return true
	}

	anchor := s.p.Bonds[s.p.anchors[k]]
	prev := anchor.A
	if prev == k {
		prev = anchor.B
	}
	for _, cand := range s.m.Neighbors(s.mapping[prev]) {
		if s.used[cand] || !s.p.Atoms[k].Matches(s.m.AtomAt(cand)) {
			continue
		}
		if !s.bondsSatisfied(k, cand) {
			continue
		}
		s.mapping[k] = cand
		s.used[cand] = true
		ok := s.extend(k + 1)
		s.used[cand] = false
		if !ok {
			return false
		}
	}
	return true
}

// bondsSatisfied checks every pattern bond between atom k and already-mapped
// atoms, including ring-closure constraints.
func (s *search) bondsSatisfied(k, cand int) bool {
	for _, bi := range s.p.adj[k] {
		bp := s.p.Bonds[bi]
		other := bp.A
		if other == k {
			other = bp.B
		}
		if other >= k {
			continue // not mapped yet
		}
		gb, ok := s.m.BondBetween(cand, s.mapping[other])
		if !ok || !bp.Matches(gb) {
			return false
		}
	}
	return true
}

func atomSetKey(emb []int) string {
	sorted := make([]int, len(emb))
	copy(sorted, emb)
	sort.Ints(sorted)
	key := make([]byte, 0, len(sorted)*3)
	for _, v := range sorted {
		key = append(key, byte(v), byte(v>>8), ',')
	}
	return string(key)
}
