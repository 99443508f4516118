package chem

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
)

// FingerprintRadius is the circular-environment radius used throughout the
// engine, matching the radius-2 Morgan fingerprints of the similarity scorer.
const FingerprintRadius = 2

// Fingerprint is a set of hashed circular substructure features.
type Fingerprint map[uint64]struct{}

// Fingerprint computes a circular (ECFP-style) fingerprint. Each atom
// contributes one feature per radius from 0 up to the given radius, hashed
// from iteratively refined neighborhood invariants.
func (m *Mol) Fingerprint(radius int) Fingerprint {
	fp := make(Fingerprint)
	inv := make([]uint64, len(m.atoms))
	for i, a := range m.atoms {
		inv[i] = hashAtomSeed(a, len(m.adj[i]))
		fp[inv[i]] = struct{}{}
	}
	for r := 1; r <= radius; r++ {
		next := make([]uint64, len(m.atoms))
		for i := range m.atoms {
			parts := make([]uint64, 0, len(m.adj[i])+1)
			for _, bi := range m.adj[i] {
				b := m.bonds[bi]
				nb := b.A
				if nb == i {
					nb = b.B
				}
				parts = append(parts, hashPair(bondCode(b), inv[nb]))
			}
			sort.Slice(parts, func(a, b int) bool { return parts[a] < parts[b] })
			next[i] = hashSequence(inv[i], parts)
			fp[next[i]] = struct{}{}
		}
		inv = next
	}
	return fp
}

// Tanimoto returns the Jaccard similarity of two fingerprints in [0, 1].
func Tanimoto(a, b Fingerprint) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Vector folds the fingerprint into a fixed-size, L2-normalized float vector
// suitable for approximate-nearest-neighbor storage.
func (f Fingerprint) Vector(dim int) []float32 {
	v := make([]float32, dim)
	for k := range f {
		v[int(k%uint64(dim))]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}

func bondCode(b Bond) uint64 {
	if b.Aromatic {
		return 4
	}
	return uint64(b.Order)
}

func hashAtomSeed(a Atom, degree int) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(a.AtomicNum))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(a.Charge)+16))
	h.Write(buf[:])
	flags := uint64(a.HCount)
	if a.Aromatic {
		flags |= 1 << 8
	}
	if a.InRing {
		flags |= 1 << 9
	}
	binary.LittleEndian.PutUint64(buf[:], flags)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(degree))
	h.Write(buf[:])
	return h.Sum64()
}

func hashPair(a, b uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], a)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], b)
	h.Write(buf[:])
	return h.Sum64()
}

func hashSequence(seed uint64, parts []uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	h.Write(buf[:])
	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf[:], p)
		h.Write(buf[:])
	}
	return h.Sum64()
}
