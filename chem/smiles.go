package chem

import (
	"fmt"
	"strings"
)

// ParseSMILES parses a SMILES string into an immutable molecular graph.
// The supported subset covers the organic elements (B, C, N, O, P, S and
// halogens), aromatic lowercase forms, bracket atoms with hydrogen counts and
// formal charges, branches, ring closures (including %nn), and dot-separated
// fragments. Stereo markers are accepted and ignored. A string that cannot be
// parsed into a chemically valid graph returns a *StructureError.
func ParseSMILES(s string) (*Mol, error) {
	p := &smilesParser{input: s}
	atoms, bonds, err := p.parse()
	if err != nil {
		return nil, err
	}
	m, err := Assemble(atoms, bonds)
	if err != nil {
		if se, ok := err.(*StructureError); ok {
			se.SMILES = s
		}
		return nil, err
	}
	return m, nil
}

type pendingBond struct {
	set      bool
	order    int
	aromatic bool
}

type ringRef struct {
	atom int
	bond pendingBond
}

type smilesParser struct {
	input string
	pos   int

	atoms []Atom
	// explicitH marks atoms whose hydrogen count was pinned by a bracket
	// expression; all others get implicit hydrogens after parsing.
	explicitH []bool
	bonds     []Bond
}

func (p *smilesParser) fail(format string, args ...interface{}) error {
	return &StructureError{SMILES: p.input, Reason: fmt.Sprintf(format, args...)}
}

func (p *smilesParser) parse() ([]Atom, []Bond, error) {
	if strings.TrimSpace(p.input) == "" {
		return nil, nil, p.fail("empty structure string")
	}

	prev := -1
	var stack []int
	var pending pendingBond
	rings := make(map[int]ringRef)

	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == ' ' || c == '\t':
			p.pos++
		case c == '(':
			if prev < 0 {
				return nil, nil, p.fail("branch before any atom at position %d", p.pos)
			}
			stack = append(stack, prev)
			p.pos++
		case c == ')':
			if len(stack) == 0 {
				return nil, nil, p.fail("unmatched ')' at position %d", p.pos)
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			p.pos++
		case c == '-':
			pending = pendingBond{set: true, order: 1}
			p.pos++
		case c == '=':
			pending = pendingBond{set: true, order: 2}
			p.pos++
		case c == '#':
			pending = pendingBond{set: true, order: 3}
			p.pos++
		case c == ':':
			pending = pendingBond{set: true, order: 1, aromatic: true}
			p.pos++
		case c == '/' || c == '\\':
			// Stereo bonds are treated as plain single bonds.
			pending = pendingBond{set: true, order: 1}
			p.pos++
		case c == '.':
			if pending.set {
				return nil, nil, p.fail("bond before '.' at position %d", p.pos)
			}
			prev = -1
			p.pos++
		case c >= '0' && c <= '9' || c == '%':
			num, err := p.ringNumber()
			if err != nil {
				return nil, nil, err
			}
			if prev < 0 {
				return nil, nil, p.fail("ring closure before any atom")
			}
			if ref, open := rings[num]; open {
				bond := pending
				if !bond.set {
					bond = ref.bond
				}
				if ref.bond.set && pending.set && (ref.bond.order != pending.order || ref.bond.aromatic != pending.aromatic) {
					return nil, nil, p.fail("conflicting bond symbols on ring closure %d", num)
				}
				if err := p.addBond(ref.atom, prev, bond); err != nil {
					return nil, nil, err
				}
				delete(rings, num)
			} else {
				rings[num] = ringRef{atom: prev, bond: pending}
			}
			pending = pendingBond{}
		case c == '[':
			idx, err := p.bracketAtom()
			if err != nil {
				return nil, nil, err
			}
			if prev >= 0 {
				if err := p.addBond(prev, idx, pending); err != nil {
					return nil, nil, err
				}
			}
			pending = pendingBond{}
			prev = idx
		default:
			idx, err := p.organicAtom()
			if err != nil {
				return nil, nil, err
			}
			if prev >= 0 {
				if err := p.addBond(prev, idx, pending); err != nil {
					return nil, nil, err
				}
			}
			pending = pendingBond{}
			prev = idx
		}
	}

	if len(stack) > 0 {
		return nil, nil, p.fail("unclosed branch")
	}
	if len(rings) > 0 {
		return nil, nil, p.fail("unclosed ring bond")
	}
	if pending.set {
		return nil, nil, p.fail("dangling bond symbol")
	}
	if err := p.assignImplicitHydrogens(); err != nil {
		return nil, nil, err
	}
	return p.atoms, p.bonds, nil
}

func (p *smilesParser) ringNumber() (int, error) {
	c := p.input[p.pos]
	if c == '%' {
		if p.pos+2 >= len(p.input) || !isDigit(p.input[p.pos+1]) || !isDigit(p.input[p.pos+2]) {
			return 0, p.fail("malformed %%nn ring closure at position %d", p.pos)
		}
		n := int(p.input[p.pos+1]-'0')*10 + int(p.input[p.pos+2]-'0')
		p.pos += 3
		return n, nil
	}
	p.pos++
	return int(c - '0'), nil
}

func (p *smilesParser) organicAtom() (int, error) {
	rest := p.input[p.pos:]
	// Two-letter symbols first.
	for _, sym := range []string{"Cl", "Br"} {
		if strings.HasPrefix(rest, sym) {
			p.pos += 2
			return p.addAtom(Atom{Symbol: sym}, false), nil
		}
	}
	c := rest[0]
	if sym, ok := aromaticSymbols[string(c)]; ok {
		p.pos++
		return p.addAtom(Atom{Symbol: sym, Aromatic: true}, false), nil
	}
	sym := string(c)
	if organicSubset[sym] {
		p.pos++
		return p.addAtom(Atom{Symbol: sym}, false), nil
	}
	return 0, p.fail("unexpected character %q at position %d", string(c), p.pos)
}

func (p *smilesParser) bracketAtom() (int, error) {
	start := p.pos
	end := strings.IndexByte(p.input[start:], ']')
	if end < 0 {
		return 0, p.fail("unclosed bracket atom at position %d", start)
	}
	body := p.input[start+1 : start+end]
	p.pos = start + end + 1

	i := 0
	// Optional isotope, ignored.
	for i < len(body) && isDigit(body[i]) {
		i++
	}
	if i >= len(body) {
		return 0, p.fail("empty bracket atom at position %d", start)
	}

	var symbol string
	aromatic := false
	if i+1 < len(body) && body[i] >= 'A' && body[i] <= 'Z' && body[i+1] >= 'a' && body[i+1] <= 'z' {
		two := body[i : i+2]
		if _, ok := atomicNumbers[two]; ok {
			symbol = two
			i += 2
		}
	}
	if symbol == "" {
		one := string(body[i])
		if sym, ok := aromaticSymbols[one]; ok {
			symbol = sym
			aromatic = true
			i++
		} else if _, ok := atomicNumbers[one]; ok {
			symbol = one
			i++
		} else {
			return 0, p.fail("unknown element in bracket atom at position %d", start)
		}
	}

	// Chirality markers, ignored.
	for i < len(body) && body[i] == '@' {
		i++
	}

	hcount := 0
	if i < len(body) && body[i] == 'H' {
		i++
		hcount = 1
		if i < len(body) && isDigit(body[i]) {
			hcount = int(body[i] - '0')
			i++
		}
	}

	charge := 0
	for i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		i++
		if i < len(body) && isDigit(body[i]) {
			charge += sign * int(body[i]-'0')
			i++
		} else {
			charge += sign
		}
	}

	// Atom maps are valid SMILES but carry no meaning on input structures.
	if i < len(body) && body[i] == ':' {
		i++
		for i < len(body) && isDigit(body[i]) {
			i++
		}
	}
	if i != len(body) {
		return 0, p.fail("trailing %q in bracket atom at position %d", body[i:], start)
	}

	return p.addAtom(Atom{Symbol: symbol, Aromatic: aromatic, Charge: charge, HCount: hcount}, true), nil
}

func (p *smilesParser) addAtom(a Atom, explicitH bool) int {
	p.atoms = append(p.atoms, a)
	p.explicitH = append(p.explicitH, explicitH)
	return len(p.atoms) - 1
}

func (p *smilesParser) addBond(a, b int, pending pendingBond) error {
	if a == b {
		return p.fail("self bond on atom %d", a)
	}
	bond := Bond{A: a, B: b, Order: 1}
	if pending.set {
		bond.Order = pending.order
		bond.Aromatic = pending.aromatic
	} else if p.atoms[a].Aromatic && p.atoms[b].Aromatic {
		bond.Aromatic = true
	}
	for _, existing := range p.bonds {
		if bondKey(existing.A, existing.B) == bondKey(a, b) {
			return p.fail("duplicate bond between atoms %d and %d", a, b)
		}
	}
	p.bonds = append(p.bonds, bond)
	return nil
}

func (p *smilesParser) assignImplicitHydrogens() error {
	sums := make([]float64, len(p.atoms))
	for _, b := range p.bonds {
		sums[b.A] += b.OrderValue()
		sums[b.B] += b.OrderValue()
	}
	for i := range p.atoms {
		if p.explicitH[i] {
			continue
		}
		a := &p.atoms[i]
		h, ok := ImplicitHydrogens(a.Symbol, a.Charge, a.Aromatic, sums[i])
		if !ok {
			return p.fail("no valid valence for atom %d (%s)", i, a.Symbol)
		}
		a.HCount = h
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
