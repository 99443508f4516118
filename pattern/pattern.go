// Package pattern compiles declarative structural patterns (a SMARTS subset)
// into matchers over molecular graphs. Patterns are compiled once, typically
// at process startup, and are immutable and safe for concurrent use.
package pattern

import (
	"fmt"
	"strings"

	"github.com/degkit/degkit/chem"
)

// PatternError reports a malformed pattern expression.
type PatternError struct {
	Expr   string
	Reason string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern: invalid pattern %q: %s", e.Expr, e.Reason)
}

// AtomAlt is one element alternative of an atom pattern, e.g. the two halves
// of [C,c].
type AtomAlt struct {
	Symbol   string
	Aromatic bool
}

// AtomPattern constrains a single atom position.
type AtomPattern struct {
	Alts   []AtomAlt
	HCount *int // exact total hydrogen count, when specified
	Charge *int // exact formal charge, when specified
	Map    int  // atom-map number; 0 means unmapped
}

// Matches reports whether the pattern position accepts the given atom.
func (ap AtomPattern) Matches(a chem.Atom) bool {
	ok := false
	for _, alt := range ap.Alts {
		if alt.Symbol == a.Symbol && alt.Aromatic == a.Aromatic {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	if ap.HCount != nil && *ap.HCount != a.HCount {
		return false
	}
	if ap.Charge != nil && *ap.Charge != a.Charge {
		return false
	}
	return true
}

// Bond kinds. The default (unwritten) bond matches single or aromatic, per
// SMARTS semantics.
const (
	BondDefault = iota
	BondSingle
	BondDouble
	BondTriple
	BondAromatic
)

// BondPattern constrains the bond between two atom positions.
type BondPattern struct {
	A, B int
	Kind int
}

// Matches reports whether the pattern bond accepts the given graph bond.
func (bp BondPattern) Matches(b chem.Bond) bool {
	switch bp.Kind {
	case BondDefault:
		return b.Aromatic || b.Order == 1
	case BondSingle:
		return !b.Aromatic && b.Order == 1
	case BondDouble:
		return !b.Aromatic && b.Order == 2
	case BondTriple:
		return !b.Aromatic && b.Order == 3
	case BondAromatic:
		return b.Aromatic
	}
	return false
}

// Pattern is a compiled structural pattern. The atom at index 0 anchors the
// search; every later atom is connected to an earlier one, so parse order
// doubles as the matcher's traversal order.
type Pattern struct {
	Source string
	Atoms  []AtomPattern
	Bonds  []BondPattern

	// anchors[k] is the index of a bond pattern joining atom k to an
	// earlier atom; constraint bonds (ring closures) are checked separately.
	anchors []int
	adj     [][]int // bond pattern indices per atom
}

// Compile parses a pattern expression into a matcher. The expression must
// describe a single connected fragment; use CompileFragments for product
// templates with dot-separated fragments.
func Compile(expr string) (*Pattern, error) {
	p, err := compileFragment(expr, expr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MustCompile is Compile for static patterns; it panics on error, like
// regexp.MustCompile.
func MustCompile(expr string) *Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// CompileFragments compiles a dot-separated list of fragments, as used on
// the product side of a transformation rule.
func CompileFragments(expr string) ([]*Pattern, error) {
	var out []*Pattern
	for _, frag := range splitFragments(expr) {
		p, err := compileFragment(frag, expr)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, &PatternError{Expr: expr, Reason: "empty pattern"}
	}
	return out, nil
}

// splitFragments splits on top-level dots (dots never occur inside brackets
// in this subset, and parentheses depth is respected).
func splitFragments(expr string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '.':
			if depth == 0 {
				out = append(out, expr[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, expr[start:])
	return out
}

func compileFragment(frag, source string) (*Pattern, error) {
	c := &compiler{expr: frag, source: source}
	if err := c.run(); err != nil {
		return nil, err
	}
	p := &Pattern{Source: source, Atoms: c.atoms, Bonds: c.bonds}
	if err := p.index(); err != nil {
		return nil, err
	}
	return p, nil
}

// index builds adjacency and verifies that every atom beyond the first is
// reachable through an earlier atom.
func (p *Pattern) index() error {
	p.adj = make([][]int, len(p.Atoms))
	for bi, b := range p.Bonds {
		p.adj[b.A] = append(p.adj[b.A], bi)
		p.adj[b.B] = append(p.adj[b.B], bi)
	}
	p.anchors = make([]int, len(p.Atoms))
	p.anchors[0] = -1
	for k := 1; k < len(p.Atoms); k++ {
		p.anchors[k] = -1
		for _, bi := range p.adj[k] {
			other := p.Bonds[bi].A
			if other == k {
				other = p.Bonds[bi].B
			}
			if other < k {
				p.anchors[k] = bi
				break
			}
		}
		if p.anchors[k] < 0 {
			return &PatternError{Expr: p.Source, Reason: "disconnected pattern fragment"}
		}
	}
	return nil
}

// MapTable returns atom indices keyed by atom-map number.
func (p *Pattern) MapTable() map[int]int {
	out := make(map[int]int)
	for i, a := range p.Atoms {
		if a.Map > 0 {
			out[a.Map] = i
		}
	}
	return out
}

type compiler struct {
	expr   string
	source string
	pos    int

	atoms []AtomPattern
	bonds []BondPattern
}

func (c *compiler) fail(format string, args ...interface{}) error {
	return &PatternError{Expr: c.source, Reason: fmt.Sprintf(format, args...)}
}

type ringOpen struct {
	atom int
	kind int
	set  bool
}

func (c *compiler) run() error {
	if strings.TrimSpace(c.expr) == "" {
		return c.fail("empty pattern")
	}
	prev := -1
	var stack []int
	pendingKind := BondDefault
	pendingSet := false
	rings := make(map[int]ringOpen)

	for c.pos < len(c.expr) {
		ch := c.expr[c.pos]
		switch {
		case ch == '(':
			if prev < 0 {
				return c.fail("branch before any atom")
			}
			stack = append(stack, prev)
			c.pos++
		case ch == ')':
			if len(stack) == 0 {
				return c.fail("unmatched ')'")
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			c.pos++
		case ch == '-':
			pendingKind, pendingSet = BondSingle, true
			c.pos++
		case ch == '=':
			pendingKind, pendingSet = BondDouble, true
			c.pos++
		case ch == '#':
			pendingKind, pendingSet = BondTriple, true
			c.pos++
		case ch == ':':
			pendingKind, pendingSet = BondAromatic, true
			c.pos++
		case ch >= '0' && ch <= '9':
			if prev < 0 {
				return c.fail("ring closure before any atom")
			}
			num := int(ch - '0')
			c.pos++
			if open, ok := rings[num]; ok {
				kind := BondDefault
				if open.set {
					kind = open.kind
				}
				if pendingSet {
					kind = pendingKind
				}
				c.bonds = append(c.bonds, BondPattern{A: open.atom, B: prev, Kind: kind})
				delete(rings, num)
			} else {
				rings[num] = ringOpen{atom: prev, kind: pendingKind, set: pendingSet}
			}
			pendingKind, pendingSet = BondDefault, false
		case ch == '[':
			idx, err := c.bracketAtom()
			if err != nil {
				return err
			}
			prev = c.link(prev, idx, pendingKind, pendingSet)
			pendingKind, pendingSet = BondDefault, false
		default:
			idx, err := c.plainAtom()
			if err != nil {
				return err
			}
			prev = c.link(prev, idx, pendingKind, pendingSet)
			pendingKind, pendingSet = BondDefault, false
		}
	}
	if len(stack) > 0 {
		return c.fail("unclosed branch")
	}
	if len(rings) > 0 {
		return c.fail("unclosed ring closure")
	}
	if pendingSet {
		return c.fail("dangling bond symbol")
	}
	if len(c.atoms) == 0 {
		return c.fail("pattern has no atoms")
	}
	return nil
}

func (c *compiler) link(prev, idx, kind int, set bool) int {
	if prev >= 0 {
		k := kind
		if !set {
			k = BondDefault
		}
		c.bonds = append(c.bonds, BondPattern{A: prev, B: idx, Kind: k})
	}
	return idx
}

func (c *compiler) plainAtom() (int, error) {
	rest := c.expr[c.pos:]
	for _, sym := range []string{"Cl", "Br"} {
		if strings.HasPrefix(rest, sym) {
			c.pos += 2
			return c.push(AtomPattern{Alts: []AtomAlt{{Symbol: sym}}}), nil
		}
	}
	ch := rest[0]
	switch {
	case ch >= 'A' && ch <= 'Z':
		sym := string(ch)
		if !validElement(sym) {
			return 0, c.fail("unknown element %q", sym)
		}
		c.pos++
		return c.push(AtomPattern{Alts: []AtomAlt{{Symbol: sym}}}), nil
	case ch >= 'a' && ch <= 'z':
		sym := strings.ToUpper(string(ch))
		if !validElement(sym) {
			return 0, c.fail("unknown aromatic element %q", string(ch))
		}
		c.pos++
		return c.push(AtomPattern{Alts: []AtomAlt{{Symbol: sym, Aromatic: true}}}), nil
	}
	return 0, c.fail("unexpected character %q at position %d", string(ch), c.pos)
}

func (c *compiler) bracketAtom() (int, error) {
	start := c.pos
	end := strings.IndexByte(c.expr[start:], ']')
	if end < 0 {
		return 0, c.fail("unclosed bracket at position %d", start)
	}
	body := c.expr[start+1 : start+end]
	c.pos = start + end + 1

	ap := AtomPattern{}

	// Trailing :map applies to the whole bracket.
	if colon := strings.LastIndexByte(body, ':'); colon >= 0 && colon+1 < len(body) && isDigits(body[colon+1:]) {
		n := 0
		for _, d := range body[colon+1:] {
			n = n*10 + int(d-'0')
		}
		ap.Map = n
		body = body[:colon]
	}

	if body == "" {
		return 0, c.fail("empty bracket atom")
	}

	for _, alt := range strings.Split(body, ",") {
		if err := c.parseAlt(alt, &ap); err != nil {
			return 0, err
		}
	}
	if len(ap.Alts) == 0 {
		return 0, c.fail("bracket atom with no element")
	}
	return c.push(ap), nil
}

// parseAlt parses one element alternative, with optional H-count and charge
// suffixes (constraints apply to the whole atom position).
func (c *compiler) parseAlt(alt string, ap *AtomPattern) error {
	i := 0
	if alt == "" {
		return c.fail("empty alternative in bracket atom")
	}
	var sym string
	aromatic := false
	if i+1 < len(alt) && alt[i] >= 'A' && alt[i] <= 'Z' && alt[i+1] >= 'a' && alt[i+1] <= 'z' && validElement(alt[i:i+2]) {
		sym = alt[i : i+2]
		i += 2
	} else if alt[i] >= 'A' && alt[i] <= 'Z' {
		sym = string(alt[i])
		i++
	} else if alt[i] >= 'a' && alt[i] <= 'z' {
		sym = strings.ToUpper(string(alt[i]))
		aromatic = true
		i++
	}
	if sym == "" || !validElement(sym) {
		return c.fail("unknown element in bracket atom %q", alt)
	}
	ap.Alts = append(ap.Alts, AtomAlt{Symbol: sym, Aromatic: aromatic})

	for i < len(alt) {
		switch {
		case alt[i] == 'H':
			i++
			h := 1
			if i < len(alt) && isDigit(alt[i]) {
				h = int(alt[i] - '0')
				i++
			}
			ap.HCount = &h
		case alt[i] == '+' || alt[i] == '-':
			sign := 1
			if alt[i] == '-' {
				sign = -1
			}
			i++
			q := sign
			if i < len(alt) && isDigit(alt[i]) {
				q = sign * int(alt[i]-'0')
				i++
			}
			ap.Charge = &q
		default:
			return c.fail("unexpected %q in bracket atom %q", string(alt[i]), alt)
		}
	}
	return nil
}

func (c *compiler) push(ap AtomPattern) int {
	c.atoms = append(c.atoms, ap)
	return len(c.atoms) - 1
}

func validElement(sym string) bool {
	switch sym {
	case "B", "C", "N", "O", "P", "S", "F", "Cl", "Br", "I":
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
