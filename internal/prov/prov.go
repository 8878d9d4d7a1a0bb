// Package prov implements the DNF provenance semiring: derived facts carry a
// value recording which combinations of speculative hypotheses they depend
// on. Values are canonical sets of sets of leaves (a disjunction of
// conjunctions), kept absorption-simplified so that structural equality
// coincides with semiring equality modulo ACI.
package prov

import (
	"sort"
	"strings"

	"github.com/arrowgraph/implog/internal/ident"
	"github.com/pkg/errors"
)

// Leaf is an atomic hypothesis label: a specific tuple, identified by its row
// id in a relation's label table, that was introduced by a speculative rule.
type Leaf struct {
	Relation ident.Symbol
	Tuple    uint64 // row id in Relation's label table
}

// Less orders leaves by relation then row id, giving conjuncts and formulas a
// canonical, comparable form.
func (a Leaf) Less(b Leaf) bool {
	if a.Relation != b.Relation {
		return a.Relation < b.Relation
	}
	return a.Tuple < b.Tuple
}

// conjunct is a sorted, duplicate-free list of leaves: an "AND" of
// hypotheses. It is immutable once constructed.
type conjunct []Leaf

func newConjunct(leaves []Leaf) conjunct {
	c := append(conjunct(nil), leaves...)
	sort.Slice(c, func(i, j int) bool { return c[i].Less(c[j]) })
	out := c[:0]
	for i, l := range c {
		if i == 0 || l != c[i-1] {
			out = append(out, l)
		}
	}
	return out
}

// subsetOf reports whether every leaf of c also appears in other.
func (c conjunct) subsetOf(other conjunct) bool {
	if len(c) > len(other) {
		return false
	}
	i, j := 0, 0
	for i < len(c) && j < len(other) {
		switch {
		case c[i] == other[j]:
			i++
			j++
		case other[j].Less(c[i]):
			j++
		default:
			return false
		}
	}
	return i == len(c)
}

func (c conjunct) equal(other conjunct) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

func (c conjunct) union(other conjunct) conjunct {
	merged := make([]Leaf, 0, len(c)+len(other))
	merged = append(merged, c...)
	merged = append(merged, other...)
	return newConjunct(merged)
}

func (c conjunct) without(l Leaf) conjunct {
	out := make(conjunct, 0, len(c))
	for _, x := range c {
		if x != l {
			out = append(out, x)
		}
	}
	return out
}

// difference returns the leaves of c not present in other.
func (c conjunct) difference(other conjunct) conjunct {
	out := make(conjunct, 0, len(c))
	for _, x := range c {
		found := false
		for _, y := range other {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			out = append(out, x)
		}
	}
	return newConjunct(out)
}

func (c conjunct) key() string {
	var b strings.Builder
	for _, l := range c {
		b.WriteByte(0)
		writeUvarint(&b, uint64(l.Relation))
		b.WriteByte(0)
		writeUvarint(&b, l.Tuple)
	}
	return b.String()
}

func writeUvarint(b *strings.Builder, v uint64) {
	for v >= 0x80 {
		b.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	b.WriteByte(byte(v))
}

// DNF is a provenance value: a canonical set of conjuncts (a disjunction of
// conjunctions of leaves). The zero value is Zero(), the empty disjunction.
type DNF struct {
	conjuncts []conjunct // sorted by key, deduplicated, absorption-simplified
}

// Zero is the semiring additive identity: the empty disjunction ("False").
func Zero() DNF { return DNF{} }

// One is the semiring multiplicative identity: a single empty conjunct
// ("True").
func One() DNF { return DNF{conjuncts: []conjunct{{}}} }

// Singleton returns the provenance value for a single hypothesis leaf.
func Singleton(l Leaf) DNF {
	return DNF{conjuncts: []conjunct{newConjunct([]Leaf{l})}}
}

// Conjunct returns the provenance value consisting of exactly one conjunct
// built from the given leaves.
func Conjunct(leaves ...Leaf) DNF {
	return DNF{conjuncts: []conjunct{newConjunct(leaves)}}
}

func fromConjuncts(cs []conjunct) DNF {
	sort.Slice(cs, func(i, j int) bool { return cs[i].key() < cs[j].key() })
	out := cs[:0]
	for i, c := range cs {
		if i == 0 || !c.equal(cs[i-1]) {
			out = append(out, c)
		}
	}
	d := DNF{conjuncts: out}
	d.absorb()
	return d
}

// absorb enforces the absorption invariant: if conjunct A is a strict subset
// of conjunct B, B is removed. O(n^2 * k) in the number/size of conjuncts,
// which is intentional -- this is the interning key, so it must be a fully
// reduced normal form under ACI + absorption.
func (d *DNF) absorb() {
	if len(d.conjuncts) < 2 {
		return
	}
	keep := make([]bool, len(d.conjuncts))
	for i := range keep {
		keep[i] = true
	}
	for i, ci := range d.conjuncts {
		if !keep[i] {
			continue
		}
		for j, cj := range d.conjuncts {
			if i == j || !keep[j] {
				continue
			}
			if ci.subsetOf(cj) && !ci.equal(cj) {
				keep[j] = false
			}
		}
	}
	out := d.conjuncts[:0]
	for i, c := range d.conjuncts {
		if keep[i] {
			out = append(out, c)
		}
	}
	d.conjuncts = out
}

// IsZero reports whether the value is the empty disjunction ("False").
func (d DNF) IsZero() bool { return len(d.conjuncts) == 0 }

// IsOne reports whether the value contains the empty conjunct alone
// ("True").
func (d DNF) IsOne() bool { return len(d.conjuncts) == 1 && len(d.conjuncts[0]) == 0 }

// Plus is the semiring addition: logical OR. Commutative, associative,
// idempotent, with identity Zero.
func Plus(a, b DNF) DNF {
	cs := make([]conjunct, 0, len(a.conjuncts)+len(b.conjuncts))
	cs = append(cs, a.conjuncts...)
	cs = append(cs, b.conjuncts...)
	return fromConjuncts(cs)
}

// Times is the semiring multiplication: pointwise union of every pair of
// conjuncts. Commutative, associative, idempotent, with identity One and
// annihilator Zero.
func Times(a, b DNF) DNF {
	if a.IsZero() || b.IsZero() {
		return Zero()
	}
	cs := make([]conjunct, 0, len(a.conjuncts)*len(b.conjuncts))
	for _, ca := range a.conjuncts {
		for _, cb := range b.conjuncts {
			cs = append(cs, ca.union(cb))
		}
	}
	return fromConjuncts(cs)
}

// Discharge removes leaf l from every conjunct of a, corresponding to
// assuming the hypothesis that l labels.
func Discharge(a DNF, l Leaf) DNF {
	cs := make([]conjunct, 0, len(a.conjuncts))
	for _, c := range a.conjuncts {
		cs = append(cs, c.without(l))
	}
	return fromConjuncts(cs)
}

// Quotient generalizes Discharge to remove, for every pair of conjuncts (one
// from a, one from b), the leaves of b's conjunct from a's conjunct. It is
// not used by the evaluator's hot path (the evaluator only ever discharges a
// single leaf at a time) but is carried forward from the original
// implog prototype, which exposed it alongside plus/times/discharge.
func Quotient(a, b DNF) DNF {
	if a.IsZero() || b.IsZero() {
		return Zero()
	}
	cs := make([]conjunct, 0, len(a.conjuncts)*len(b.conjuncts))
	for _, ca := range a.conjuncts {
		for _, cb := range b.conjuncts {
			cs = append(cs, ca.difference(cb))
		}
	}
	return fromConjuncts(cs)
}

// Equal reports structural equality after absorption -- the semiring
// equality this package guarantees (not full equivalence modulo a rule
// theory).
func Equal(a, b DNF) bool {
	if len(a.conjuncts) != len(b.conjuncts) {
		return false
	}
	for i := range a.conjuncts {
		if !a.conjuncts[i].equal(b.conjuncts[i]) {
			return false
		}
	}
	return true
}

func (d DNF) key() string {
	var b strings.Builder
	for _, c := range d.conjuncts {
		b.WriteByte(1)
		b.WriteString(c.key())
	}
	return b.String()
}

// RenderLeaf renders a single leaf as "relation(args)" for the engine's
// answer printer; the engine supplies how to resolve a relation symbol and
// tuple row id down to ground argument text.
type RenderLeaf func(l Leaf) string

// String renders a DNF value using the grammar from spec.md section 4.4:
// conjuncts joined by " + ", leaves within a conjunct joined by " * ",
// "False" for Zero, "True" for an empty conjunct appearing alone.
func (d DNF) String(render RenderLeaf) string {
	if d.IsZero() {
		return "False"
	}
	parts := make([]string, 0, len(d.conjuncts))
	for _, c := range d.conjuncts {
		if len(c) == 0 {
			parts = append(parts, "True")
			continue
		}
		leaves := make([]string, 0, len(c))
		for _, l := range c {
			leaves = append(leaves, render(l))
		}
		parts = append(parts, strings.Join(leaves, " * "))
	}
	return strings.Join(parts, " + ")
}

// ErrBadIntern is wrapped with context and panicked by Interner methods on a
// contract violation (out-of-range id).
var ErrBadIntern = errors.New("prov: id out of range")

// Interner assigns each distinct DNF value a dense, stable 32-bit id, so
// that a provenance value fits in a single store.Value table cell and
// structural equality reduces to pointer/id equality. Values are
// content-addressed: Intern(a) == Intern(b) iff a and b are structurally
// equal (after absorption).
type Interner struct {
	idOf   map[string]uint32
	values []DNF
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{idOf: make(map[string]uint32)}
}

// Intern returns the dense id for v, minting a new one in insertion order if
// v has not been seen before.
func (in *Interner) Intern(v DNF) uint32 {
	k := v.key()
	if id, ok := in.idOf[k]; ok {
		return id
	}
	id := uint32(len(in.values))
	in.values = append(in.values, v)
	in.idOf[k] = id
	return id
}

// Get returns the DNF value for a previously interned id. It panics (a
// contract violation, per spec.md section 7) if id was never minted.
func (in *Interner) Get(id uint32) DNF {
	if int(id) >= len(in.values) {
		panic(errors.Wrapf(ErrBadIntern, "id=%d size=%d", id, len(in.values)))
	}
	return in.values[id]
}

// Zero, One, Singleton, Plus, Times, and Discharge are convenience wrappers
// that operate directly on interned ids, fetching operands, computing the
// semiring operation, and re-interning the result -- the form every call
// site in the evaluator actually uses.

func (in *Interner) ZeroID() uint32      { return in.Intern(Zero()) }
func (in *Interner) OneID() uint32       { return in.Intern(One()) }
func (in *Interner) SingletonID(l Leaf) uint32 { return in.Intern(Singleton(l)) }

func (in *Interner) PlusID(a, b uint32) uint32 {
	return in.Intern(Plus(in.Get(a), in.Get(b)))
}

func (in *Interner) TimesID(a, b uint32) uint32 {
	return in.Intern(Times(in.Get(a), in.Get(b)))
}

func (in *Interner) DischargeID(a uint32, l Leaf) uint32 {
	return in.Intern(Discharge(in.Get(a), l))
}

func (in *Interner) QuotientID(a, b uint32) uint32 {
	return in.Intern(Quotient(in.Get(a), in.Get(b)))
}

// String renders the DNF value stored at id.
func (in *Interner) String(id uint32, render RenderLeaf) string {
	return in.Get(id).String(render)
}
