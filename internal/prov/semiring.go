package prov

// Semiring describes a provenance algebra as an interface:
// {zero, one, plus, times, discharge, print}. It has no singleton
// constructor. The evaluator does not go through this interface: it calls
// Interner's id-based wrappers over DNF directly, and DNF itself does not
// implement Semiring, so swapping in another representation means changing
// the evaluator's calls.
type Semiring interface {
	Zero() Semiring
	One() Semiring
	Plus(Semiring) Semiring
	Times(Semiring) Semiring
	Discharge(Leaf) Semiring
	String(RenderLeaf) string
}

// boolSemiring is a trivial two-element semiring (no provenance tracking at
// all) and the only implementation of Semiring; it is exercised by this
// package's tests only.
type boolSemiring bool

func (b boolSemiring) Zero() Semiring                { return boolSemiring(false) }
func (b boolSemiring) One() Semiring                 { return boolSemiring(true) }
func (b boolSemiring) Plus(o Semiring) Semiring      { return boolSemiring(bool(b) || bool(o.(boolSemiring))) }
func (b boolSemiring) Times(o Semiring) Semiring     { return boolSemiring(bool(b) && bool(o.(boolSemiring))) }
func (b boolSemiring) Discharge(Leaf) Semiring       { return b }
func (b boolSemiring) String(RenderLeaf) string {
	if b {
		return "True"
	}
	return "False"
}

var (
	_ Semiring = boolSemiring(false)
)
