package prov

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/arrowgraph/implog/internal/ident"
	"github.com/stretchr/testify/require"
)

func randLeaf(r *rand.Rand) Leaf {
	return Leaf{Relation: ident.Symbol(r.Intn(5)), Tuple: uint64(r.Intn(5))}
}

func randDNF(r *rand.Rand) DNF {
	n := r.Intn(4)
	cs := make([]conjunct, 0, n)
	for i := 0; i < n; i++ {
		k := r.Intn(3)
		leaves := make([]Leaf, 0, k)
		for j := 0; j < k; j++ {
			leaves = append(leaves, randLeaf(r))
		}
		cs = append(cs, newConjunct(leaves))
	}
	return fromConjuncts(cs)
}

func TestPlusCommutativeAssociativeIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		a, b, c := randDNF(r), randDNF(r), randDNF(r)
		require.True(t, Equal(Plus(a, b), Plus(b, a)), "commutative")
		require.True(t, Equal(Plus(Plus(a, b), c), Plus(a, Plus(b, c))), "associative")
		require.True(t, Equal(Plus(a, a), a), "idempotent")
		require.True(t, Equal(Plus(a, Zero()), a), "identity")
	}
}

func TestTimesCommutativeAssociativeIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		a, b, c := randDNF(r), randDNF(r), randDNF(r)
		require.True(t, Equal(Times(a, b), Times(b, a)), "commutative")
		require.True(t, Equal(Times(Times(a, b), c), Times(a, Times(b, c))), "associative")
		require.True(t, Equal(Times(a, a), a), "idempotent")
		require.True(t, Equal(Times(a, One()), a), "identity")
		require.True(t, Equal(Times(a, Zero()), Zero()), "annihilator")
	}
}

func TestDistributivity(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		a, b, c := randDNF(r), randDNF(r), randDNF(r)
		lhs := Times(a, Plus(b, c))
		rhs := Plus(Times(a, b), Times(a, c))
		require.True(t, Equal(lhs, rhs), "a*(b+c) = a*b+a*c")
	}
}

func TestAbsorptionLaw(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 200; i++ {
		a, b := randDNF(r), randDNF(r)
		require.True(t, Equal(Plus(a, Times(a, b)), a), "a + a*b = a")
	}
}

func TestDischarge(t *testing.T) {
	l := Leaf{Relation: 1, Tuple: 1}
	require.True(t, Equal(Discharge(Singleton(l), l), One()))

	other := Leaf{Relation: 2, Tuple: 9}
	a := Singleton(other)
	require.True(t, Equal(Discharge(a, l), a))
}

func TestQuotient(t *testing.T) {
	a := Leaf{Relation: 1, Tuple: 1}
	b := Leaf{Relation: 2, Tuple: 2}
	conj := Conjunct(a, b)
	require.True(t, Equal(Quotient(conj, Singleton(a)), Singleton(b)))
	require.True(t, Equal(Quotient(Zero(), Singleton(a)), Zero()))
}

func TestInternerConsistency(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	in := NewInterner()
	seen := make(map[uint32]DNF)
	for i := 0; i < 500; i++ {
		v := randDNF(r)
		id := in.Intern(v)
		if existing, ok := seen[id]; ok {
			require.True(t, Equal(existing, v), "same id must mean structurally equal value")
		} else {
			seen[id] = v
		}
	}
	// Interning the same value twice must yield the same id.
	for i := 0; i < 50; i++ {
		v := randDNF(r)
		id1 := in.Intern(v)
		id2 := in.Intern(v)
		require.Equal(t, id1, id2)
	}
}

func TestStringRendering(t *testing.T) {
	render := func(l Leaf) string { return fmt.Sprintf("R%d(%d)", l.Relation, l.Tuple) }
	require.Equal(t, "False", Zero().String(render))
	require.Equal(t, "True", One().String(render))
	l := Leaf{Relation: 3, Tuple: 7}
	require.Equal(t, "R3(7)", Singleton(l).String(render))
	d := Plus(One(), Singleton(l))
	// One() absorbs Singleton(l): {} subset-of {l}, so {l} is removed.
	require.Equal(t, "True", d.String(render))
}

func TestBoolSemiringLaws(t *testing.T) {
	var a, b Semiring = boolSemiring(true), boolSemiring(false)
	require.Equal(t, "True", a.String(nil))
	require.Equal(t, "False", b.String(nil))
	require.Equal(t, "True", a.Plus(b).String(nil))
	require.Equal(t, "False", a.Times(b).String(nil))
	require.Equal(t, a, a.Discharge(Leaf{}))
}
