package ast

import (
	"testing"

	"github.com/arrowgraph/implog/internal/ident"
	"github.com/stretchr/testify/require"
)

func TestAtomsRule(t *testing.T) {
	in := ident.New()
	x := in.Intern("x")
	e := in.Intern("E")
	a := in.Intern("A")
	p := in.Intern("P")

	rule := Rule{
		Head: Atom{Relation: p, Terms: []Term{Var(x)}},
		Body: []Literal{
			{LHS: []Atom{{Relation: a, Terms: nil}}, RHS: Atom{Relation: e, Terms: []Term{Var(x)}}},
		},
	}
	atoms := Atoms(rule)
	require.Len(t, atoms, 3) // head, lhs, rhs
	require.Equal(t, p, atoms[0].Relation)
	require.Equal(t, a, atoms[1].Relation)
	require.Equal(t, e, atoms[2].Relation)
}

func TestAtomsQuestion(t *testing.T) {
	in := ident.New()
	p := in.Intern("P")
	q := Question{Body: []Atom{{Relation: p}}}
	require.Equal(t, []Atom{{Relation: p}}, Atoms(q))
}

func TestTermConstructors(t *testing.T) {
	v := Var(ident.Symbol(3))
	require.True(t, v.IsVar)
	require.Equal(t, ident.Symbol(3), v.Variable)

	c := Const(42)
	require.False(t, c.IsVar)
	require.Equal(t, uint32(42), c.Constant)
}
