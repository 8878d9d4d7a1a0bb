package restrict

import (
	"testing"

	"github.com/arrowgraph/implog/internal/ast"
	"github.com/arrowgraph/implog/internal/ident"
	"github.com/stretchr/testify/require"
)

func TestCheckAcceptsRestrictedRule(t *testing.T) {
	in := ident.New()
	x, y := in.Intern("x"), in.Intern("y")
	e, p := in.Intern("E"), in.Intern("P")

	rule := ast.Rule{
		Head: ast.Atom{Relation: p, Terms: []ast.Term{ast.Var(x), ast.Var(y)}},
		Body: []ast.Literal{{RHS: ast.Atom{Relation: e, Terms: []ast.Term{ast.Var(x), ast.Var(y)}}}},
	}
	require.NoError(t, Check([]ast.Statement{rule}))
}

func TestCheckRejectsUnrestrictedHeadVariable(t *testing.T) {
	in := ident.New()
	x, y := in.Intern("x"), in.Intern("y")
	e, p := in.Intern("E"), in.Intern("P")

	rule := ast.Rule{
		Head: ast.Atom{Relation: p, Terms: []ast.Term{ast.Var(x), ast.Var(y)}},
		Body: []ast.Literal{{RHS: ast.Atom{Relation: e, Terms: []ast.Term{ast.Var(x)}}}},
	}
	require.Error(t, Check([]ast.Statement{rule}))
}

func TestCheckRejectsUnrestrictedArrowHypothesis(t *testing.T) {
	in := ident.New()
	x := in.Intern("x")
	a, p, e := in.Intern("A"), in.Intern("P"), in.Intern("E")

	rule := ast.Rule{
		Head: ast.Atom{Relation: p},
		Body: []ast.Literal{
			{LHS: []ast.Atom{{Relation: a, Terms: []ast.Term{ast.Var(x)}}}, RHS: ast.Atom{Relation: e}},
		},
	}
	require.Error(t, Check([]ast.Statement{rule}))
}

func TestCheckIgnoresQuestions(t *testing.T) {
	in := ident.New()
	x := in.Intern("x")
	p := in.Intern("P")
	q := ast.Question{Body: []ast.Atom{{Relation: p, Terms: []ast.Term{ast.Var(x)}}}}
	require.NoError(t, Check([]ast.Statement{q}))
}
