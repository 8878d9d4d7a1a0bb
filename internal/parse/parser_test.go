package parse

import (
	"testing"

	"github.com/arrowgraph/implog/internal/ast"
	"github.com/arrowgraph/implog/internal/ident"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestParseBareFact(t *testing.T) {
	interner := ident.New()
	stmts, err := Parse("t", `E(1,2).`, interner)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	r, ok := stmts[0].(ast.Rule)
	require.True(t, ok)
	require.False(t, r.Speculate)
	require.Empty(t, r.Body)
	require.Len(t, r.Head.Terms, 2)
	require.False(t, r.Head.Terms[0].IsVar)
	require.Equal(t, uint32(1), r.Head.Terms[0].Constant)
}

func TestParseRuleWithBody(t *testing.T) {
	interner := ident.New()
	stmts, err := Parse("t", `P(x,z) :- E(x,y), P(y,z).`, interner)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	r := stmts[0].(ast.Rule)
	require.Len(t, r.Body, 2)
	require.Empty(t, r.Body[0].LHS)
	require.Empty(t, r.Body[1].LHS)
}

func TestParseSpeculativeEmptyBody(t *testing.T) {
	interner := ident.New()
	stmts, err := Parse("t", `[A()] :- .`, interner)
	require.NoError(t, err)
	r := stmts[0].(ast.Rule)
	require.True(t, r.Speculate)
	require.Empty(t, r.Body)
	require.Empty(t, r.Head.Terms)
}

func TestParseArrowLiteral(t *testing.T) {
	interner := ident.New()
	stmts, err := Parse("t", `G() :- A() -> P().`, interner)
	require.NoError(t, err)
	r := stmts[0].(ast.Rule)
	require.Len(t, r.Body, 1)
	require.Len(t, r.Body[0].LHS, 1)
}

func TestParseQuestion(t *testing.T) {
	interner := ident.New()
	stmts, err := Parse("t", `? P(x,y), Q(x).`, interner)
	require.NoError(t, err)
	q := stmts[0].(ast.Question)
	require.Len(t, q.Body, 2)
}

func TestParseSharesVariableSymbolsWithinStatement(t *testing.T) {
	interner := ident.New()
	stmts, err := Parse("t", `P(x,y) :- E(x,y).`, interner)
	require.NoError(t, err)
	r := stmts[0].(ast.Rule)
	require.Equal(t, r.Head.Terms[0].Variable, r.Body[0].RHS.Terms[0].Variable)
	require.Equal(t, r.Head.Terms[1].Variable, r.Body[0].RHS.Terms[1].Variable)
}

func TestParseErrorResyncsAndReportsAll(t *testing.T) {
	interner := ident.New()
	stmts, err := Parse("t", `E(1,2. E(3,4).`, interner)
	require.Error(t, err)
	// The one malformed statement is reported once, and the parser resyncs at
	// its '.' so the following statement still parses.
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
	require.Len(t, stmts, 1)
}

func TestParseMultipleStatements(t *testing.T) {
	interner := ident.New()
	stmts, err := Parse("t", `E(1,2). E(2,3). ? E(x,y).`, interner)
	require.NoError(t, err)
	require.Len(t, stmts, 3)
}
