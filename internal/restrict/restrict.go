// Package restrict implements the range-restriction check: spec.md section
// 6's external collaborator that rejects unsafe programs before the
// evaluator ever sees them. For every rule, every variable in the head and
// in every arrow's lhs atoms must also appear in some body literal's rhs
// atom. Questions are unrestricted.
package restrict

import (
	"fmt"

	"github.com/arrowgraph/implog/internal/ast"
	"github.com/arrowgraph/implog/internal/ident"
	"github.com/hashicorp/go-multierror"
)

func varsOf(a ast.Atom, into map[ident.Symbol]bool) {
	for _, t := range a.Terms {
		if t.IsVar {
			into[t.Variable] = true
		}
	}
}

// Check walks every rule in stmts and returns an aggregated error (via
// multierror, one cause per unsafe variable) if any rule is not
// range-restricted, or nil if the whole program is safe.
func Check(stmts []ast.Statement) error {
	var errs *multierror.Error
	for _, stmt := range stmts {
		rule, ok := stmt.(ast.Rule)
		if !ok {
			continue
		}
		bodyVars := make(map[ident.Symbol]bool)
		for _, lit := range rule.Body {
			varsOf(lit.RHS, bodyVars)
		}

		headVars := make(map[ident.Symbol]bool)
		varsOf(rule.Head, headVars)
		for v := range headVars {
			if !bodyVars[v] {
				errs = multierror.Append(errs, fmt.Errorf(
					"rule %q: head variable %d is not range-restricted by any body rhs", rule.String(), v))
			}
		}

		for _, lit := range rule.Body {
			for _, lhsAtom := range lit.LHS {
				lhsVars := make(map[ident.Symbol]bool)
				varsOf(lhsAtom, lhsVars)
				for v := range lhsVars {
					if !bodyVars[v] {
						errs = multierror.Append(errs, fmt.Errorf(
							"rule %q: arrow hypothesis variable %d is not range-restricted by any body rhs", rule.String(), v))
					}
				}
			}
		}
	}
	return errs.ErrorOrNil()
}
