// Package ast defines the program representation produced by the parser and
// consumed by the evaluator: the contract fixed by spec.md section 6.
// Every relation and variable identifier is an opaque Symbol; constants are
// raw uint32 values.
package ast

import (
	"fmt"
	"strings"

	"github.com/arrowgraph/implog/internal/ident"
)

// Term is an argument of an atom: either a variable or a constant.
type Term struct {
	IsVar    bool
	Variable ident.Symbol // valid iff IsVar
	Constant uint32       // valid iff !IsVar
}

// Var constructs a variable term.
func Var(v ident.Symbol) Term { return Term{IsVar: true, Variable: v} }

// Const constructs a constant term.
func Const(c uint32) Term { return Term{Constant: c} }

func (t Term) String() string {
	if t.IsVar {
		return fmt.Sprintf("$%d", t.Variable)
	}
	return fmt.Sprintf("%d", t.Constant)
}

// Atom is relation(terms...).
type Atom struct {
	Relation ident.Symbol
	Terms    []Term
}

func (a Atom) String() string {
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		parts[i] = t.String()
	}
	return fmt.Sprintf("R%d(%s)", a.Relation, strings.Join(parts, ", "))
}

// Literal is a body element: either a plain atom (LHS == nil) or an arrow
// literal LHS -> RHS (LHS holds the hypothesis atoms of the arrow; the
// grammar only ever produces zero or one LHS atom, but the evaluator treats
// LHS generically as a list, per spec.md section 4.4's "for each lhs_atom").
type Literal struct {
	LHS []Atom
	RHS Atom
}

func (l Literal) String() string {
	if len(l.LHS) == 0 {
		return l.RHS.String()
	}
	parts := make([]string, len(l.LHS))
	for i, a := range l.LHS {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ") + " -> " + l.RHS.String()
}

// Rule is head :- body, optionally speculative (head was bracketed).
type Rule struct {
	Head      Atom
	Speculate bool
	Body      []Literal
}

func (r Rule) String() string {
	head := r.Head.String()
	if r.Speculate {
		head = "[" + head + "]"
	}
	if len(r.Body) == 0 {
		return head + " :- ."
	}
	parts := make([]string, len(r.Body))
	for i, l := range r.Body {
		parts[i] = l.String()
	}
	return head + " :- " + strings.Join(parts, ", ") + "."
}

// Question is "? body.": a flat atom list, no arrows.
type Question struct {
	Body []Atom
}

func (q Question) String() string {
	parts := make([]string, len(q.Body))
	for i, a := range q.Body {
		parts[i] = a.String()
	}
	return "? " + strings.Join(parts, ", ") + "."
}

// Statement is a Rule or a Question.
type Statement interface {
	isStatement()
}

func (Rule) isStatement()     {}
func (Question) isStatement() {}

// Atoms returns every atom mentioned by a statement (head, every lhs atom of
// every arrow literal, and every rhs atom) -- exactly the set of atoms for
// which spec.md's "register on every atom mention" rule applies.
func Atoms(stmt Statement) []Atom {
	switch s := stmt.(type) {
	case Rule:
		atoms := []Atom{s.Head}
		for _, lit := range s.Body {
			atoms = append(atoms, lit.LHS...)
			atoms = append(atoms, lit.RHS)
		}
		return atoms
	case Question:
		return append([]Atom(nil), s.Body...)
	default:
		panic("ast: unknown statement type")
	}
}
