// Package engine implements the semi-naive fixpoint evaluator: the sole
// reason this module exists. Everything else (ident, ast, parse, restrict,
// prov, store) exists to feed it a range-restricted statement list and let
// it print answers.
package engine

import (
	"io"
	"sort"

	"github.com/arrowgraph/implog/internal/ast"
	"github.com/arrowgraph/implog/internal/ident"
	"github.com/arrowgraph/implog/internal/prov"
	"github.com/arrowgraph/implog/internal/store"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Environment owns every relation's data table and label table, the
// provenance interner, and the identifier interner it holds purely for
// printing. It never compares a relation symbol against a variable symbol as
// if they were the same kind of thing, even though both are ident.Symbol --
// see the doc comment on internal/parse's statement method for why sharing
// one symbol space is safe.
type Environment struct {
	tables map[ident.Symbol]*store.Table // data tables, arity k+1
	labels map[ident.Symbol]*store.Table // label tables, arity k
	arity  map[ident.Symbol]int
	order  []ident.Symbol // registered relations, sorted by symbol

	prov   *prov.Interner
	idents *ident.Interner
	rules  []ast.Rule

	log hclog.Logger
}

// New creates an empty Environment. idents is the identifier interner the
// parser used to build the statements Interpret will be given; it is kept
// only so answers can be printed with relation names instead of raw symbol
// ids. log may be nil, in which case tracing is disabled.
func New(idents *ident.Interner, log hclog.Logger) *Environment {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Environment{
		tables: make(map[ident.Symbol]*store.Table),
		labels: make(map[ident.Symbol]*store.Table),
		arity:  make(map[ident.Symbol]int),
		prov:   prov.NewInterner(),
		idents: idents,
		log:    log,
	}
}

// registerAtom creates a's data and label tables on first mention, or checks
// arity agreement against an earlier registration. Arity mismatch is a
// program-level contract violation, per spec.md section 4.4's "Registration"
// -- it is fatal rather than recoverable because the parser and
// range-restriction pass have already committed to the program being
// well-formed by the time the evaluator runs.
func (e *Environment) registerAtom(a ast.Atom) {
	k := len(a.Terms)
	if existing, ok := e.arity[a.Relation]; ok {
		if existing != k {
			panic(errors.Errorf("engine: relation %q used with arity %d, previously %d",
				e.idents.Name(a.Relation), k, existing))
		}
		return
	}
	e.arity[a.Relation] = k
	e.tables[a.Relation] = store.NewMapTable(k)
	e.labels[a.Relation] = store.NewSetTable(k)
	e.order = append(e.order, a.Relation)
	sort.Slice(e.order, func(i, j int) bool { return e.order[i] < e.order[j] })
}

// Interpret processes stmts in order: every atom mentioned by a statement
// registers its tables (per the "register on every atom mention" open-question
// decision in spec.md section 9), rules are buffered, and each Question
// drives the buffered rules to fixpoint and prints its answers to out.
func (e *Environment) Interpret(stmts []ast.Statement, out io.Writer) {
	for _, stmt := range stmts {
		for _, a := range ast.Atoms(stmt) {
			e.registerAtom(a)
		}
		switch s := stmt.(type) {
		case ast.Rule:
			e.rules = append(e.rules, s)
		case ast.Question:
			e.interpretRules()
			e.interpretQuestion(s, out)
		}
	}
}

// ruleCtx is the per-rule, per-fixpoint-phase precomputed state: the body's
// rhs atom sequence (what query joins over) and the variable order derived
// from it.
type ruleCtx struct {
	rule     ast.Rule
	rhs      []ast.Atom
	order    []ident.Symbol
	invOrder map[ident.Symbol]int
}

// computeOrder implements spec.md section 4.4's "variable order": the
// variables appearing in the body's rhs atoms, left to right, first
// occurrence only.
func computeOrder(rhs []ast.Atom) ([]ident.Symbol, map[ident.Symbol]int) {
	var order []ident.Symbol
	invOrder := make(map[ident.Symbol]int)
	for _, a := range rhs {
		for _, t := range a.Terms {
			if !t.IsVar {
				continue
			}
			if _, ok := invOrder[t.Variable]; ok {
				continue
			}
			invOrder[t.Variable] = len(order)
			order = append(order, t.Variable)
		}
	}
	return order, invOrder
}

// interpretRules runs the buffered rule set to fixpoint, exactly as spec.md
// section 4.4's "Rule evaluation phase" describes: reset every table's
// delta, then alternate querying (step a) and inserting heads (step c),
// marking delta in between (step b), until nothing changes (step d).
func (e *Environment) interpretRules() {
	for _, rel := range e.order {
		e.tables[rel].ResetDelta()
	}

	ctxs := make([]ruleCtx, len(e.rules))
	for i, r := range e.rules {
		rhs := make([]ast.Atom, len(r.Body))
		for j, lit := range r.Body {
			rhs[j] = lit.RHS
		}
		order, invOrder := computeOrder(rhs)
		ctxs[i] = ruleCtx{rule: r, rhs: rhs, order: order, invOrder: invOrder}
	}

	for iter := 1; ; iter++ {
		answers := make([]*answerSet, len(ctxs))
		for i, c := range ctxs {
			answers[i] = e.query(c.rhs, c.order, c.invOrder, true)
		}

		for _, rel := range e.order {
			e.tables[rel].MarkDelta()
		}

		for i, c := range ctxs {
			e.applyAnswers(c, answers[i])
		}

		changed := false
		for _, rel := range e.order {
			t := e.tables[rel]
			if t.Changed() {
				changed = true
			}
			e.log.Trace("table rows", "iteration", iter, "relation", e.idents.Name(rel), "rows", t.NumRows())
		}
		e.log.Trace("fixpoint iteration", "n", iter, "changed", changed, "rules", len(ctxs))
		if !changed {
			return
		}
	}
}

// mergeProv is the data-table MergeFunc from spec.md section 4.4: combine
// two interned provenance ids by interning plus(old, new).
func (e *Environment) mergeProv(old, incoming store.Value) store.Value {
	return e.prov.PlusID(old, incoming)
}

// applyAnswers implements steps c's per-row work: substitute the head,
// compute body provenance, and insert (speculatively or not).
func (e *Environment) applyAnswers(c ruleCtx, as *answerSet) {
	width := as.orderLen + as.m
	n := as.NumRows()
	headArity := len(c.rule.Head.Terms)
	scratch := make([]store.Value, headArity+1)

	for idx := 0; idx < n; idx++ {
		var binding, provCols []store.Value
		if width > 0 {
			row := as.Row(idx)
			binding, provCols = row[:as.orderLen], row[as.orderLen:]
		}

		bodyProv := e.prov.OneID()
		for i, lit := range c.rule.Body {
			rhsProv := e.prov.OneID()
			if len(provCols) > 0 {
				rhsProv = provCols[i]
			}
			for _, lhsAtom := range lit.LHS {
				tuple := substitute(lhsAtom, binding, c.invOrder)
				if rowID, ok := e.labels[lhsAtom.Relation].Lookup(tuple); ok {
					leaf := prov.Leaf{Relation: lhsAtom.Relation, Tuple: uint64(rowID)}
					rhsProv = e.prov.DischargeID(rhsProv, leaf)
				}
			}
			bodyProv = e.prov.TimesID(bodyProv, rhsProv)
		}

		for p, t := range c.rule.Head.Terms {
			if t.IsVar {
				scratch[p] = binding[c.invOrder[t.Variable]]
			} else {
				scratch[p] = t.Constant
			}
		}

		var headProv store.Value
		if c.rule.Speculate {
			det := append([]store.Value(nil), scratch[:headArity]...)
			rowID := e.labels[c.rule.Head.Relation].InsertSet(det)
			leaf := prov.Leaf{Relation: c.rule.Head.Relation, Tuple: uint64(rowID)}
			headProv = e.prov.TimesID(e.prov.SingletonID(leaf), bodyProv)
		} else {
			headProv = bodyProv
		}
		scratch[headArity] = headProv
		e.tables[c.rule.Head.Relation].Insert(scratch, e.mergeProv)
	}
}

// substitute builds a's determinant row by resolving each term through
// binding/invOrder (variables) or using the constant directly.
func substitute(a ast.Atom, binding []store.Value, invOrder map[ident.Symbol]int) []store.Value {
	row := make([]store.Value, len(a.Terms))
	for i, t := range a.Terms {
		if t.IsVar {
			row[i] = binding[invOrder[t.Variable]]
		} else {
			row[i] = t.Constant
		}
	}
	return row
}
