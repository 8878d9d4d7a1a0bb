package engine

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arrowgraph/implog/internal/ast"
	"github.com/arrowgraph/implog/internal/ident"
	"github.com/arrowgraph/implog/internal/prov"
	"github.com/arrowgraph/implog/internal/store"
)

// interpretQuestion runs q against the current (fixpoint) tables with
// semi_naive=false and writes one line per answer row to out, per spec.md
// section 4.4's "Questions" and section 6's "Standard output".
func (e *Environment) interpretQuestion(q ast.Question, out io.Writer) {
	order, invOrder := computeOrder(q.Body)
	as := e.query(q.Body, order, invOrder, false)

	for idx := 0; idx < as.NumRows(); idx++ {
		row := as.Row(idx)
		binding, provCols := row[:as.orderLen], row[as.orderLen:]

		parts := make([]string, len(q.Body))
		for i, atom := range q.Body {
			dnf := e.prov.Get(provCols[i])
			parts[i] = dnf.String(e.renderLeaf) + " : " + e.renderAtom(atom, binding, invOrder)
		}
		fmt.Fprintln(out, strings.Join(parts, ", "))
	}
}

// renderLeaf implements spec.md section 4.4's leaf-printing rule: look up
// the leaf's tuple in its relation's label table and render it as
// "relation(args)" using the identifier interner for the relation name.
func (e *Environment) renderLeaf(l prov.Leaf) string {
	name := e.idents.Name(l.Relation)
	row := e.labels[l.Relation].Row(store.RowID(l.Tuple))
	return name + "(" + joinValues(row) + ")"
}

// renderAtom renders a ground atom for the answer line: variables resolve
// through binding/invOrder, constants print as-is.
func (e *Environment) renderAtom(a ast.Atom, binding []store.Value, invOrder map[ident.Symbol]int) string {
	name := e.idents.Name(a.Relation)
	args := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		if t.IsVar {
			args[i] = strconv.FormatUint(uint64(binding[invOrder[t.Variable]]), 10)
		} else {
			args[i] = strconv.FormatUint(uint64(t.Constant), 10)
		}
	}
	return name + "(" + strings.Join(args, ",") + ")"
}

func joinValues(vs []store.Value) string {
	args := make([]string, len(vs))
	for i, v := range vs {
		args[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(args, ",")
}
