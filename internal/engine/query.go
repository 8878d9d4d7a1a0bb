package engine

import (
	"github.com/arrowgraph/implog/internal/ast"
	"github.com/arrowgraph/implog/internal/ident"
	"github.com/arrowgraph/implog/internal/store"
)

// answerSet is the "answer relation" of spec.md section 4.4's query: rows of
// width orderLen+m, variable bindings in [0, orderLen) followed by one
// provenance id per body atom in [orderLen, orderLen+m). The degenerate
// orderLen == m == 0 case (an empty atom sequence) leaves rows zero-width, so
// its row count can't be derived from len(rows) and is tracked by count
// alone -- see the "Open question"
// on empty-body rules in spec.md section 9.
type answerSet struct {
	orderLen int
	m        int
	rows     []store.Value
	count    int
}

func (a *answerSet) width() int { return a.orderLen + a.m }

func (a *answerSet) NumRows() int {
	if w := a.width(); w > 0 {
		return len(a.rows) / w
	}
	return a.count
}

func (a *answerSet) Row(i int) []store.Value {
	w := a.width()
	return a.rows[i*w : i*w+w]
}

// query is spec.md section 4.4's join algorithm. atoms is the body's rhs
// sequence (for rule evaluation) or a question's flat atom list. order and
// invOrder come from computeOrder over the same atoms. semiNaive selects
// between the full join (questions, and non-semi-naive use generally) and
// the delta-anchored shuffle join (rule evaluation).
func (e *Environment) query(atoms []ast.Atom, order []ident.Symbol, invOrder map[ident.Symbol]int, semiNaive bool) *answerSet {
	m := len(atoms)
	orderLen := len(order)
	as := &answerSet{orderLen: orderLen, m: m}

	if m == 0 {
		// The degenerate case spec.md section 9 requires handling explicitly:
		// exactly one derivation, no bindings, no provenance columns. Since
		// a rule's head-insertion step is idempotent, firing this on every
		// fixpoint iteration rather than only the first is harmless.
		as.count = 1
		return as
	}

	width := orderLen + m
	if !semiNaive {
		e.join(atoms, invOrder, false, func(binding, captured []store.Value) {
			row := make([]store.Value, width)
			copy(row, binding)
			copy(row[orderLen:], captured)
			as.rows = append(as.rows, row...)
		})
		return as
	}

	for i := 0; i < m; i++ {
		shuffled := append([]ast.Atom(nil), atoms...)
		shuffled[0], shuffled[i] = shuffled[i], shuffled[0]

		// origIndex[d] is the original body-literal index whose provenance
		// was captured at recursion depth d in the shuffled join -- the
		// "undo the shuffle" step of spec.md section 4.4.
		origIndex := make([]int, m)
		for d := range origIndex {
			origIndex[d] = d
		}
		origIndex[0] = i
		origIndex[i] = 0

		e.join(shuffled, invOrder, true, func(binding, captured []store.Value) {
			row := make([]store.Value, width)
			copy(row, binding)
			for d := 0; d < m; d++ {
				row[orderLen+origIndex[d]] = captured[d]
			}
			as.rows = append(as.rows, row...)
		})
	}
	return as
}

// join performs the recursive left-to-right backtracking join over atoms,
// calling emit once per full match with a copy of the variable assignment
// and the per-atom provenance cells captured along the way. When
// restrictFirst is true, only atom 0 is limited to rows added since the last
// mark_delta -- every other atom scans its whole table.
func (e *Environment) join(atoms []ast.Atom, invOrder map[ident.Symbol]int, restrictFirst bool, emit func(binding, captured []store.Value)) {
	order := len(invOrder)
	// invOrder comes from computeOrder over these same atoms (possibly in
	// shuffled order), so it has exactly one entry per distinct variable and
	// len(invOrder) is the width of the assignment.
	assignment := make([]store.Value, order)
	bound := make([]bool, order)
	captured := make([]store.Value, len(atoms))

	var rec func(depth int)
	rec = func(depth int) {
		if depth == len(atoms) {
			emit(append([]store.Value(nil), assignment...), append([]store.Value(nil), captured...))
			return
		}
		atom := atoms[depth]
		tbl := e.tables[atom.Relation]
		anchored := depth == 0 && restrictFirst
		cur := tbl.Rows(anchored)
		for cur.Next() {
			row := cur.Row()
			var newlyBound []int
			ok := true
			for p, t := range atom.Terms {
				cell := row[p]
				if t.IsVar {
					idx := invOrder[t.Variable]
					if bound[idx] {
						if assignment[idx] != cell {
							ok = false
							break
						}
					} else {
						assignment[idx] = cell
						bound[idx] = true
						newlyBound = append(newlyBound, idx)
					}
				} else if cell != t.Constant {
					ok = false
					break
				}
			}
			if ok {
				captured[depth] = row[len(row)-1]
				rec(depth + 1)
			}
			for _, idx := range newlyBound {
				bound[idx] = false
			}
		}
	}
	rec(0)
}
