// Package store implements the row-oriented fact storage that the evaluator
// builds its data and label tables on top of: a packed, column-count-tagged
// buffer of fixed-width values (Rows), and a hash-indexed, delta-tracked,
// tombstoning layer on top of it (Table).
package store

import "github.com/pkg/errors"

// Value is the sole cell type in a Rows buffer. Interpretation (ground
// symbol, interned provenance id, or row id) is positional, decided by the
// column's role in the owning Table.
type Value = uint32

// RowID is a monotonically increasing index into a Rows buffer. Ids are
// never reused after deletion; tombstoning a row preserves its id.
type RowID = uint64

// Rows is a packed array of Value with a fixed column count. The invariant
// len(buffer) == numColumns*numRows holds after every operation. numRows is
// tracked explicitly rather than derived from len(buffer)/numColumns, since
// a zero-arity relation (a nullary atom like "A()") is legal and yields
// zero-column rows -- label tables hit this directly, minting a stable row
// id per speculated nullary tuple with no cell data to distinguish them.
type Rows struct {
	buffer     []Value
	numColumns int
	numRows    RowID
}

// NewRows creates an empty row store with the given column count. Zero
// columns is legal (see above); negative is not.
func NewRows(numColumns int) *Rows {
	if numColumns < 0 {
		panic(errors.Errorf("store: bad column count %d", numColumns))
	}
	return &Rows{numColumns: numColumns}
}

// NumColumns returns the fixed column width of every row.
func (r *Rows) NumColumns() int { return r.numColumns }

// NumRows returns the number of rows currently stored (including tombstoned
// ones -- Rows itself has no notion of deletion).
func (r *Rows) NumRows() RowID { return r.numRows }

func (r *Rows) checkID(id RowID) {
	if id >= r.NumRows() {
		panic(errors.Errorf("store: row id %d out of range (have %d rows)", id, r.NumRows()))
	}
}

// GetRow returns the numColumns-wide window for id. Out-of-range id is a
// contract violation.
func (r *Rows) GetRow(id RowID) []Value {
	r.checkID(id)
	start := int(id) * r.numColumns
	return r.buffer[start : start+r.numColumns]
}

// GetRowMut returns a mutable window onto row id, for in-place cell updates
// (e.g. filling a row obtained from AllocRow). Table never calls it: the
// map-table merge path tombstones the old row and appends a new one instead
// of mutating a stored row.
func (r *Rows) GetRowMut(id RowID) []Value {
	r.checkID(id)
	start := int(id) * r.numColumns
	return r.buffer[start : start+r.numColumns]
}

// AddRow appends row (which must have NumColumns entries) and returns its
// new id.
func (r *Rows) AddRow(row []Value) RowID {
	if len(row) != r.numColumns {
		panic(errors.Errorf("store: row length %d != %d columns", len(row), r.numColumns))
	}
	id := r.numRows
	r.buffer = append(r.buffer, row...)
	r.numRows++
	return id
}

// AllocRow appends a zero-filled row and returns its id, for callers that
// will fill it in place after allocation.
func (r *Rows) AllocRow() RowID {
	id := r.numRows
	for i := 0; i < r.numColumns; i++ {
		r.buffer = append(r.buffer, 0)
	}
	r.numRows++
	return id
}
