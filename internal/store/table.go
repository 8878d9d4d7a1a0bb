package store

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// MergeFunc combines an existing provenance cell with an incoming one on a
// determinant collision. It must be idempotent on equal inputs for fixpoint
// termination to be decidable (Table's insert fast-path relies on
// merge(old, old) == old).
type MergeFunc func(old, incoming Value) Value

// Table is a keyed row store: a Rows buffer plus a hash index on a
// determinant prefix of each row, a tombstone set for logical deletion, and
// a delta watermark separating "old" rows from rows added in the current
// fixpoint iteration.
//
// A Table with determinantLen == NumColumns()-1 is the "map" flavor (rows
// are determinant++[value], merged on key collision); one with
// determinantLen == NumColumns() is the "set" flavor (idempotent insert,
// used only by label tables).
type Table struct {
	rows           *Rows
	determinantLen int
	index          map[uint64][]RowID
	tomb           []RowID // sorted ascending
	delta          RowID
}

// NewMapTable creates a map-flavored table of arity k (k determinant columns
// plus one provenance/value column).
func NewMapTable(k int) *Table {
	return &Table{
		rows:           NewRows(k + 1),
		determinantLen: k,
		index:          make(map[uint64][]RowID),
	}
}

// NewSetTable creates a set-flavored table of arity k (rows are keys only,
// no value column). Used for label tables.
func NewSetTable(k int) *Table {
	return &Table{
		rows:           NewRows(k),
		determinantLen: k,
		index:          make(map[uint64][]RowID),
	}
}

// Arity returns the determinant width (k, not k+1).
func (t *Table) Arity() int { return t.determinantLen }

func hashDeterminant(det []Value) uint64 {
	var buf [4]byte
	h := xxhash.New()
	for _, v := range det {
		binary.LittleEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}
	return h.Sum64()
}

func equalDeterminant(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lookup returns the row id whose determinant matches det, probing the hash
// bucket and comparing cell-for-cell.
func (t *Table) lookup(det []Value) (RowID, bool) {
	h := hashDeterminant(det)
	for _, id := range t.index[h] {
		if equalDeterminant(t.rows.GetRow(id)[:t.determinantLen], det) {
			return id, true
		}
	}
	return 0, false
}

func (t *Table) indexInsert(h uint64, id RowID) {
	t.index[h] = append(t.index[h], id)
}

func (t *Table) indexRemove(h uint64, id RowID) bool {
	bucket := t.index[h]
	for i, rid := range bucket {
		if rid == id {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			if len(bucket) == 0 {
				delete(t.index, h)
			} else {
				t.index[h] = bucket
			}
			return true
		}
	}
	return false
}

// Insert is the map-table insert. row must have Arity()+1 entries. On a
// determinant collision, merge combines the existing and incoming value
// cells; if the result equals the existing value, the row is left alone
// (no new id is minted -- this is what makes fixpoint termination
// decidable). Otherwise the old row is tombstoned and a new one is
// appended with the merged value.
func (t *Table) Insert(row []Value, merge MergeFunc) ([]Value, RowID) {
	if len(row) != t.determinantLen+1 {
		panic(errors.Errorf("store: insert row length %d != %d", len(row), t.determinantLen+1))
	}
	det := row[:t.determinantLen]
	if id, ok := t.lookup(det); ok {
		old := t.rows.GetRow(id)[t.determinantLen]
		merged := merge(old, row[t.determinantLen])
		if merged == old {
			return t.rows.GetRow(id), id
		}
		t.Delete(id)
		newRow := make([]Value, t.determinantLen+1)
		copy(newRow, det)
		newRow[t.determinantLen] = merged
		newID := t.rows.AddRow(newRow)
		t.indexInsert(hashDeterminant(det), newID)
		return t.rows.GetRow(newID), newID
	}
	newID := t.rows.AddRow(row)
	t.indexInsert(hashDeterminant(det), newID)
	return t.rows.GetRow(newID), newID
}

// Lookup probes a set table (or a map table's determinant) for key, without
// inserting. Used by the evaluator to test whether a hypothesis tuple has
// already been labeled, without minting a new label row just to find out.
func (t *Table) Lookup(key []Value) (RowID, bool) {
	if len(key) != t.determinantLen {
		panic(errors.Errorf("store: lookup key length %d != %d", len(key), t.determinantLen))
	}
	return t.lookup(key)
}

// Row returns the full stored row for id, bypassing the tombstone set. Label
// tables never delete rows, so this is always safe there; callers elsewhere
// are responsible for not calling it on a tombstoned id.
func (t *Table) Row(id RowID) []Value {
	return t.rows.GetRow(id)
}

// Get looks up determinant in a map table, returning its provenance cell and
// row id.
func (t *Table) Get(determinant []Value) (Value, RowID, bool) {
	if len(determinant) != t.determinantLen {
		panic(errors.Errorf("store: get determinant length %d != %d", len(determinant), t.determinantLen))
	}
	id, ok := t.lookup(determinant)
	if !ok {
		return 0, 0, false
	}
	return t.rows.GetRow(id)[t.determinantLen], id, true
}

// InsertSet is the set-table insert used by label tables: idempotent,
// returning the existing row id on a duplicate.
func (t *Table) InsertSet(row []Value) RowID {
	if len(row) != t.determinantLen {
		panic(errors.Errorf("store: set-insert row length %d != %d", len(row), t.determinantLen))
	}
	if id, ok := t.lookup(row); ok {
		return id
	}
	newID := t.rows.AddRow(row)
	t.indexInsert(hashDeterminant(row), newID)
	return newID
}

// Delete tombstones row_id: removes its index entry (matched by id, so the
// right row is tombstoned even under hash collisions) and records it as
// deleted. Deleting an id twice, or one never inserted, is a contract
// violation.
func (t *Table) Delete(id RowID) {
	row := t.rows.GetRow(id)
	det := row[:t.determinantLen]
	h := hashDeterminant(det)
	if !t.indexRemove(h, id) {
		panic(errors.Errorf("store: double-delete or missing row id %d", id))
	}
	i := sort.Search(len(t.tomb), func(i int) bool { return t.tomb[i] >= id })
	t.tomb = append(t.tomb, 0)
	copy(t.tomb[i+1:], t.tomb[i:])
	t.tomb[i] = id
}

// NumRows returns the number of rows in the backing Rows buffer, including
// tombstoned ones. Use Cursor to iterate live rows.
func (t *Table) NumRows() RowID { return t.rows.NumRows() }

// ResetDelta sets the delta watermark to 0, so that a subsequent Rows(true)
// iteration sees every row. Called at the start of a rule-evaluation phase.
func (t *Table) ResetDelta() { t.delta = 0 }

// MarkDelta sets the delta watermark to the current row count, so that a
// subsequent Rows(true) iteration sees only rows added after this call.
// Called after every fixpoint iteration.
func (t *Table) MarkDelta() { t.delta = t.rows.NumRows() }

// Changed reports whether any rows were appended since the last MarkDelta.
func (t *Table) Changed() bool { return t.delta != t.rows.NumRows() }

// Cursor iterates live (non-tombstoned) rows, optionally restricted to rows
// added since the last MarkDelta.
type Cursor struct {
	t       *Table
	next    RowID
	tombIdx int
	cur     RowID
}

// Rows returns a cursor over all live rows (afterDelta == false) or only
// rows added since the last MarkDelta (afterDelta == true).
func (t *Table) Rows(afterDelta bool) *Cursor {
	start := RowID(0)
	if afterDelta {
		start = t.delta
	}
	idx := sort.Search(len(t.tomb), func(i int) bool { return t.tomb[i] >= start })
	return &Cursor{t: t, next: start, tombIdx: idx}
}

// Next advances the cursor, returning false when iteration is exhausted.
func (c *Cursor) Next() bool {
	for c.tombIdx < len(c.t.tomb) && c.t.tomb[c.tombIdx] == c.next {
		c.next++
		c.tombIdx++
	}
	if c.next >= c.t.rows.NumRows() {
		return false
	}
	c.cur = c.next
	c.next++
	return true
}

// Row returns the current row's full contents (determinant plus value
// column, for map tables; determinant only, for set tables).
func (c *Cursor) Row() []Value { return c.t.rows.GetRow(c.cur) }

// RowID returns the current row's id.
func (c *Cursor) RowID() RowID { return c.cur }
