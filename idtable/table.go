// Package idtable implements the column-major result table at the heart of
// the query execution core: an IdTable maps (row, column) -> ValueId, with
// owning, mutable-view, and const-view flavors that share the same
// underlying column storage without copying.
//
// Grounded on sql/tables.go's cursor-shaped RowInserter/RowDeleter/
// RowUpdater ("open, process many rows, close") pattern, generalized from
// single-row edits to a bulk, column-major buffer, and on the original
// source's IdTable / IdTableView (referenced throughout
// AddCombinedRowToTable.h and JoinAlgorithms.h).
package idtable

import (
	"fmt"

	"github.com/ad-freiburg/qlever-engine/memlimit"
	"github.com/ad-freiburg/qlever-engine/valueid"
)

// Id is re-exported for callers that only need the table API, keeping a
// small re-export surface at the package boundary.
type Id = valueid.Id

// Table is an owning, column-major table of ValueIds. Column count is
// determined at construction and never changes afterwards.
//
// Table is not safe for concurrent use; callers needing concurrent access
// must synchronize externally.
type Table struct {
	columns []column
	budget  *memlimit.Budget
}

type column struct {
	data []Id
}

// New creates an empty Table with the given number of columns. budget may
// be nil, in which case allocations are unmetered (equivalent to
// memlimit.Unlimited()).
func New(numColumns int, budget *memlimit.Budget) *Table {
	t := &Table{
		columns: make([]column, numColumns),
		budget:  budget,
	}
	return t
}

// NumColumns returns the table's column count. Column indices in every
// public API of this package are in [0, NumColumns()).
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// NumRows returns the number of rows currently stored.
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0].data)
}

func (t *Table) checkCol(i int) {
	if i < 0 || i >= len(t.columns) {
		panic(fmt.Sprintf("idtable: column index %d out of range [0, %d)", i, len(t.columns)))
	}
}

// Column returns a mutable slice backing column i. The slice aliases the
// table's storage: writes through it are visible to the table, and further
// PushBack/Resize calls on the table may reallocate the column, which
// invalidates any slice obtained before the call.
func (t *Table) Column(i int) []Id {
	t.checkCol(i)
	return t.columns[i].data
}

func (t *Table) reserveBytes(extraRows int) error {
	if t.budget == nil || len(t.columns) == 0 {
		return nil
	}
	return t.budget.Allocate(int64(extraRows) * int64(len(t.columns)) * 8)
}

// Reserve ensures each column has capacity for at least n rows without
// reallocating on subsequent PushBack/Resize calls, mirroring
// IdTable::reserve.
func (t *Table) Reserve(n int) error {
	for i := range t.columns {
		if cap(t.columns[i].data) >= n {
			continue
		}
		grown := make([]Id, len(t.columns[i].data), n)
		copy(grown, t.columns[i].data)
		t.columns[i].data = grown
	}
	return nil
}

// Resize grows or shrinks every column to exactly n rows. Newly created
// rows are zero-initialized, i.e. all-UNDEF (valueid.Undefined is the zero
// value of Id). Resize may reallocate columns; see Column's doc comment.
func (t *Table) Resize(n int) error {
	old := t.NumRows()
	if n > old {
		if err := t.reserveBytes(n - old); err != nil {
			return err
		}
	}
	for i := range t.columns {
		c := &t.columns[i]
		switch {
		case n <= len(c.data):
			c.data = c.data[:n]
		default:
			if n <= cap(c.data) {
				oldLen := len(c.data)
				c.data = c.data[:n]
				clear(c.data[oldLen:])
			} else {
				grown := make([]Id, n)
				copy(grown, c.data)
				c.data = grown
			}
		}
	}
	return nil
}

// PushBack appends a single row, given as one ValueId per column in order.
// It panics if len(row) != NumColumns() -- a programmer error, not a
// recoverable runtime condition.
func (t *Table) PushBack(row []Id) error {
	if len(row) != len(t.columns) {
		panic(fmt.Sprintf("idtable: PushBack got %d values, table has %d columns", len(row), len(t.columns)))
	}
	n := t.NumRows()
	if err := t.Resize(n + 1); err != nil {
		return err
	}
	for i, v := range row {
		t.columns[i].data[n] = v
	}
	return nil
}

// Clear empties the table while keeping its column count and any reserved
// capacity (mirrors IdTable::clear).
func (t *Table) Clear() {
	for i := range t.columns {
		t.columns[i].data = t.columns[i].data[:0]
	}
}

// EraseColumn permanently removes column i, shifting subsequent column
// indices down by one. Rarely used outside of projection pushdown, kept
// for parity with the original source's erase_column.
func (t *Table) EraseColumn(i int) {
	t.checkCol(i)
	t.columns = append(t.columns[:i], t.columns[i+1:]...)
}

// Clone returns a deep copy of the table, including its own column backing
// arrays (so mutating the clone never affects the original).
func (t *Table) Clone() *Table {
	clone := &Table{
		columns: make([]column, len(t.columns)),
		budget:  t.budget,
	}
	for i, c := range t.columns {
		clone.columns[i].data = append([]Id(nil), c.data...)
	}
	return clone
}

// View returns a non-owning, mutable view over the table's full row range
// and all columns. Views are zero-copy: they alias the table's column
// slices directly.
func (t *Table) View() *View {
	cols := make([][]Id, len(t.columns))
	for i := range t.columns {
		cols[i] = t.columns[i].data
	}
	return &View{columns: cols}
}

// SubView returns a non-owning view of rows [firstRow, lastRow) across all
// columns, without copying. The view must be refreshed (by calling SubView
// again) after any PushBack/Resize on the parent table that could have
// reallocated columns.
func (t *Table) SubView(firstRow, lastRow int) *View {
	if firstRow < 0 || lastRow > t.NumRows() || firstRow > lastRow {
		panic(fmt.Sprintf("idtable: invalid sub-range [%d, %d) of %d rows", firstRow, lastRow, t.NumRows()))
	}
	cols := make([][]Id, len(t.columns))
	for i := range t.columns {
		cols[i] = t.columns[i].data[firstRow:lastRow]
	}
	return &View{columns: cols}
}

// View is a non-owning, zero-copy view over a set of columns and a row
// range. It never reallocates; PushBack and Resize are not available on a
// View, matching the original source's IdTableView (mutation only goes
// through the owning Table).
type View struct {
	columns [][]Id
}

// NewEmptyView returns a zero-row View with the given column count and no
// backing table. Used to stand in for an input that is bookkeeping-only
// (e.g. a join side known to be exhausted), where only NumColumns matters
// and Column(i) is never indexed with a row.
func NewEmptyView(numColumns int) *View {
	return &View{columns: make([][]Id, numColumns)}
}

// NumColumns returns the number of columns visible through this view.
func (v *View) NumColumns() int { return len(v.columns) }

// NumRows returns the number of rows visible through this view.
func (v *View) NumRows() int {
	if len(v.columns) == 0 {
		return 0
	}
	return len(v.columns[0])
}

// Column returns the (possibly column-subset-remapped) slice for column i.
func (v *View) Column(i int) []Id {
	if i < 0 || i >= len(v.columns) {
		panic(fmt.Sprintf("idtable: column index %d out of range [0, %d)", i, len(v.columns)))
	}
	return v.columns[i]
}

// Get returns the value at (row, col).
func (v *View) Get(row, col int) Id {
	return v.Column(col)[row]
}

// Set writes through to the underlying table's storage. Views never copy,
// so this mutates whatever Table the view was derived from.
func (v *View) Set(row, col int, id Id) {
	v.Column(col)[row] = id
}

// ColumnSubset returns a new View exposing only the named columns, in the
// given order, still zero-copy and still sharing the same row range.
func (v *View) ColumnSubset(cols []int) *View {
	out := make([][]Id, len(cols))
	for i, c := range cols {
		out[i] = v.Column(c)
	}
	return &View{columns: out}
}

// SubView narrows the row range further, without copying.
func (v *View) SubView(firstRow, lastRow int) *View {
	if firstRow < 0 || lastRow > v.NumRows() || firstRow > lastRow {
		panic(fmt.Sprintf("idtable: invalid sub-range [%d, %d) of %d rows", firstRow, lastRow, v.NumRows()))
	}
	cols := make([][]Id, len(v.columns))
	for i, c := range v.columns {
		cols[i] = c[firstRow:lastRow]
	}
	return &View{columns: cols}
}

// ConstView is a read-only wrapper around a View, used at API boundaries
// (e.g. join inputs) that must not mutate their operands. Go has no
// language-level const, so this is enforced by omitting Set from the
// exposed surface, matching the "owning table / mutable view / const view"
// three-way split used throughout the original source's IdTable family.
type ConstView struct {
	v *View
}

// AsConst wraps a View as a ConstView.
func (v *View) AsConst() ConstView { return ConstView{v: v} }

func (c ConstView) NumColumns() int     { return c.v.NumColumns() }
func (c ConstView) NumRows() int        { return c.v.NumRows() }
func (c ConstView) Column(i int) []Id   { return c.v.Column(i) }
func (c ConstView) Get(row, col int) Id { return c.v.Get(row, col) }
func (c ConstView) SubView(a, b int) ConstView {
	return c.v.SubView(a, b).AsConst()
}

// Arity is implemented by the phantom tag types below (Two, Three, Four,
// ...), each naming one fixed column count. Go has no const generics, so a
// bare integer type parameter carries no recoverable value at runtime --
// every instantiation of StaticView[N int] would be the same type int, and
// a caller could write AsStaticView[Two-shaped-tag](v, 3) with no way for
// the function to notice the mismatch. Giving each tag a Columns() method
// lets AsStaticView cross-check the type parameter against the runtime
// count it was actually called with.
type Arity interface {
	Columns() int
}

// Two, Three, and Four are the StaticView tags in current use; add more as
// operators need wider fixed-arity rows.
type Two struct{}
type Three struct{}
type Four struct{}

func (Two) Columns() int   { return 2 }
func (Three) Columns() int { return 3 }
func (Four) Columns() int  { return 4 }

// StaticView tags a View with a compile-time-known column count N, for
// operator code that wants the type system to document "this join/filter
// only ever touches N columns" even though the underlying storage is
// always dynamically sized. N is a phantom type parameter: it narrows the
// call site, not the runtime representation. This is the Go analogue of
// the original source's IdTable<N> compile-time column count, substituted
// by a runtime-checked trampoline since Go has no const generics.
type StaticView[N Arity] struct {
	*View
}

// AsStaticView asserts that v has exactly n columns and that the type
// parameter N names that same count, returning a StaticView tagged with N
// or an error if either assertion fails. n is passed explicitly alongside
// N (rather than trusting the caller's N alone) so a call site that
// declares the wrong tag for its own n -- AsStaticView[Three](v, 2) -- is
// rejected instead of silently mis-tagging the view: call site
// AsStaticView[Two](v, 2).
func AsStaticView[N Arity](v *View, n int) (StaticView[N], error) {
	var tag N
	if tag.Columns() != n {
		return StaticView[N]{}, fmt.Errorf(
			"idtable: AsStaticView called with n=%d but type parameter %T names %d columns",
			n, tag, tag.Columns())
	}
	if v.NumColumns() != n {
		return StaticView[N]{}, fmt.Errorf(
			"idtable: AsStaticView[%d] called on a view with %d columns", n, v.NumColumns())
	}
	return StaticView[N]{View: v}, nil
}
