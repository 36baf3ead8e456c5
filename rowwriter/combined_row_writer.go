// Package rowwriter implements CombinedRowWriter: the buffered, blockwise
// writer used by every join driver to turn pairs of matching input row
// indices into materialized output rows without writing one row at a time.
//
// Grounded directly on the original source's AddCombinedRowToIdTable
// (src/engine/AddCombinedRowToTable.h): addRow/addRows only record index
// pairs into a buffer; once the buffer reaches bufferSize, flush() copies
// every buffered row's columns from the two inputs into the output table in
// one pass per column, which is far more cache-friendly than copying whole
// rows one at a time across a column-major table.
package rowwriter

import (
	"fmt"

	"github.com/ad-freiburg/qlever-engine/cancel"
	"github.com/ad-freiburg/qlever-engine/idtable"
	"github.com/ad-freiburg/qlever-engine/localvocab"
	"github.com/ad-freiburg/qlever-engine/valueid"
)

// DefaultBufferSize matches AddCombinedRowToIdTable's default bufferSize_.
const DefaultBufferSize = 100_000

// BlockwiseCallback is invoked with the freshly flushed block of the result
// table and its merged local vocab, once per flush. It allows a consumer
// (e.g. a streaming HTTP response) to start working on early rows before
// the whole operation has finished. A nil callback is a no-op.
type BlockwiseCallback func(block *idtable.View, vocab *localvocab.LocalVocab)

type targetAndRowIndices struct {
	target  int
	indices [2]int
}

type targetAndRowIndex struct {
	target int
	index  int
}

// CombinedRowWriter accumulates (leftRow, rightRow) index pairs -- or,
// for OPTIONAL joins, single left-only indices -- and periodically flushes
// them into an owned output Table. The join columns are assumed to be the
// first numJoinColumns columns of both inputs.
//
// Not safe for concurrent use.
type CombinedRowWriter struct {
	numJoinColumns    int
	keepJoinColumns   bool
	bufferSize        int
	cancellationHandle *cancel.Handle
	blockwiseCallback  BlockwiseCallback

	inputLeft, inputRight *idtable.View
	result                *idtable.Table
	numUndefinedPerColumn []int

	indexBuffer         []targetAndRowIndices
	optionalIndexBuffer []targetAndRowIndex
	nextIndex           int

	mergedVocab   *localvocab.LocalVocab
	currentLeft   *localvocab.LocalVocab
	currentRight  *localvocab.LocalVocab

	onlyLeftInput bool
}

// Option configures a CombinedRowWriter at construction time.
type Option func(*CombinedRowWriter)

// WithBufferSize overrides DefaultBufferSize, mainly for tests that want to
// force frequent flushes.
func WithBufferSize(n int) Option {
	return func(w *CombinedRowWriter) { w.bufferSize = n }
}

// WithKeepJoinColumns controls whether the join columns are copied into the
// output. When false, the output table must have been sized for only the
// non-join payload columns.
func WithKeepJoinColumns(keep bool) Option {
	return func(w *CombinedRowWriter) { w.keepJoinColumns = keep }
}

// WithCancellationHandle wires a cancel.Handle, checked once per flush.
func WithCancellationHandle(h *cancel.Handle) Option {
	return func(w *CombinedRowWriter) { w.cancellationHandle = h }
}

// WithBlockwiseCallback wires a callback invoked with each flushed block.
func WithBlockwiseCallback(cb BlockwiseCallback) Option {
	return func(w *CombinedRowWriter) { w.blockwiseCallback = cb }
}

// New constructs a CombinedRowWriter writing into result, given the number
// of leading join columns in both inputs. The caller is responsible for
// sizing result's column count correctly: len(inputLeft columns) +
// len(inputRight columns) - numJoinColumns, minus numJoinColumns again if
// WithKeepJoinColumns(false) is passed.
func New(numJoinColumns int, inputLeft, inputRight *idtable.View, result *idtable.Table, opts ...Option) (*CombinedRowWriter, error) {
	w := &CombinedRowWriter{
		numJoinColumns:        numJoinColumns,
		keepJoinColumns:       true,
		bufferSize:            DefaultBufferSize,
		inputLeft:             inputLeft,
		inputRight:            inputRight,
		result:                result,
		numUndefinedPerColumn: make([]int, result.NumColumns()),
		mergedVocab:           localvocab.New(),
	}
	for _, o := range opts {
		o(w)
	}
	if err := w.checkNumColumns(); err != nil {
		return nil, err
	}
	w.indexBuffer = make([]targetAndRowIndices, 0, w.bufferSize)
	return w, nil
}

func (w *CombinedRowWriter) checkNumColumns() error {
	if w.bufferSize <= 0 {
		return fmt.Errorf("rowwriter: bufferSize must be positive")
	}
	if w.inputLeft.NumColumns() < w.numJoinColumns || w.inputRight.NumColumns() < w.numJoinColumns {
		return fmt.Errorf("rowwriter: inputs must have at least %d columns", w.numJoinColumns)
	}
	want := w.inputLeft.NumColumns() + w.inputRight.NumColumns() - w.numJoinColumns
	if !w.keepJoinColumns {
		want -= w.numJoinColumns
	}
	if w.result.NumColumns() != want {
		return fmt.Errorf("rowwriter: result has %d columns, expected %d", w.result.NumColumns(), want)
	}
	return nil
}

// NumUndefinedPerColumn flushes and returns, per output column, the number
// of UNDEF values written so far.
func (w *CombinedRowWriter) NumUndefinedPerColumn() ([]int, error) {
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return w.numUndefinedPerColumn, nil
}

// AddRow records that the next free output row is the combination of
// inputLeft row a and inputRight row b. Flushes automatically once the
// buffer reaches its configured size.
func (w *CombinedRowWriter) AddRow(a, b int) error {
	if w.onlyLeftInput {
		return fmt.Errorf("rowwriter: AddRow is illegal after SetOnlyLeftInputForOptionalJoin; only AddOptionalRow is permitted")
	}
	w.indexBuffer = append(w.indexBuffer, targetAndRowIndices{target: w.nextIndex, indices: [2]int{a, b}})
	w.nextIndex++
	if w.nextIndex >= w.bufferSize {
		return w.Flush()
	}
	return nil
}

// AddRows records the Cartesian product of rowIndicesA x rowIndicesB,
// flushing as needed. Mirrors addRows' fast path for a zero-column result
// (a pure existence join) that only needs to grow the row count.
func (w *CombinedRowWriter) AddRows(rowIndicesA, rowIndicesB []int) error {
	if w.result.NumColumns() == 0 {
		total := len(rowIndicesA) * len(rowIndicesB)
		for total > 0 {
			chunk := w.bufferSize - w.nextIndex
			if chunk > total {
				chunk = total
			}
			w.nextIndex += chunk
			total -= chunk
			if w.nextIndex >= w.bufferSize {
				if err := w.Flush(); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, a := range rowIndicesA {
		for _, b := range rowIndicesB {
			if err := w.AddRow(a, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddOptionalRow records that the next free output row copies inputLeft
// row a, with every inputRight-derived column set to UNDEF. Used by
// OPTIONAL joins for left rows with no matching right row.
func (w *CombinedRowWriter) AddOptionalRow(a int) error {
	w.optionalIndexBuffer = append(w.optionalIndexBuffer, targetAndRowIndex{target: w.nextIndex, index: a})
	w.nextIndex++
	if w.nextIndex >= w.bufferSize {
		return w.Flush()
	}
	return nil
}

// SetInput flushes any pending rows, merges each input's local vocab into
// the writer's merged vocab, and switches subsequent AddRow/AddOptionalRow
// calls to refer to indices in the new inputs. Used by lazy (blockwise)
// join drivers whose inputs change over time.
func (w *CombinedRowWriter) SetInput(inputLeft, inputRight *idtable.View, leftVocab, rightVocab *localvocab.LocalVocab) error {
	if err := w.flushBeforeInputChange(); err != nil {
		return err
	}
	w.mergeVocabs(leftVocab, rightVocab)
	w.inputLeft, w.inputRight = inputLeft, inputRight
	w.onlyLeftInput = false
	return w.checkNumColumns()
}

// SetOnlyLeftInputForOptionalJoin flushes any pending rows, merges only the
// current left vocab into the writer's merged vocab, and rebinds the left
// view to left. The right view is rebound to a zero-row placeholder with
// the column count the configured layout expects, since AddRow is no
// longer legal: only AddOptionalRow may follow, until the next SetInput
// call restores both real inputs.
//
// Grounded directly on setOnlyLeftInputForOptionalJoin
// (src/engine/AddCombinedRowToTable.h): used by OPTIONAL joins once the
// right-hand input is exhausted, so every remaining left row is emitted
// with its right-side columns UNDEF.
func (w *CombinedRowWriter) SetOnlyLeftInputForOptionalJoin(left *idtable.View) error {
	// flushBeforeInputChange clears currentLeft/currentRight, so the vocab
	// to (re-)merge must be captured before calling it.
	leftVocab := w.currentLeft
	if err := w.flushBeforeInputChange(); err != nil {
		return err
	}
	w.mergedVocab.MergeWith(leftVocab)
	w.currentLeft, w.currentRight = leftVocab, nil

	rightCols := w.result.NumColumns() - left.NumColumns() + w.numJoinColumns
	if !w.keepJoinColumns {
		rightCols += w.numJoinColumns
	}
	if rightCols < 0 {
		rightCols = 0
	}

	w.inputLeft = left
	w.inputRight = idtable.NewEmptyView(rightCols)
	w.onlyLeftInput = true
	return w.checkNumColumns()
}

func (w *CombinedRowWriter) mergeVocabs(left, right *localvocab.LocalVocab) {
	w.mergedVocab.MergeWith(left)
	w.mergedVocab.MergeWith(right)
	w.currentLeft, w.currentRight = left, right
}

func (w *CombinedRowWriter) flushBeforeInputChange() error {
	w.currentLeft, w.currentRight = nil, nil
	if w.nextIndex != 0 {
		return w.Flush()
	}
	if w.result.NumRows() == 0 {
		w.mergedVocab = localvocab.New()
	}
	return nil
}

// Flush writes every buffered row into the result table, invokes the
// blockwise callback (if any) with the newly written block, and clears the
// buffers. It is a no-op if nothing is buffered. Callers must call Flush
// once after the last AddRow/AddOptionalRow call, mirroring the original
// source's "resultTable() implicitly flushes, but you must still flush
// manually before the inputs go out of scope" contract.
func (w *CombinedRowWriter) Flush() error {
	if w.cancellationHandle != nil {
		if err := w.cancellationHandle.ThrowIfCancelled(); err != nil {
			return err
		}
	}
	if w.nextIndex == 0 {
		return nil
	}
	oldSize := w.result.NumRows()
	if err := w.result.Resize(oldSize + w.nextIndex); err != nil {
		return err
	}

	getJoinValue := func(a, b valueid.Id) valueid.Id {
		if a.IsUndefined() {
			return b
		}
		return a
	}

	nextResultCol := 0

	writeJoinColumn := func(colIdx, resultColIdx int) {
		colLeft := w.inputLeft.Column(colIdx)
		colRight := w.inputRight.Column(colIdx)
		resultCol := w.result.Column(resultColIdx)
		for _, e := range w.indexBuffer {
			v := getJoinValue(colLeft[e.indices[0]], colRight[e.indices[1]])
			if v.IsUndefined() {
				w.numUndefinedPerColumn[resultColIdx]++
			}
			resultCol[oldSize+e.target] = v
		}
		for _, e := range w.optionalIndexBuffer {
			v := colLeft[e.index]
			resultCol[oldSize+e.target] = v
			if v.IsUndefined() {
				w.numUndefinedPerColumn[resultColIdx]++
			}
		}
	}

	writeNonJoinColumn := func(fromLeft bool, colIdx, resultColIdx int) {
		var col []valueid.Id
		if fromLeft {
			col = w.inputLeft.Column(colIdx)
		} else {
			col = w.inputRight.Column(colIdx)
		}
		resultCol := w.result.Column(resultColIdx)
		idx := 0
		if !fromLeft {
			idx = 1
		}
		for _, e := range w.indexBuffer {
			v := col[e.indices[idx]]
			resultCol[oldSize+e.target] = v
			if v.IsUndefined() {
				w.numUndefinedPerColumn[resultColIdx]++
			}
		}
		for _, e := range w.optionalIndexBuffer {
			var v valueid.Id
			if fromLeft {
				v = col[e.index]
			} else {
				v = valueid.Undefined
			}
			resultCol[oldSize+e.target] = v
			if v.IsUndefined() {
				w.numUndefinedPerColumn[resultColIdx]++
			}
		}
	}

	for col := 0; col < w.numJoinColumns; col++ {
		if w.keepJoinColumns {
			writeJoinColumn(col, nextResultCol)
			nextResultCol++
		}
	}
	for col := w.numJoinColumns; col < w.inputLeft.NumColumns(); col++ {
		writeNonJoinColumn(true, col, nextResultCol)
		nextResultCol++
	}
	for col := w.numJoinColumns; col < w.inputRight.NumColumns(); col++ {
		writeNonJoinColumn(false, col, nextResultCol)
		nextResultCol++
	}

	w.indexBuffer = w.indexBuffer[:0]
	w.optionalIndexBuffer = w.optionalIndexBuffer[:0]
	w.nextIndex = 0

	if w.blockwiseCallback != nil {
		w.blockwiseCallback(w.result.SubView(oldSize, w.result.NumRows()), w.mergedVocab)
	}
	if w.result.NumRows() == 0 {
		w.mergedVocab = localvocab.New()
		if w.currentLeft != nil {
			w.mergedVocab.MergeWith(w.currentLeft)
		}
		if w.currentRight != nil {
			w.mergedVocab.MergeWith(w.currentRight)
		}
	}
	return nil
}

// ResultTable flushes and returns the accumulated result table.
func (w *CombinedRowWriter) ResultTable() (*idtable.Table, error) {
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return w.result, nil
}

// LocalVocab returns the writer's merged local vocab.
func (w *CombinedRowWriter) LocalVocab() *localvocab.LocalVocab {
	return w.mergedVocab
}
