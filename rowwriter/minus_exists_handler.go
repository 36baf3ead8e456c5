package rowwriter

import (
	"fmt"
	"sort"

	"github.com/ad-freiburg/qlever-engine/cancel"
	"github.com/ad-freiburg/qlever-engine/chunked"
	"github.com/ad-freiburg/qlever-engine/idtable"
	"github.com/ad-freiburg/qlever-engine/localvocab"
	"github.com/ad-freiburg/qlever-engine/valueid"
)

// MinusAndExistsChunkSize matches detail::CHUNK_SIZE in the original
// source: the granularity at which chunked copies check cancellation.
const MinusAndExistsChunkSize = chunked.DefaultChunkSize

// rowHandlerImpl is the strategy interface distinguishing MINUS from
// EXISTS: both share the same buffering and flush machinery, and differ
// only in how a contiguous range of the single (left) input is turned into
// output rows.
//
// matchingIndices is the sorted, deduplicated set of indices recorded via
// AddRow; nonMatchingIndices is the set recorded via AddOptionalRow. MINUS
// uses matchingIndices (rows to exclude from the copy); EXISTS uses
// nonMatchingIndices (rows to mark false in the appended boolean column).
type rowHandlerImpl interface {
	handle(result *idtable.Table, matchingIndices, nonMatchingIndices []int,
		startIndex, endIndex int, inputLeft *idtable.View, h *cancel.Handle) error
}

// MinusRowHandler implements SPARQL MINUS: it copies every row of its
// (sorted) input range except the rows recorded via AddRow, which are the
// rows known to have a match on the right-hand side of the MINUS. The range
// of a flush runs from the first to the last index recorded via AddRow or
// AddOptionalRow since the previous flush; rows outside it are not copied.
//
// Grounded on the original source's MinusImpl in
// src/engine/MinusAndExistsRowHandler.h.
type MinusRowHandler struct {
	*minusAndExistsRowHandler
}

// NewMinusRowHandler constructs a MinusRowHandler writing into an output
// table with the same column count as the input.
func NewMinusRowHandler(numJoinColumns int, output *idtable.Table, opts ...HandlerOption) *MinusRowHandler {
	return &MinusRowHandler{newMinusAndExistsRowHandler(numJoinColumns, output, minusImpl{}, opts...)}
}

// ExistsRowHandler implements the SPARQL EXISTS filter: it copies every row
// of its input range unchanged and appends one boolean column, true unless
// the row's index was recorded via AddOptionalRow (no match found). The
// range is delimited as for MinusRowHandler: from the first to the last
// index recorded via AddRow or AddOptionalRow since the previous flush.
//
// Grounded on the original source's ExistsImpl in
// src/engine/MinusAndExistsRowHandler.h.
type ExistsRowHandler struct {
	*minusAndExistsRowHandler
}

// NewExistsRowHandler constructs an ExistsRowHandler writing into an output
// table with one more column than the input (the appended EXISTS flag).
func NewExistsRowHandler(numJoinColumns int, output *idtable.Table, opts ...HandlerOption) *ExistsRowHandler {
	return &ExistsRowHandler{newMinusAndExistsRowHandler(numJoinColumns, output, existsImpl{}, opts...)}
}

// HandlerOption configures a minusAndExistsRowHandler.
type HandlerOption func(*minusAndExistsRowHandler)

// WithHandlerCancellation wires a cancel.Handle, checked once per flush and
// once per chunk of copying within a flush.
func WithHandlerCancellation(h *cancel.Handle) HandlerOption {
	return func(w *minusAndExistsRowHandler) { w.cancellationHandle = h }
}

// WithHandlerBlockwiseCallback wires a callback invoked with each flushed
// block.
func WithHandlerBlockwiseCallback(cb BlockwiseCallback) HandlerOption {
	return func(w *minusAndExistsRowHandler) { w.blockwiseCallback = cb }
}

type minusAndExistsRowHandler struct {
	impl           rowHandlerImpl
	numJoinColumns int

	inputLeft *idtable.View
	result    *idtable.Table

	numUndefinedPerColumn []int

	indexBuffer         []int // matching indices, strictly increasing
	optionalIndexBuffer []int // non-matching indices

	haveStart bool
	startIndex, endIndex int

	cancellationHandle *cancel.Handle
	blockwiseCallback  BlockwiseCallback

	mergedVocab  *localvocab.LocalVocab
	currentVocab *localvocab.LocalVocab
}

func newMinusAndExistsRowHandler(numJoinColumns int, output *idtable.Table, impl rowHandlerImpl, opts ...HandlerOption) *minusAndExistsRowHandler {
	w := &minusAndExistsRowHandler{
		impl:                  impl,
		numJoinColumns:        numJoinColumns,
		result:                output,
		numUndefinedPerColumn: make([]int, output.NumColumns()),
		mergedVocab:           localvocab.New(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// AddRow records index as an element of the "matching" set for this flush
// window. Indices must be supplied in non-decreasing order; consecutive
// duplicates are silently collapsed.
func (w *minusAndExistsRowHandler) AddRow(index int) {
	if len(w.indexBuffer) == 0 || w.indexBuffer[len(w.indexBuffer)-1] < index {
		w.indexBuffer = append(w.indexBuffer, index)
	}
	w.extendRange(index)
}

// AddOptionalRow records index as an element of the "non-matching" set.
func (w *minusAndExistsRowHandler) AddOptionalRow(index int) {
	w.optionalIndexBuffer = append(w.optionalIndexBuffer, index)
	w.extendRange(index)
}

func (w *minusAndExistsRowHandler) extendRange(index int) {
	if !w.haveStart {
		w.haveStart = true
		w.startIndex = index
	}
	w.endIndex = index + 1
}

// SetInput flushes any pending rows, merges vocab, and switches subsequent
// AddRow/AddOptionalRow calls to refer to indices in the new input.
func (w *minusAndExistsRowHandler) SetInput(input *idtable.View, vocab *localvocab.LocalVocab) error {
	if err := w.flushBeforeInputChange(); err != nil {
		return err
	}
	w.mergedVocab.MergeWith(vocab)
	w.currentVocab = vocab
	if input.NumColumns() < w.numJoinColumns {
		return fmt.Errorf("rowwriter: input has %d columns, fewer than %d join columns", input.NumColumns(), w.numJoinColumns)
	}
	w.inputLeft = input
	return nil
}

func (w *minusAndExistsRowHandler) flushBeforeInputChange() error {
	w.currentVocab = nil
	if w.haveStart {
		return w.Flush()
	}
	if w.result.NumRows() == 0 {
		w.mergedVocab = localvocab.New()
	}
	return nil
}

// Flush writes the buffered range into the result table via the strategy
// implementation, invokes the blockwise callback, and clears the buffers.
func (w *minusAndExistsRowHandler) Flush() error {
	if w.cancellationHandle != nil {
		if err := w.cancellationHandle.ThrowIfCancelled(); err != nil {
			return err
		}
	}
	if !w.haveStart {
		return nil
	}
	if err := w.impl.handle(w.result, w.indexBuffer, w.optionalIndexBuffer, w.startIndex, w.endIndex, w.inputLeft, w.cancellationHandle); err != nil {
		return err
	}

	w.indexBuffer = w.indexBuffer[:0]
	w.optionalIndexBuffer = w.optionalIndexBuffer[:0]
	w.haveStart = false
	w.startIndex, w.endIndex = 0, 0

	if w.blockwiseCallback != nil {
		w.blockwiseCallback(w.result.View(), w.mergedVocab)
	}
	if w.result.NumRows() == 0 {
		w.mergedVocab = localvocab.New()
		if w.currentVocab != nil {
			w.mergedVocab.MergeWith(w.currentVocab)
		}
	}
	return nil
}

// ResultTable flushes and returns the accumulated result table.
func (w *minusAndExistsRowHandler) ResultTable() (*idtable.Table, error) {
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return w.result, nil
}

// LocalVocab returns the handler's merged local vocab.
func (w *minusAndExistsRowHandler) LocalVocab() *localvocab.LocalVocab {
	return w.mergedVocab
}

// minusImpl copies every row of [startIndex, endIndex) from inputLeft
// except those listed in matchingIndices (assumed sorted, deduplicated).
type minusImpl struct{}

func (minusImpl) handle(result *idtable.Table, matchingIndices, _ []int, startIndex, endIndex int, inputLeft *idtable.View, h *cancel.Handle) error {
	if !sort.IntsAreSorted(matchingIndices) {
		return fmt.Errorf("rowwriter: MINUS matching indices must be sorted")
	}
	oldSize := result.NumRows()
	if endIndex-startIndex < len(matchingIndices) {
		return fmt.Errorf("rowwriter: MINUS range smaller than its matching-index set")
	}
	if err := result.Resize(oldSize + (endIndex - startIndex - len(matchingIndices))); err != nil {
		return err
	}
	for col := 0; col < result.NumColumns(); col++ {
		inputCol := inputLeft.Column(col)
		target := result.Column(col)
		writeAt := oldSize
		last := startIndex
		for _, idx := range matchingIndices {
			n := idx - last
			if err := chunked.Copy(target, writeAt, inputCol[last:last+n], MinusAndExistsChunkSize, h); err != nil {
				return err
			}
			writeAt += n
			last = idx + 1
		}
		n := endIndex - last
		if err := chunked.Copy(target, writeAt, inputCol[last:last+n], MinusAndExistsChunkSize, h); err != nil {
			return err
		}
	}
	return nil
}

// existsImpl copies every row of [startIndex, endIndex) from inputLeft
// unchanged and appends one boolean column, true unless the row's index is
// listed in nonMatchingIndices.
type existsImpl struct{}

func (existsImpl) handle(result *idtable.Table, _, nonMatchingIndices []int, startIndex, endIndex int, inputLeft *idtable.View, h *cancel.Handle) error {
	if result.NumColumns() != inputLeft.NumColumns()+1 {
		return fmt.Errorf("rowwriter: EXISTS output must have exactly one more column than its input")
	}
	oldSize := result.NumRows()
	n := endIndex - startIndex
	if err := result.Resize(oldSize + n); err != nil {
		return err
	}
	for col := 0; col < inputLeft.NumColumns(); col++ {
		inputCol := inputLeft.Column(col)
		target := result.Column(col)
		if err := chunked.Copy(target, oldSize, inputCol[startIndex:endIndex], MinusAndExistsChunkSize, h); err != nil {
			return err
		}
	}
	flagCol := result.Column(result.NumColumns() - 1)
	if err := chunked.Fill(flagCol, oldSize, n, valueid.MakeBool(true), MinusAndExistsChunkSize, h); err != nil {
		return err
	}
	for _, idx := range nonMatchingIndices {
		flagCol[oldSize+(idx-startIndex)] = valueid.MakeBool(false)
	}
	return nil
}
