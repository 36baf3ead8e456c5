package external

import (
	"container/heap"
	"sort"

	"github.com/ad-freiburg/qlever-engine/idtable"
	"github.com/ad-freiburg/qlever-engine/memlimit"
	"github.com/ad-freiburg/qlever-engine/stream"
)

// RowLess orders two rows (one ValueId per column, same length) for a
// Sorter. It must define a strict weak ordering, as required by
// sort.SliceStable and container/heap.
type RowLess func(a, b []idtable.Id) bool

// Sorter externally sorts a sequence of pushed rows too large to fit in
// RAM: rows are buffered into fixed-size blocks, each block is sorted in
// place and flushed to disk as soon as it fills up, and SortedRows performs
// a k-way merge of the resulting sorted runs.
//
// Grounded on CompressedExternalIdTableSorter: BlockSorter's in-place
// ql::ranges::sort(block, comparator_) maps onto sortTableRows, and
// SortState's std::priority_queue-based k-way merge maps onto the
// container/heap-based merge in SortedRows -- the idiomatic stdlib
// replacement for a hand-rolled binary heap.
type Sorter struct {
	store      *blockStore
	current    *idtable.Table
	blockSize  int
	numColumns int
	budget     *memlimit.Budget
	numPushed  int
	numBlocks  int
	less       RowLess
}

// NewSorter creates an external Sorter backed by a scratch file at path,
// ordering rows with less. blockSizeBytes <= 0 selects
// DefaultBlockSizeBytes.
func NewSorter(path string, numColumns int, budget *memlimit.Budget, blockSizeBytes int, less RowLess) (*Sorter, error) {
	store, err := newBlockStore(path, numColumns, budget, blockSizeBytes)
	if err != nil {
		return nil, err
	}
	return &Sorter{
		store:      store,
		current:    idtable.New(numColumns, budget),
		blockSize:  store.blockSizeUncompressed,
		numColumns: numColumns,
		budget:     budget,
		less:       less,
	}, nil
}

// Push appends a single row.
func (s *Sorter) Push(row []idtable.Id) error {
	s.numPushed++
	if err := s.current.PushBack(row); err != nil {
		return err
	}
	if s.current.NumRows() >= s.blockSize {
		return s.flushCurrent()
	}
	return nil
}

func (s *Sorter) flushCurrent() error {
	if s.current.NumRows() == 0 {
		return nil
	}
	sortTableRows(s.current, s.less)
	if err := s.store.WriteTable(s.current); err != nil {
		return err
	}
	s.numBlocks++
	s.current = idtable.New(s.numColumns, s.budget)
	return nil
}

// NumRows reports how many rows have been pushed so far.
func (s *Sorter) NumRows() int { return s.numPushed }

// Close deletes the backing scratch file.
func (s *Sorter) Close() error { return s.store.Close() }

// SortedRows transitions from the push phase to the output phase and
// returns a stream of rows in sorted order. May be called exactly once.
//
// As with Table, if everything pushed fits in a single (never flushed)
// block, it is sorted and yielded directly, skipping the file entirely.
func (s *Sorter) SortedRows() (stream.Source[[]idtable.Id], error) {
	if s.numBlocks == 0 {
		sortTableRows(s.current, s.less)
		return tableRowSource(s.current), nil
	}
	if err := s.flushCurrent(); err != nil {
		return nil, err
	}

	runs := make([]stream.Source[[]idtable.Id], s.numBlocks)
	for i := range runs {
		runs[i] = s.store.tableRowStream(i)
	}
	s.store.beginRead()
	return mergeSortedRuns(runs, s.less, s.store.endRead), nil
}

// sortTableRows sorts a column-major idtable.Table's rows in place
// according to less.
func sortTableRows(t *idtable.Table, less RowLess) {
	n := t.NumRows()
	if n <= 1 {
		return
	}
	numCols := t.NumColumns()
	rows := make([][]idtable.Id, n)
	for i := 0; i < n; i++ {
		row := make([]idtable.Id, numCols)
		for c := 0; c < numCols; c++ {
			row[c] = t.Column(c)[i]
		}
		rows[i] = row
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return less(rows[idx[a]], rows[idx[b]]) })

	buf := make([]idtable.Id, n)
	for c := 0; c < numCols; c++ {
		col := t.Column(c)
		for i, srcIdx := range idx {
			buf[i] = rows[srcIdx][c]
		}
		copy(col, buf)
	}
}

// tableRowSource yields every row of t, in storage order.
func tableRowSource(t *idtable.Table) stream.Source[[]idtable.Id] {
	i := 0
	return stream.Func[[]idtable.Id](func() ([]idtable.Id, bool, error) {
		if i >= t.NumRows() {
			return nil, false, nil
		}
		row := make([]idtable.Id, t.NumColumns())
		for c := 0; c < t.NumColumns(); c++ {
			row[c] = t.Column(c)[i]
		}
		i++
		return row, true, nil
	})
}

// tableRowStream returns a row-at-a-time stream over every stored block of
// the table at tableIndex, decompressing one block at a time.
func (s *blockStore) tableRowStream(tableIndex int) stream.Source[[]idtable.Id] {
	firstBlock, lastBlock := s.blockRange(tableIndex)
	next := firstBlock
	var current *idtable.Table
	row := 0
	return stream.Func[[]idtable.Id](func() ([]idtable.Id, bool, error) {
		for {
			if current != nil && row < current.NumRows() {
				r := make([]idtable.Id, current.NumColumns())
				for c := 0; c < current.NumColumns(); c++ {
					r[c] = current.Column(c)[row]
				}
				row++
				return r, true, nil
			}
			if next >= lastBlock {
				return nil, false, nil
			}
			blk, err := s.readBlock(next)
			next++
			if err != nil {
				return nil, false, err
			}
			current, row = blk, 0
		}
	})
}

type mergeItem struct {
	row    []idtable.Id
	source int
}

type mergeHeap struct {
	items []mergeItem
	less  RowLess
}

func (h *mergeHeap) Len() int            { return len(h.items) }
func (h *mergeHeap) Less(i, j int) bool  { return h.less(h.items[i].row, h.items[j].row) }
func (h *mergeHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x interface{})  { h.items = append(h.items, x.(mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// mergeSortedRuns performs a k-way merge of runs (each already sorted
// according to less) using a container/heap priority queue, mirroring
// SortState's std::priority_queue-of-iterators merge loop. onExhausted, if
// non-nil, is called once all runs have been fully drained.
func mergeSortedRuns(runs []stream.Source[[]idtable.Id], less RowLess, onExhausted func()) stream.Source[[]idtable.Id] {
	h := &mergeHeap{less: less}
	initialized := false
	done := false

	return stream.Func[[]idtable.Id](func() ([]idtable.Id, bool, error) {
		if done {
			return nil, false, nil
		}
		if !initialized {
			for i, r := range runs {
				row, ok, err := r.Next()
				if err != nil {
					done = true
					return nil, false, err
				}
				if ok {
					heap.Push(h, mergeItem{row: row, source: i})
				}
			}
			initialized = true
		}
		if h.Len() == 0 {
			done = true
			if onExhausted != nil {
				onExhausted()
			}
			return nil, false, nil
		}
		top := heap.Pop(h).(mergeItem)
		next, ok, err := runs[top.source].Next()
		if err != nil {
			done = true
			return nil, false, err
		}
		if ok {
			heap.Push(h, mergeItem{row: next, source: top.source})
		}
		return top.row, true, nil
	})
}
