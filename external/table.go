package external

import (
	"github.com/ad-freiburg/qlever-engine/idtable"
	"github.com/ad-freiburg/qlever-engine/memlimit"
	"github.com/ad-freiburg/qlever-engine/stream"
)

// Table stores rows pushed one at a time, buffering them in memory until a
// block fills up, then compressing and writing that block to disk. After
// all rows have been pushed, Rows() returns them, in push order, as a
// stream.Source of small in-memory blocks -- never materializing the whole
// table at once.
//
// Grounded on CompressedExternalIdTable (the push/getRows half of
// CompressedExternalIdTableBase, without the sorting behavior added by
// CompressedExternalIdTableSorter).
type Table struct {
	store      *blockStore
	current    *idtable.Table
	blockSize  int
	numPushed  int
	numBlocks  int
	numColumns int
	budget     *memlimit.Budget
}

// NewTable creates an external Table backed by a scratch file at path.
// blockSizeBytes <= 0 selects DefaultBlockSizeBytes.
func NewTable(path string, numColumns int, budget *memlimit.Budget, blockSizeBytes int) (*Table, error) {
	store, err := newBlockStore(path, numColumns, budget, blockSizeBytes)
	if err != nil {
		return nil, err
	}
	blockSizeIds := store.blockSizeUncompressed
	return &Table{
		store:      store,
		current:    idtable.New(numColumns, budget),
		blockSize:  blockSizeIds,
		numColumns: numColumns,
		budget:     budget,
	}, nil
}

// Push appends a single row. Row must have exactly numColumns entries.
func (t *Table) Push(row []idtable.Id) error {
	t.numPushed++
	if err := t.current.PushBack(row); err != nil {
		return err
	}
	if t.current.NumRows() >= t.blockSize {
		return t.flushCurrent()
	}
	return nil
}

func (t *Table) flushCurrent() error {
	if t.current.NumRows() == 0 {
		return nil
	}
	if err := t.store.WriteTable(t.current); err != nil {
		return err
	}
	t.numBlocks++
	t.current = idtable.New(t.numColumns, t.budget)
	return nil
}

// NumRows reports how many rows have been pushed so far.
func (t *Table) NumRows() int { return t.numPushed }

// Close deletes the backing scratch file. Safe to call once, after the
// caller is done reading (or never reads at all).
func (t *Table) Close() error { return t.store.Close() }

// Rows transitions from the push phase to the read phase and returns a
// stream of small in-memory blocks containing every pushed row, in push
// order. May be called exactly once.
//
// As an optimization for inputs smaller than one block, if nothing has been
// flushed to disk yet, the in-memory buffer is yielded directly without
// touching the store at all -- mirroring transformAndPushLastBlock's
// "numBlocksPushed_ == 0" fast path.
func (t *Table) Rows() (stream.Source[*idtable.Table], error) {
	if t.numBlocks == 0 {
		single := t.current
		t.current = idtable.New(t.numColumns, t.budget)
		done := false
		return stream.Func[*idtable.Table](func() (*idtable.Table, bool, error) {
			if done {
				return nil, false, nil
			}
			done = true
			return single, true, nil
		}), nil
	}

	if err := t.flushCurrent(); err != nil {
		return nil, err
	}
	store := t.store
	store.beginRead()
	firstBlock, _ := store.blockRange(0)
	_, lastBlock := store.blockRange(store.NumStoredTables() - 1)
	next := firstBlock
	closed := false
	return stream.Func[*idtable.Table](func() (*idtable.Table, bool, error) {
		if closed {
			return nil, false, nil
		}
		if next >= lastBlock {
			closed = true
			store.endRead()
			return nil, false, nil
		}
		blk, err := store.readBlock(next)
		next++
		if err != nil {
			closed = true
			store.endRead()
			return nil, false, err
		}
		return blk, true, nil
	}), nil
}
