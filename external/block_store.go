// Package external implements on-disk storage for IdTables too large to
// keep in RAM: a compressed block store (blockStore), a simple push/replay
// table built on it (Table), and an external k-way-merge sorter (Sorter).
//
// Grounded on the original source's CompressedExternalIdTable.h:
// CompressedExternalIdTableWriter maps onto blockStore, CompressedExternalIdTable
// onto Table, and CompressedExternalIdTableSorter onto Sorter.
package external

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/ad-freiburg/qlever-engine/idtable"
	"github.com/ad-freiburg/qlever-engine/memlimit"
	"github.com/ad-freiburg/qlever-engine/qleverrors"
	"github.com/ad-freiburg/qlever-engine/sync2"
)

// DefaultBlockSizeBytes is the uncompressed size of a single stored block,
// per column. Chosen much smaller than a typical pushed table so that
// reading back only ever materializes a small window, and large enough
// that zstd has something to work with.
const DefaultBlockSizeBytes = 500_000

type blockMeta struct {
	compressedSize   int64
	uncompressedSize int64
	offset           int64
}

// blockStore stores a sequence of idtable.Tables in a file, compressing
// each column in fixed-size chunks ("blocks") with zstd. All stored tables
// must share the same column count; the store can be thought of as one
// very large table formed by the concatenation of every pushed one.
//
// Grounded on CompressedExternalIdTableWriter.
type blockStore struct {
	path string
	file *sync2.Guarded[*os.File]

	numColumns            int
	blockSizeUncompressed int // in Ids, per column
	budget                *memlimit.Budget

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu                 sync.Mutex
	blocksPerColumn    [][]blockMeta
	startOfSingleTable []int
	numActiveReaders   int
}

func newBlockStore(path string, numColumns int, budget *memlimit.Budget, blockSizeBytes int) (*blockStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, qleverrors.ErrIO.New(fmt.Sprintf("opening external table file %q: %v", path, err))
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		f.Close()
		return nil, qleverrors.ErrIO.New(fmt.Sprintf("creating zstd encoder: %v", err))
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		f.Close()
		return nil, qleverrors.ErrIO.New(fmt.Sprintf("creating zstd decoder: %v", err))
	}
	if blockSizeBytes <= 0 {
		blockSizeBytes = DefaultBlockSizeBytes
	}
	return &blockStore{
		path:                  path,
		file:                  sync2.NewGuarded(f),
		numColumns:            numColumns,
		blockSizeUncompressed: blockSizeBytes / 8,
		budget:                budget,
		encoder:               enc,
		decoder:               dec,
		blocksPerColumn:       make([][]blockMeta, numColumns),
	}, nil
}

// Close releases the zstd codecs and the underlying file, then deletes it.
// Mirrors CompressedExternalIdTableWriter's destructor, which always
// deletes its backing file: these files are scratch space, never a
// persistent store.
func (s *blockStore) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	var closeErr error
	s.file.WithWriteLock(func(f **os.File) {
		closeErr = (*f).Close()
	})
	if removeErr := os.Remove(s.path); removeErr != nil && closeErr == nil {
		closeErr = removeErr
	}
	return closeErr
}

// WriteTable compresses and appends t, one goroutine per column, mirroring
// the column-parallel std::async fan-out in writeIdTable.
func (s *blockStore) WriteTable(t *idtable.Table) error {
	s.mu.Lock()
	if s.numActiveReaders != 0 {
		s.mu.Unlock()
		return qleverrors.ErrIO.New("cannot write to an external table store while it is being read")
	}
	if t.NumColumns() != s.numColumns {
		s.mu.Unlock()
		return qleverrors.ErrIO.New(fmt.Sprintf(
			"external table store has %d columns, got table with %d", s.numColumns, t.NumColumns()))
	}
	s.startOfSingleTable = append(s.startOfSingleTable, len(s.blocksPerColumn[0]))
	s.mu.Unlock()

	if s.blockSizeUncompressed <= 0 {
		return qleverrors.ErrIO.New("block size must be positive")
	}

	var wg sync.WaitGroup
	errs := make([]error, s.numColumns)
	metas := make([][]blockMeta, s.numColumns)
	for col := 0; col < s.numColumns; col++ {
		wg.Add(1)
		go func(col int) {
			defer wg.Done()
			metas[col], errs[col] = s.compressAndWriteColumn(t.Column(col))
		}(col)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	for col, m := range metas {
		s.blocksPerColumn[col] = append(s.blocksPerColumn[col], m...)
	}
	s.mu.Unlock()
	return nil
}

func (s *blockStore) compressAndWriteColumn(column []idtable.Id) ([]blockMeta, error) {
	var metas []blockMeta
	for lower := 0; lower < len(column); lower += s.blockSizeUncompressed {
		upper := lower + s.blockSizeUncompressed
		if upper > len(column) {
			upper = len(column)
		}
		chunk := column[lower:upper]
		raw := idsToBytes(chunk)
		compressed := s.encoder.EncodeAll(raw, nil)

		var offset int64
		var writeErr error
		s.file.WithWriteLock(func(f **os.File) {
			off, err := (*f).Seek(0, io.SeekEnd)
			if err != nil {
				writeErr = err
				return
			}
			offset = off
			_, writeErr = (*f).Write(compressed)
		})
		if writeErr != nil {
			return nil, qleverrors.ErrIO.New(fmt.Sprintf("writing compressed block: %v", writeErr))
		}
		metas = append(metas, blockMeta{
			compressedSize:   int64(len(compressed)),
			uncompressedSize: int64(len(raw)),
			offset:           offset,
		})
	}
	return metas, nil
}

// NumStoredTables reports how many tables have been written via WriteTable.
func (s *blockStore) NumStoredTables() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.startOfSingleTable)
}

// blockRange returns the [firstBlock, lastBlock) range of blocks belonging
// to the table at tableIndex.
func (s *blockStore) blockRange(tableIndex int) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.startOfSingleTable[tableIndex]
	last := len(s.blocksPerColumn[0])
	if tableIndex+1 < len(s.startOfSingleTable) {
		last = s.startOfSingleTable[tableIndex+1]
	}
	return first, last
}

// beginRead/endRead bracket a live generator over this store's blocks,
// mirroring numActiveGenerators_: while any generator is open, WriteTable
// and Clear refuse to mutate the store out from under it.
func (s *blockStore) beginRead() {
	s.mu.Lock()
	s.numActiveReaders++
	s.mu.Unlock()
}

func (s *blockStore) endRead() {
	s.mu.Lock()
	s.numActiveReaders--
	s.mu.Unlock()
}

// readBlock decompresses block blockIdx for every column and returns it as
// an owning idtable.Table. Columns are decompressed concurrently, mirroring
// readBlock's per-column std::async fan-out.
func (s *blockStore) readBlock(blockIdx int) (*idtable.Table, error) {
	out := idtable.New(s.numColumns, s.budget)
	s.mu.Lock()
	uncompressedSize := s.blocksPerColumn[0][blockIdx].uncompressedSize
	s.mu.Unlock()
	numRows := int(uncompressedSize / 8)
	if err := out.Resize(numRows); err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	errs := make([]error, s.numColumns)
	for col := 0; col < s.numColumns; col++ {
		wg.Add(1)
		go func(col int) {
			defer wg.Done()
			errs[col] = s.readColumnBlock(col, blockIdx, out.Column(col))
		}(col)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *blockStore) readColumnBlock(col, blockIdx int, dst []idtable.Id) error {
	s.mu.Lock()
	meta := s.blocksPerColumn[col][blockIdx]
	s.mu.Unlock()

	compressed := make([]byte, meta.compressedSize)
	var readErr error
	s.file.WithWriteLock(func(f **os.File) {
		_, readErr = (*f).ReadAt(compressed, meta.offset)
	})
	if readErr != nil {
		return qleverrors.ErrIO.New(fmt.Sprintf("reading compressed block: %v", readErr))
	}
	raw, err := s.decoder.DecodeAll(compressed, make([]byte, 0, meta.uncompressedSize))
	if err != nil {
		return qleverrors.ErrIO.New(fmt.Sprintf("decompressing block: %v", err))
	}
	if int64(len(raw)) != meta.uncompressedSize {
		return qleverrors.ErrIO.New("decompressed block has unexpected size")
	}
	bytesToIds(raw, dst)
	return nil
}

// Clear deletes and reopens the underlying file, discarding all stored
// blocks, so the store can be reused.
func (s *blockStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.numActiveReaders > 0 {
		return qleverrors.ErrIO.New("cannot clear an external table store while it is being read")
	}
	var err error
	s.file.WithWriteLock(func(f **os.File) {
		(*f).Close()
		os.Remove(s.path)
		*f, err = os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	})
	if err != nil {
		return qleverrors.ErrIO.New(fmt.Sprintf("reopening external table file: %v", err))
	}
	for i := range s.blocksPerColumn {
		s.blocksPerColumn[i] = nil
	}
	s.startOfSingleTable = nil
	return nil
}

func idsToBytes(ids []idtable.Id) []byte {
	out := make([]byte, len(ids)*8)
	for i, id := range ids {
		binary.LittleEndian.PutUint64(out[i*8:], uint64(id))
	}
	return out
}

func bytesToIds(raw []byte, dst []idtable.Id) {
	for i := range dst {
		dst[i] = idtable.Id(binary.LittleEndian.Uint64(raw[i*8:]))
	}
}
