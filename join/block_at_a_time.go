package join

import (
	"github.com/ad-freiburg/qlever-engine/cancel"
	"github.com/ad-freiburg/qlever-engine/stream"
)

// Block is a contiguous chunk of join-column rows pulled from a lazy
// input, tagged with the global row index of Rows[0]. Real operators
// produce these from an idtable.View's SubView windows; join tests can
// build them directly.
type Block struct {
	Rows      []Row
	BaseIndex int
}

// BlockAtATimeJoin joins two streams of Blocks, each internally sorted and
// globally sorted across blocks, without ever materializing either input
// in full. It maintains one small buffer per side: rows already pulled
// from the stream but not yet known to be safely joinable.
//
// Per round:
//  1. ensure both buffers are non-empty (pull a block if either is empty
//     and its stream is not exhausted).
//  2. currentEl = min(last row of left buffer, last row of right buffer).
//     Every pair of rows strictly less than currentEl can be joined now:
//     a zipper join runs over those two prefixes, and they are dropped
//     from the buffers.
//  3. repeat until both streams are exhausted and both buffers are empty.
//
// This implementation does not separately siphon off leading all-UNDEF
// blocks into Cartesian-product side buffers the way the original driver
// does for single-column UNDEF joins (spec note: "only single-column UNDEF
// join is supported by this driver; multi-column UNDEF falls back to the
// fully materialized zipper"); instead, every round's sub-join goes
// through ZipperJoinWithUndef, so UNDEF rows are still matched correctly,
// just without the original's block-level short-circuit for long runs of
// UNDEF. This trades some throughput on UNDEF-heavy inputs for a much
// smaller driver; see DESIGN.md for the tradeoff.
//
// notFound, if non-nil, receives every left-row global index with no
// match, once the corresponding round's prefix has been fully joined.
// Rows in a never-flushed tail buffer at stream exhaustion are still
// fully processed: the final round treats both buffers' remaining content
// as in-range.
func BlockAtATimeJoin(leftBlocks, rightBlocks stream.Source[Block], match MatchAction, notFound NotFoundAction, h *cancel.Handle) (Order, error) {
	d := &blockAtATimeDriver{
		leftSource:  leftBlocks,
		rightSource: rightBlocks,
	}
	return d.run(match, notFound, h)
}

type bufferedSide struct {
	rows      []Row
	baseIndex int // global index of rows[0]
	exhausted bool
}

func (s *bufferedSide) globalLast() (Row, bool) {
	if len(s.rows) == 0 {
		return nil, false
	}
	return s.rows[len(s.rows)-1], true
}

func (s *bufferedSide) fill(src stream.Source[Block]) error {
	if s.exhausted {
		return nil
	}
	blk, ok, err := src.Next()
	if err != nil {
		return err
	}
	if !ok {
		s.exhausted = true
		return nil
	}
	if len(s.rows) == 0 {
		s.baseIndex = blk.BaseIndex
	}
	s.rows = append(s.rows, blk.Rows...)
	return nil
}

type blockAtATimeDriver struct {
	left, right             bufferedSide
	leftSource, rightSource stream.Source[Block]
}

func (d *blockAtATimeDriver) run(match MatchAction, notFound NotFoundAction, h *cancel.Handle) (Order, error) {
	anyUnsorted := false
	totalTrailing := 0

	checkCancel := func() error {
		if h == nil {
			return nil
		}
		return h.ThrowIfCancelled()
	}

	for {
		if err := checkCancel(); err != nil {
			return Order{}, err
		}
		if len(d.left.rows) == 0 {
			if err := d.left.fill(d.leftSource); err != nil {
				return Order{}, err
			}
		}
		if len(d.right.rows) == 0 {
			if err := d.right.fill(d.rightSource); err != nil {
				return Order{}, err
			}
		}

		leftDone := len(d.left.rows) == 0 && d.left.exhausted
		rightDone := len(d.right.rows) == 0 && d.right.exhausted
		if leftDone && rightDone {
			break
		}

		// If one side is fully exhausted and empty, the remainder of the
		// other side has no possible partner; if notFound is set, every
		// remaining left row is uncovered. Consume fully and stop.
		if rightDone {
			if err := d.drainRemainder(&d.left, d.leftSource); err != nil {
				return Order{}, err
			}
			if notFound != nil {
				for i := range d.left.rows {
					notFound(d.left.baseIndex + i)
					totalTrailing++
				}
			}
			break
		}
		if leftDone {
			if err := d.drainRemainder(&d.right, d.rightSource); err != nil {
				return Order{}, err
			}
			break
		}

		leftLast, _ := d.left.globalLast()
		rightLast, _ := d.right.globalLast()
		currentEl := leftLast
		if Less(rightLast, leftLast) {
			currentEl = rightLast
		}

		leftPrefixLen := partitionBefore(d.left.rows, currentEl)
		rightPrefixLen := partitionBefore(d.right.rows, currentEl)

		// If neither side has a strict prefix (both sides are entirely at
		// or above currentEl, i.e. currentEl is the last row of at least
		// one exhausted-for-now buffer) but one stream can still produce
		// more data, keep pulling rather than spin.
		if leftPrefixLen == 0 && rightPrefixLen == 0 {
			if !d.left.exhausted {
				if err := d.left.fill(d.leftSource); err != nil {
					return Order{}, err
				}
				continue
			}
			if !d.right.exhausted {
				if err := d.right.fill(d.rightSource); err != nil {
					return Order{}, err
				}
				continue
			}
			// Both exhausted: the remaining rows (equal to or spanning
			// currentEl) are the final round; treat entire buffers as
			// in-range.
			leftPrefixLen = len(d.left.rows)
			rightPrefixLen = len(d.right.rows)
		}

		leftPrefix := d.left.rows[:leftPrefixLen]
		rightPrefix := d.right.rows[:rightPrefixLen]
		leftBase, rightBase := d.left.baseIndex, d.right.baseIndex

		var roundNotFound NotFoundAction
		if notFound != nil {
			roundNotFound = func(i int) { notFound(leftBase + i); totalTrailing++ }
		}
		order, err := ZipperJoinWithUndef(leftPrefix, rightPrefix,
			func(i, j int) { match(leftBase+i, rightBase+j) },
			roundNotFound, h)
		if err != nil {
			return Order{}, err
		}
		if order.Kind != OrderSorted {
			anyUnsorted = true
		}

		d.left.rows = d.left.rows[leftPrefixLen:]
		d.left.baseIndex += leftPrefixLen
		d.right.rows = d.right.rows[rightPrefixLen:]
		d.right.baseIndex += rightPrefixLen
	}

	switch {
	case anyUnsorted:
		return Order{Kind: OrderFullyUnsorted}, nil
	case totalTrailing > 0:
		return Order{Kind: OrderTrailingUnsorted, TrailingCount: totalTrailing}, nil
	default:
		return Order{Kind: OrderSorted}, nil
	}
}

func partitionBefore(rows []Row, bound Row) int {
	i := 0
	for i < len(rows) && Less(rows[i], bound) {
		i++
	}
	return i
}

func (d *blockAtATimeDriver) drainRemainder(side *bufferedSide, src stream.Source[Block]) error {
	for {
		if err := side.fill(src); err != nil {
			return err
		}
		if side.exhausted {
			return nil
		}
	}
}
