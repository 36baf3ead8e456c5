package join

import (
	"github.com/ad-freiburg/qlever-engine/cancel"
	"github.com/ad-freiburg/qlever-engine/valueid"
)

// Row is the tuple of join-column values for a single input row. Join
// drivers never see payload columns; CombinedRowWriter (or
// MinusRowHandler/ExistsRowHandler) is handed the matching index pairs
// afterwards to materialize full rows.
type Row []valueid.Id

// Less defines the total order joins sort by: lexicographic over columns
// using valueid.Less.
func Less(a, b Row) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if valueid.Less(a[i], b[i]) {
			return true
		}
		if valueid.Less(b[i], a[i]) {
			return false
		}
	}
	return len(a) < len(b)
}

// Equal reports whether a and b are identical under Less's total order
// (not merely SPARQL-compatible: UNDEF only equals UNDEF here).
func Equal(a, b Row) bool {
	return !Less(a, b) && !Less(b, a)
}

// Compatible reports whether a and b match under SPARQL join semantics:
// every column is equal, or at least one side is UNDEF.
func Compatible(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueid.Compatible(a[i], b[i]) {
			return false
		}
	}
	return true
}

func hasUndef(r Row) bool {
	for _, id := range r {
		if id.IsUndefined() {
			return true
		}
	}
	return false
}

// MatchAction is invoked once for every pair of compatible (left, right)
// row indices a zipper or galloping join discovers.
type MatchAction func(leftIdx, rightIdx int)

// NotFoundAction is invoked once for every left-row index that is never
// covered by a match. Used by OPTIONAL and MINUS; pass nil for plain inner
// joins.
type NotFoundAction func(leftIdx int)

// ZipperJoinWithUndef performs a merge/zipper join of two sorted inputs
// (left and right, as join-column tuples), correctly handling rows that
// contain UNDEF. left and right must already be sorted according to Less.
//
// For each matching pair (exact equality, or compatible via UNDEF) match
// is called with the pair of indices. If notFound is non-nil, it is called
// once for every left index that is never part of a match -- this is what
// OPTIONAL and MINUS build on. A left row without UNDEF that has neither an
// exact match nor a compatible smaller right row is reported as soon as the
// merge passes it; the remaining uncovered rows are reported at the end, in
// left-to-right order.
//
// This implementation always uses the "arbitrary UNDEF" linear
// compatibility scan described for rows with UNDEF in unpredictable
// columns, rather than the bit-masking binary-search dispatch the original
// source picks for the UNDEF-free and trailing-UNDEF-only special cases;
// see DESIGN.md for the performance/complexity tradeoff this simplifies.
// Correctness is unaffected: every compatible pair is still found.
func ZipperJoinWithUndef(left, right []Row, match MatchAction, notFound NotFoundAction, h *cancel.Handle) (Order, error) {
	var covered []bool
	if notFound != nil {
		covered = make([]bool, len(left))
	}
	cover := func(i int) {
		if covered != nil {
			covered[i] = true
		}
	}

	outOfOrder := false
	checkCancel := func() error {
		if h == nil {
			return nil
		}
		return h.ThrowIfCancelled()
	}

	// mergeWithUndefRight is called when left[i] sorts before right[j] for
	// every j in [rightBegin, rightEnd): scan that range for rows
	// compatible with (but smaller than) left[i].
	mergeWithUndefRight := func(i, rightBegin, rightEnd int, hasNoExactMatch bool) error {
		if err := checkCancel(); err != nil {
			return err
		}
		found := false
		for j := rightBegin; j < rightEnd; j++ {
			if Compatible(left[i], right[j]) && Less(right[j], left[i]) {
				match(i, j)
				found = true
				outOfOrder = true
			}
		}
		if found {
			cover(i)
		} else if hasNoExactMatch && notFound != nil && !hasUndef(left[i]) {
			notFound(i)
			cover(i)
		}
		return nil
	}

	// mergeWithUndefLeft is the mirror image: right[j] sorts before
	// left[i] for every i in [leftBegin, leftEnd).
	mergeWithUndefLeft := func(j, leftBegin, leftEnd int) error {
		if err := checkCancel(); err != nil {
			return err
		}
		for i := leftBegin; i < leftEnd; i++ {
			if Compatible(left[i], right[j]) && Less(left[i], right[j]) {
				match(i, j)
				cover(i)
				outOfOrder = true
			}
		}
		return nil
	}

	it1, it2 := 0, 0
	for it1 < len(left) && it2 < len(right) {
		for it1 < len(left) && Less(left[it1], right[it2]) {
			if err := mergeWithUndefRight(it1, 0, it2, true); err != nil {
				return Order{}, err
			}
			it1++
		}
		if it1 >= len(left) {
			break
		}
		for it2 < len(right) && Less(right[it2], left[it1]) {
			if err := mergeWithUndefLeft(it2, 0, it1); err != nil {
				return Order{}, err
			}
			it2++
		}
		if it2 >= len(right) {
			break
		}
		if err := checkCancel(); err != nil {
			return Order{}, err
		}

		endSame1 := it1
		for endSame1 < len(left) && Equal(left[endSame1], right[it2]) {
			endSame1++
		}
		endSame2 := it2
		for endSame2 < len(right) && Equal(left[it1], right[endSame2]) {
			endSame2++
		}
		for i := it1; i < endSame1; i++ {
			if err := mergeWithUndefRight(i, 0, it2, false); err != nil {
				return Order{}, err
			}
		}
		for j := it2; j < endSame2; j++ {
			if err := mergeWithUndefLeft(j, 0, it1); err != nil {
				return Order{}, err
			}
		}
		for i := it1; i < endSame1; i++ {
			for j := it2; j < endSame2; j++ {
				match(i, j)
			}
			cover(i)
		}
		it1, it2 = endSame1, endSame2
	}

	for ; it1 < len(left); it1++ {
		if err := mergeWithUndefRight(it1, 0, len(right), true); err != nil {
			return Order{}, err
		}
	}
	for ; it2 < len(right); it2++ {
		if err := mergeWithUndefLeft(it2, 0, len(left)); err != nil {
			return Order{}, err
		}
	}

	trailing := 0
	if notFound != nil {
		for i, c := range covered {
			if !c {
				notFound(i)
				trailing++
			}
		}
	}

	switch {
	case outOfOrder:
		return Order{Kind: OrderFullyUnsorted}, nil
	case trailing > 0:
		return Order{Kind: OrderTrailingUnsorted, TrailingCount: trailing}, nil
	default:
		return Order{Kind: OrderSorted}, nil
	}
}
