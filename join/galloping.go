package join

import (
	"sort"

	"github.com/ad-freiburg/qlever-engine/cancel"
)

// GallopingJoin joins two sorted, UNDEF-free inputs where one side
// (whichever is shorter) is walked linearly and the other is advanced by
// exponential ("galloping") search: double the step size until
// overshooting the target, then binary-search inside the last doubling
// interval. This beats a zipper join when the two sides differ greatly in
// size, since it touches O(log N) elements of the larger side per element
// of the smaller one instead of O(N).
//
// Both inputs must be free of UNDEF in every join column; callers must
// route UNDEF-containing inputs through ZipperJoinWithUndef instead
// (testable property: GallopingJoin's output equals ZipperJoinWithUndef's
// on the same UNDEF-free inputs).
//
// Grounded on the original source's galloping-join description in
// src/util/JoinAlgorithms/JoinAlgorithms.h (the "one side much smaller,
// neither side has UNDEF" case).
func GallopingJoin(left, right []Row, match MatchAction, notFound NotFoundAction, h *cancel.Handle) (Order, error) {
	smaller, larger := left, right
	smallerIsLeft := true
	if len(right) < len(left) {
		smaller, larger = right, left
		smallerIsLeft = false
	}

	checkCancel := func() error {
		if h == nil {
			return nil
		}
		return h.ThrowIfCancelled()
	}

	var covered []bool
	if notFound != nil && smallerIsLeft {
		covered = make([]bool, len(left))
	}

	pos := 0
	for i, row := range smaller {
		if err := checkCancel(); err != nil {
			return Order{}, err
		}
		lo, hi := gallopingBounds(larger, pos, row)
		found := false
		for j := lo; j < hi; j++ {
			if Equal(larger[j], row) {
				if smallerIsLeft {
					match(i, j)
					if covered != nil {
						covered[i] = true
					}
				} else {
					match(j, i)
				}
				found = true
			}
		}
		if !found && smallerIsLeft && notFound != nil {
			notFound(i)
			if covered != nil {
				covered[i] = true
			}
		}
		pos = lo
	}

	if notFound != nil && !smallerIsLeft {
		// The left input is the larger side; every left row not matched
		// by any probe from the right side is uncovered. A galloping scan
		// does not visit larger-side rows that have no counterpart, so a
		// second galloping join records which left rows were matched.
		matchedLeft := make([]bool, len(left))
		recordMatch := func(i, _ int) { matchedLeft[i] = true }
		if _, err := GallopingJoin(left, right, recordMatch, nil, h); err != nil {
			return Order{}, err
		}
		for i, ok := range matchedLeft {
			if !ok {
				notFound(i)
			}
		}
	}

	trailing := 0
	for _, c := range covered {
		if !c {
			trailing++
		}
	}
	if trailing > 0 {
		return Order{Kind: OrderTrailingUnsorted, TrailingCount: trailing}, nil
	}
	return Order{Kind: OrderSorted}, nil
}

// gallopingBounds returns [lo, hi) inside larger[pos:], containing every
// element equal to target, found by exponential search followed by a
// binary search inside the final doubling interval.
func gallopingBounds(larger []Row, pos int, target Row) (int, int) {
	n := len(larger)
	if pos >= n {
		return n, n
	}
	step := 1
	lo, hi := pos, pos
	for hi < n && Less(larger[hi], target) {
		lo = hi
		hi += step
		step *= 2
	}
	if hi > n {
		hi = n
	}
	// Binary search within [lo, hi) for the first element >= target, then
	// extend to the first element > target (the equal-run upper bound).
	first := lo + sort.Search(hi-lo, func(i int) bool { return !Less(larger[lo+i], target) })
	last := first + sort.Search(n-first, func(i int) bool { return Less(target, larger[first+i]) })
	return first, last
}
