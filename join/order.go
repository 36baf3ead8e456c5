// Package join implements the three block-wise join drivers: a zipper
// (merge) join with UNDEF handling, a galloping join for size-skewed
// UNDEF-free inputs, and a block-at-a-time driver for lazy/streamed
// inputs. All three operate purely on row indices into the join-column
// subset of their inputs and report matches through a callback, leaving
// materialization of full output rows to package rowwriter.
//
// Grounded on the original source's zipperJoinWithUndef and galloping-join
// helpers (src/util/JoinAlgorithms/JoinAlgorithms.h) and the block-at-a-time
// driver described alongside them.
package join

import "fmt"

// Order classifies how a join's output relates to the supplied less-than
// predicate. Joining rows with UNDEF in different columns, or an
// OPTIONAL/MINUS not-found pass, can produce output that is not globally
// sorted even though both inputs were.
type Order struct {
	// Kind is one of OrderSorted, OrderTrailingUnsorted, or
	// OrderFullyUnsorted.
	Kind OrderKind
	// TrailingCount is the length of the second sorted run when Kind is
	// OrderTrailingUnsorted; zero otherwise.
	TrailingCount int
}

// OrderKind enumerates the three possible Order.Kind values.
type OrderKind int

const (
	// OrderSorted: every emitted match is ordered with respect to the
	// less-than predicate.
	OrderSorted OrderKind = iota
	// OrderTrailingUnsorted: the first (total - TrailingCount) rows are
	// sorted, and the trailing TrailingCount rows form a second sorted
	// run appended after them (typically the not-found/OPTIONAL pass).
	OrderTrailingUnsorted
	// OrderFullyUnsorted: UNDEF-driven matches were interleaved with the
	// main merge in a way that does not decompose into a single trailing
	// unsorted run.
	OrderFullyUnsorted
)

func (o Order) String() string {
	switch o.Kind {
	case OrderSorted:
		return "Sorted"
	case OrderTrailingUnsorted:
		return fmt.Sprintf("TrailingUnsorted(%d)", o.TrailingCount)
	case OrderFullyUnsorted:
		return "FullyUnsorted"
	default:
		return "Unknown"
	}
}
