// Package memlimit implements the process-wide memory budget shared by
// every IdTable column allocation and every external-table in-RAM block: a
// process-wide atomic counter of free bytes. Grounded on the original
// source's LimitedAllocator / AllocationLimits (src/util/LimitedAllocator.h):
// a free-byte counter decremented on Allocate and incremented on Release,
// raising qleverrors.ErrMemoryLimit on overflow.
package memlimit

import (
	"fmt"
	"sync/atomic"

	"github.com/ad-freiburg/qlever-engine/qleverrors"
)

// Budget tracks a number of free bytes, atomically. The zero value is not
// usable; construct one with NewBudget.
type Budget struct {
	free int64
}

// NewBudget returns a Budget with n free bytes.
func NewBudget(n int64) *Budget {
	return &Budget{free: n}
}

// Unlimited returns a Budget that never refuses an allocation.
func Unlimited() *Budget {
	return NewBudget(1<<62 - 1)
}

// Allocate reserves n bytes from the budget, or returns
// qleverrors.ErrMemoryLimit if fewer than n bytes remain free. It is safe
// for concurrent use by multiple goroutines.
func (b *Budget) Allocate(n int64) error {
	for {
		free := atomic.LoadInt64(&b.free)
		if n > free {
			return qleverrors.ErrMemoryLimit.New(fmt.Sprintf(
				"tried to allocate %d bytes, but only %d left", n, free))
		}
		if atomic.CompareAndSwapInt64(&b.free, free, free-n) {
			return nil
		}
	}
}

// Release returns n bytes to the budget. Callers must release exactly what
// they allocated, typically via a defer right after a successful Allocate.
func (b *Budget) Release(n int64) {
	atomic.AddInt64(&b.free, n)
}

// NumFreeBytes reports the currently free budget. Racy by nature (another
// goroutine may allocate or release concurrently); useful only for
// diagnostics and tests.
func (b *Budget) NumFreeBytes() int64 {
	return atomic.LoadInt64(&b.free)
}

// Limited is a convenience guard that allocates n bytes from a shared
// Budget and returns a release func to be deferred by the caller.
func (b *Budget) Limited(n int64) (release func(), err error) {
	if err := b.Allocate(n); err != nil {
		return func() {}, err
	}
	return func() { b.Release(n) }, nil
}
