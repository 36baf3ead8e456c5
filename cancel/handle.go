// Package cancel provides the cooperative cancellation primitive shared by
// every operator in a query: a CancellationHandle checked at the start of
// every rowwriter flush, once per chunk of a chunked copy, and by the join
// drivers as they merge. Package external's Table and Sorter do not check
// it.
package cancel

import (
	"fmt"
	"sync/atomic"

	"github.com/ad-freiburg/qlever-engine/qleverrors"
)

// Handle is a process-shared flag polled cooperatively to abort a running
// query. The zero value is a usable, never-cancelled handle.
type Handle struct {
	fired  atomic.Bool
	reason atomic.Value // string
}

// New returns a fresh, not-yet-cancelled Handle.
func New() *Handle {
	return &Handle{}
}

// Cancel marks the handle as fired with the given human-readable reason.
// Idempotent: calling it more than once keeps the first reason.
func (h *Handle) Cancel(reason string) {
	if h.fired.CompareAndSwap(false, true) {
		h.reason.Store(reason)
	}
}

// IsCancelled reports whether Cancel has been called.
func (h *Handle) IsCancelled() bool {
	return h.fired.Load()
}

// ThrowIfCancelled returns qleverrors.ErrCancelled if the handle has fired,
// nil otherwise. Callers check this at every cooperative suspension point;
// it must never block.
func (h *Handle) ThrowIfCancelled() error {
	if !h.fired.Load() {
		return nil
	}
	reason, _ := h.reason.Load().(string)
	if reason == "" {
		reason = "query cancelled"
	}
	return qleverrors.ErrCancelled.New(reason)
}

func (h *Handle) String() string {
	if h.IsCancelled() {
		return fmt.Sprintf("cancelled(%v)", h.reason.Load())
	}
	return "not cancelled"
}
