// Package qleverrors collects the typed error kinds that the query execution
// core can raise. Each kind is constructed once at package init time and
// instantiated with .New(...), following the same gopkg.in/src-d/go-errors.v1
// pattern used for ErrDeleteFromNotSupported and friends in sql/plan and
// sql/expression/function.
package qleverrors

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrParse signals a malformed query caught at the query boundary.
	// Raised by the parser, not by anything in this module, but is kept
	// here so operators can wrap parser failures uniformly.
	ErrParse = errors.NewKind("parse error: %s")

	// ErrPlanning signals that no feasible execution plan exists.
	ErrPlanning = errors.NewKind("planning error: %s")

	// ErrRuntimeType signals an operator received ValueIds of an
	// incompatible kind, e.g. arithmetic on a non-numeric ValueId.
	ErrRuntimeType = errors.NewKind("runtime type error: %s")

	// ErrUndefBehavior signals an operation that cannot be defined over
	// UNDEF under three-valued logic.
	ErrUndefBehavior = errors.NewKind("undefined behavior: %s")

	// ErrMemoryLimit signals an allocation would exceed the per-query or
	// process-wide memory budget.
	ErrMemoryLimit = errors.NewKind("memory limit exceeded: %s")

	// ErrCancelled signals that a shared CancellationHandle fired.
	ErrCancelled = errors.NewKind("cancelled: %s")

	// ErrIO signals a temp-file or response-stream write failure.
	ErrIO = errors.NewKind("io error: %s")

	// ErrCacheWaitedForFailure signals that this goroutine waited for
	// another goroutine's computation of the same cache key, and that
	// computation failed. The waiter does not retry automatically.
	ErrCacheWaitedForFailure = errors.NewKind("cache: waited for a result that failed to compute: %s")
)
