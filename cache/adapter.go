package cache

import (
	"sync"

	"github.com/ad-freiburg/qlever-engine/qleverrors"
)

// inProgress tracks a computation that exactly one goroutine is performing
// on behalf of every goroutine that asked for the same key. Grounded on
// ResultInProgress, substituting a close-once channel for the original's
// condition variable: Go's "wait for a channel to close" is the idiomatic
// broadcast-once primitive, and the happens-before guarantee on a channel
// close means result/err need no separate lock once done is closed.
type inProgress[V any] struct {
	done   chan struct{}
	result V
	err    error
	pinned bool // upgraded to true if any waiter requested the pinned variant
}

func newInProgress[V any](pinned bool) *inProgress[V] {
	return &inProgress[V]{done: make(chan struct{}), pinned: pinned}
}

func (r *inProgress[V]) finish(v V) {
	r.result = v
	close(r.done)
}

func (r *inProgress[V]) abort(err error) {
	r.err = err
	close(r.done)
}

func (r *inProgress[V]) wait() (V, error) {
	<-r.done
	return r.result, r.err
}

// Result reports a computed value and whether it came from the cache
// (ResultAndCacheStatus in the original).
type Result[V any] struct {
	Value     V
	WasCached bool
}

// Adapter makes sure a deterministic, expensive computation keyed by K is
// never run twice at once: concurrent ComputeOnce/ComputeOncePinned calls
// for the same key that misses the cache all wait on the single in-flight
// computation instead of each starting their own.
//
// Grounded directly on CacheAdapter (computeOnce/computeOncePinned/
// moveFromInProgressToCache/clear/clearAll and the accessor methods),
// parameterized over the key and value types instead of over a C++ cache
// template parameter, since Go generics let Adapter name LRU[K, V]
// directly.
type Adapter[K comparable, V any] struct {
	cache *LRU[K, V]

	mu         sync.Mutex
	inProgress map[K]*inProgress[V]
}

// NewAdapter wraps an LRU with computeOnce-style deduplication.
func NewAdapter[K comparable, V any](cache *LRU[K, V]) *Adapter[K, V] {
	return &Adapter[K, V]{cache: cache, inProgress: make(map[K]*inProgress[V])}
}

// ComputeOnce returns the cached or in-flight result for key, computing it
// with create if neither exists.
func (a *Adapter[K, V]) ComputeOnce(key K, create func() (V, error)) (Result[V], error) {
	return a.computeOnceImpl(false, key, create)
}

// ComputeOncePinned behaves like ComputeOnce, but the result is pinned in
// the cache (exempt from eviction) once computed. If the key is already
// cached unpinned, it is promoted to pinned without recomputation.
func (a *Adapter[K, V]) ComputeOncePinned(key K, create func() (V, error)) (Result[V], error) {
	return a.computeOnceImpl(true, key, create)
}

func (a *Adapter[K, V]) computeOnceImpl(pinned bool, key K, create func() (V, error)) (Result[V], error) {
	var mustCompute bool
	var rip *inProgress[V]

	a.mu.Lock()
	contained := false
	if pinned {
		contained = a.cache.ContainsAndPinIfExists(key)
	} else {
		contained = a.cache.Contains(key)
	}
	if contained {
		a.mu.Unlock()
		value, _ := a.cache.At(key)
		return Result[V]{Value: value, WasCached: true}, nil
	}
	if existing, ok := a.inProgress[key]; ok {
		existing.pinned = existing.pinned || pinned
		rip = existing
		mustCompute = false
	} else {
		mustCompute = true
		rip = newInProgress[V](pinned)
		a.inProgress[key] = rip
	}
	a.mu.Unlock()

	if !mustCompute {
		value, err := rip.wait()
		if err != nil {
			return Result[V]{}, qleverrors.ErrCacheWaitedForFailure.New(err.Error())
		}
		// This caller didn't compute the value itself -- it was handed a
		// result someone else already produced, the same as a cache hit.
		return Result[V]{Value: value, WasCached: true}, nil
	}

	value, err := create()
	if err != nil {
		rip.abort(err)
		a.mu.Lock()
		delete(a.inProgress, key)
		a.mu.Unlock()
		return Result[V]{}, err
	}
	rip.finish(value)
	a.moveFromInProgressToCache(key, value, rip.pinned)
	return Result[V]{Value: value, WasCached: false}, nil
}

func (a *Adapter[K, V]) moveFromInProgressToCache(key K, value V, pinned bool) {
	a.mu.Lock()
	delete(a.inProgress, key)
	a.mu.Unlock()
	if pinned {
		a.cache.InsertPinned(key, value)
	} else {
		a.cache.Insert(key, value)
	}
}

// Clear removes every non-pinned entry.
func (a *Adapter[K, V]) Clear() { a.cache.ClearUnpinnedOnly() }

// ClearAll removes every entry, pinned or not.
func (a *Adapter[K, V]) ClearAll() { a.cache.ClearAll() }

// NumCachedElements reports the number of non-pinned entries.
func (a *Adapter[K, V]) NumCachedElements() int { return a.cache.NumCachedElements() }

// NumPinnedElements reports the number of pinned entries.
func (a *Adapter[K, V]) NumPinnedElements() int { return a.cache.NumPinnedElements() }

// CachedBytes reports the total size of non-pinned entries.
func (a *Adapter[K, V]) CachedBytes() int64 { return a.cache.CachedBytes() }

// PinnedBytes reports the total size of pinned entries.
func (a *Adapter[K, V]) PinnedBytes() int64 { return a.cache.PinnedBytes() }

// Contains reports whether key is cached, pinned or not. Used for testing
// and diagnostics, matching cacheContains.
func (a *Adapter[K, V]) Contains(key K) bool { return a.cache.Contains(key) }
