// Package cache implements the shared result cache operators consult before
// recomputing a subtree: an LRU keyed by operator cache key, with a pinned
// partition exempt from eviction, plus a computeOnce layer that collapses
// concurrent requests for the same key into a single computation.
//
// Grounded on the original source's CacheAdapter.h. That file calls through
// to an underlying `Cache` template parameter (insert/insertPinned/contains/
// clearUnpinnedOnly/clearAll/numCachedElements/cachedSize/...) whose own
// header was not part of the retrieval pack; LRU here reimplements that
// interface directly -- a byte-budgeted LRU with a pinned partition -- since
// only the calling contract, not the original cache implementation, could be
// grounded on original_source. See DESIGN.md for this Open Question
// decision.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

// unboundedEntries is the entry-count capacity handed to the underlying
// simplelru.LRU. Eviction in this package is driven by byte budget, not
// entry count, so the LRU itself is configured never to evict on count;
// LRU.evictToFit below is what actually reclaims space.
const unboundedEntries = 1 << 30

type lruEntry[V any] struct {
	value V
	bytes int64
}

// LRU is a byte-budgeted cache with two partitions: an LRU-ordered,
// evictable partition, and a pinned partition that is never evicted by
// Insert and is removed only by ClearAll. Grounded on the
// insert/insertPinned/clearUnpinnedOnly/clearAll/numCachedElements/
// numPinnedElements/cachedSize/pinnedSize contract CacheAdapter.h expects
// from its Cache template parameter.
type LRU[K comparable, V any] struct {
	mu sync.Mutex

	evictable *lru.LRU[K, lruEntry[V]]
	pinned    map[K]lruEntry[V]

	maxBytes       int64
	evictableBytes int64
	pinnedBytes    int64

	sizeOf func(V) int64
}

// NewLRU creates an LRU with the given byte budget for its evictable
// partition. sizeOf computes the byte size attributed to a value for
// eviction accounting; pass a constant function to disable size-based
// eviction entirely and fall back to pure recency-based eviction with the
// same byte budget interpreted as an entry count.
func NewLRU[K comparable, V any](maxBytes int64, sizeOf func(V) int64) *LRU[K, V] {
	c := &LRU[K, V]{maxBytes: maxBytes, sizeOf: sizeOf, pinned: make(map[K]lruEntry[V])}
	evictable, err := lru.NewLRU[K, lruEntry[V]](unboundedEntries, func(key K, entry lruEntry[V]) {
		c.evictableBytes -= entry.bytes
	})
	if err != nil {
		// unboundedEntries is a positive constant; NewLRU only fails for
		// size <= 0.
		panic(err)
	}
	c.evictable = evictable
	return c
}

// Contains reports whether key is present (pinned or not), without
// affecting recency.
func (c *LRU[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pinned[key]; ok {
		return true
	}
	return c.evictable.Contains(key)
}

// ContainsAndPinIfExists reports whether key is present, and if it is
// present but not yet pinned, pins it. Mirrors
// containsAndMakePinnedIfExists, used by computeOncePinned to upgrade an
// already-cached unpinned result without recomputing it.
func (c *LRU[K, V]) ContainsAndPinIfExists(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pinned[key]; ok {
		return true
	}
	entry, ok := c.evictable.Peek(key)
	if !ok {
		return false
	}
	c.evictable.Remove(key)
	c.pinned[key] = entry
	c.pinnedBytes += entry.bytes
	return true
}

// At returns the value for key, touching recency if it is in the evictable
// partition. The zero value and false are returned if key is absent.
func (c *LRU[K, V]) At(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.pinned[key]; ok {
		return entry.value, true
	}
	entry, ok := c.evictable.Get(key)
	return entry.value, ok
}

// Insert adds key -> value to the evictable partition, evicting the least
// recently used evictable entries as needed to respect the byte budget.
// Pinned entries are never evicted by this call.
func (c *LRU[K, V]) Insert(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := lruEntry[V]{value: value, bytes: c.sizeOf(value)}
	c.evictable.Add(key, entry)
	c.evictableBytes += entry.bytes
	c.evictToFit()
}

// InsertPinned adds key -> value directly to the pinned partition, exempt
// from the byte budget.
func (c *LRU[K, V]) InsertPinned(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := lruEntry[V]{value: value, bytes: c.sizeOf(value)}
	c.pinned[key] = entry
	c.pinnedBytes += entry.bytes
}

func (c *LRU[K, V]) evictToFit() {
	for c.evictableBytes > c.maxBytes && c.evictable.Len() > 0 {
		c.evictable.RemoveOldest()
	}
}

// ClearUnpinnedOnly removes every evictable entry, leaving pinned entries
// untouched.
func (c *LRU[K, V]) ClearUnpinnedOnly() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictable.Purge()
	c.evictableBytes = 0
}

// ClearAll removes both the evictable and the pinned partitions.
func (c *LRU[K, V]) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictable.Purge()
	c.evictableBytes = 0
	c.pinned = make(map[K]lruEntry[V])
	c.pinnedBytes = 0
}

// NumCachedElements reports the number of evictable entries.
func (c *LRU[K, V]) NumCachedElements() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictable.Len()
}

// NumPinnedElements reports the number of pinned entries.
func (c *LRU[K, V]) NumPinnedElements() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pinned)
}

// CachedBytes reports the total size of evictable entries.
func (c *LRU[K, V]) CachedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictableBytes
}

// PinnedBytes reports the total size of pinned entries.
func (c *LRU[K, V]) PinnedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pinnedBytes
}
