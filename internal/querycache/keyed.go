package querycache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// lockedEntry pairs one cache key's value with its own lock, so that
// independent keys never contend once the top-level lookup has released its
// lock.
type lockedEntry[V any] struct {
	mu    sync.RWMutex
	value V
}

// keyedCache is the top-level (key -> per-key entry) map backing both
// LatestAtCache and RangeCache storage. It is LRU-bounded so a stream of
// ever-distinct entities cannot pin memory forever; eviction here only
// forces a future recompute; it never affects correctness.
//
// Lookup releases the top-level lock before the caller touches the per-key
// lock: creation is guarded by a short-lived mutex held only long enough to
// check-and-insert, never across the expensive work a caller performs once
// it holds the per-key lock.
type keyedCache[V any] struct {
	createMu sync.Mutex
	entries  *lru.Cache[CacheKey, *lockedEntry[V]]
}

func newKeyedCache[V any](size int) *keyedCache[V] {
	c, err := lru.New[CacheKey, *lockedEntry[V]](size)
	if err != nil {
		// Only returns an error for size <= 0; both call sites pass positive
		// compile-time constants.
		panic(err)
	}
	return &keyedCache[V]{entries: c}
}

// getOrCreate returns the entry for key, creating it via newFn on first
// access. The returned pointer is safe to use after this call returns: the
// top-level lock (the LRU's internal lock plus createMu) is not held while
// the caller works with the entry's own lock.
func (c *keyedCache[V]) getOrCreate(key CacheKey, newFn func() V) *lockedEntry[V] {
	if e, ok := c.entries.Get(key); ok {
		return e
	}
	c.createMu.Lock()
	defer c.createMu.Unlock()
	if e, ok := c.entries.Get(key); ok {
		return e
	}
	e := &lockedEntry[V]{value: newFn()}
	c.entries.Add(key, e)
	return e
}

// forEach visits every currently-live entry. Used by the subscriber to fan
// invalidation out to matching keys.
func (c *keyedCache[V]) forEach(f func(CacheKey, *lockedEntry[V])) {
	for _, key := range c.entries.Keys() {
		if e, ok := c.entries.Peek(key); ok {
			f(key, e)
		}
	}
}

// purge drops every entry, used when the cache as a whole is reset.
func (c *keyedCache[V]) purge() { c.entries.Purge() }
