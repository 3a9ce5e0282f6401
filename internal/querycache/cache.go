package querycache

import (
	"fmt"

	"rrcore/internal/callgroup"
	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
)

// defaultKeyCapacity bounds how many distinct (entity, timeline, component)
// keys either cache holds live entries for at once. Eviction beyond this
// only forces a future recompute, never a correctness problem.
const defaultKeyCapacity = 4096

// Cache sits in front of one chunkstore.Store, memoizing latest-at and
// range query results. It registers itself as a chunkstore.StoreSubscriber
// so it hears about every insertion, compaction, and eviction and can mark
// the affected cache keys for lazy invalidation.
type Cache struct {
	storeID chunkstore.StoreID
	store   *chunkstore.Store

	latestAt *keyedCache[*LatestAtCache]
	rangeC   *keyedCache[*RangeCache]

	coalesceLatestAt callgroup.Group[string]
	coalesceRange    callgroup.Group[string]
}

// New creates a cache in front of store and registers it as a subscriber.
func New(store *chunkstore.Store) *Cache {
	c := &Cache{
		storeID:  store.ID(),
		store:    store,
		latestAt: newKeyedCache[*LatestAtCache](defaultKeyCapacity),
		rangeC:   newKeyedCache[*RangeCache](defaultKeyCapacity),
	}
	store.AddSubscriber(c)
	return c
}

// Name identifies this subscriber for diagnostics.
func (c *Cache) Name() string { return "querycache" }

// LatestAt resolves a latest-at query for every named component not
// already known-absent, serving from cache where possible.
func (c *Cache) LatestAt(query chunk.LatestAtQuery, entity chunk.EntityPath, components []chunk.ComponentDescriptor) *LatestAtResults {
	results := newLatestAtResults(query)

	for _, component := range components {
		if !c.store.EntityHasComponentOnTimeline(query.Timeline, entity, component) {
			continue
		}

		key := NewCacheKey(entity, query.Timeline, component)
		entry := c.latestAt.getOrCreate(key, func() *LatestAtCache { return newLatestAtCache(key) })

		coalesceKey := fmt.Sprintf("%s|%s|%s|%d", key.EntityPath, key.Timeline.Name, key.Component, query.Time)
		var got latestAtResult
		<-c.coalesceLatestAt.DoChan(coalesceKey, func() error {
			entry.mu.Lock()
			defer entry.mu.Unlock()
			entry.value.handlePendingInvalidation()
			got = entry.value.latestAt(c.store, query, entity, component)
			return nil
		})

		if got.found {
			results.Components[component] = LatestAtResult{RowID: got.rowID, Chunk: got.ref, Index: got.index}
		}
	}

	return results
}

// Range resolves a range query for every named component not already
// known-absent, serving pre-processed chunks from cache where possible.
func (c *Cache) Range(query chunk.RangeQuery, entity chunk.EntityPath, components []chunk.ComponentDescriptor) *RangeResults {
	results := newRangeResults(query)

	for _, component := range components {
		if !c.store.EntityHasComponentOnTimeline(query.Timeline, entity, component) {
			continue
		}

		key := NewCacheKey(entity, query.Timeline, component)
		entry := c.rangeC.getOrCreate(key, func() *RangeCache { return newRangeCache(key) })

		coalesceKey := fmt.Sprintf("%s|%s|%s|%d|%d", key.EntityPath, key.Timeline.Name, key.Component, query.Min, query.Max)
		var got []*chunk.Chunk
		<-c.coalesceRange.DoChan(coalesceKey, func() error {
			entry.mu.Lock()
			defer entry.mu.Unlock()
			entry.value.handlePendingInvalidation()
			got = entry.value.rangeQuery(c.store, query, entity, component)
			return nil
		})

		if len(got) > 0 {
			results.Components[component] = got
		}
	}

	return results
}
