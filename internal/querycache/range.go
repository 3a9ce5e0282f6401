package querycache

import (
	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
)

// rangeCachedChunk is one pre-processed chunk held by a RangeCache.
type rangeCachedChunk struct {
	chunk *chunk.Chunk

	// resorted is true when pre-processing produced a copy (the source
	// chunk needed sorting); false when the cached chunk is just a
	// reference to the one the store holds.
	resorted bool

	// minTime is the cached chunk's minimum time on the cache key's
	// timeline (or TimeStatic), used to decide whether this entry falls
	// within a pending invalidation's affected range.
	minTime chunk.TimeInt
}

// RangeCache memoizes the store's relevant chunks for one (entity, timeline,
// component) key, pre-sorted and densified on first sight so that repeat
// range queries against the same chunk only pay for the interval slice.
type RangeCache struct {
	key CacheKey

	chunks map[chunk.ChunkID]rangeCachedChunk

	pendingInvalidation    chunk.TimeInt
	hasPendingInvalidation bool
}

func newRangeCache(key CacheKey) *RangeCache {
	return &RangeCache{key: key, chunks: make(map[chunk.ChunkID]rangeCachedChunk)}
}

func (c *RangeCache) markInvalidated(t chunk.TimeInt) {
	if !c.hasPendingInvalidation || t < c.pendingInvalidation {
		c.pendingInvalidation = t
		c.hasPendingInvalidation = true
	}
}

// handlePendingInvalidation drops every cached chunk whose min time is
// greater than or equal to the earliest pending invalidation time. A chunk
// already removed from the store (compacted or GC'd) will simply stop being
// returned by the store's relevant-chunks query on the next access and so
// naturally falls out of use even if this pass doesn't evict it by time.
func (c *RangeCache) handlePendingInvalidation() {
	if !c.hasPendingInvalidation {
		return
	}
	threshold := c.pendingInvalidation
	for id, cached := range c.chunks {
		if cached.minTime >= threshold {
			delete(c.chunks, id)
		}
	}
	c.hasPendingInvalidation = false
}

// rangeQuery returns, for one component, the query-sliced chunks covering
// query's interval: every chunk the store reports relevant, pre-processed
// and cached, then sliced.
func (c *RangeCache) rangeQuery(store *chunkstore.Store, query chunk.RangeQuery, entity chunk.EntityPath, component chunk.ComponentDescriptor) []*chunk.Chunk {
	relevant := store.RangeRelevantChunks(query, entity, component)

	out := make([]*chunk.Chunk, 0, len(relevant))
	for _, raw := range relevant {
		cached, ok := c.chunks[raw.ID()]
		if !ok {
			sorted := raw.SortedByTimelineIfUnsorted(query.Timeline)
			densified := sorted.Densified(component)
			minTime := chunk.TimeStatic
			if lo, _, hasTimeline := densified.TimeRange(query.Timeline); hasTimeline {
				minTime = lo
			}
			cached = rangeCachedChunk{
				chunk:    densified,
				resorted: sorted != raw,
				minTime:  minTime,
			}
			c.chunks[raw.ID()] = cached
		}

		sliced := cached.chunk.Range(query, component)
		if !sliced.IsEmpty() {
			out = append(out, sliced)
		}
	}
	return out
}
