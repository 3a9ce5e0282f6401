package querycache

import (
	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
)

// latestAtResult is a resolved latest-at answer, or a recorded miss (found
// false) so that repeated queries for times with no data also hit cache
// instead of re-scanning the store every time.
type latestAtResult struct {
	rowID chunk.RowId
	ref   *chunk.Chunk
	index int
	found bool
}

// LatestAtCache memoizes latest-at results for one (entity, timeline,
// component) key. Results are kept both by the query time that produced
// them and by the data time of the winning row; lookups consult only the
// query-time index, and the data-time index is only written and pruned.
type LatestAtCache struct {
	key CacheKey

	byQueryTime map[chunk.TimeInt]latestAtResult
	byDataTime  map[chunk.TimeInt]latestAtResult

	pendingInvalidation    chunk.TimeInt
	hasPendingInvalidation bool
}

func newLatestAtCache(key CacheKey) *LatestAtCache {
	return &LatestAtCache{
		key:         key,
		byQueryTime: make(map[chunk.TimeInt]latestAtResult),
		byDataTime:  make(map[chunk.TimeInt]latestAtResult),
	}
}

// markInvalidated records that data at or after t may have changed this
// key's answers. Invalidation is deferred: nothing is evicted until the
// next call to handlePendingInvalidation.
func (c *LatestAtCache) markInvalidated(t chunk.TimeInt) {
	if !c.hasPendingInvalidation || t < c.pendingInvalidation {
		c.pendingInvalidation = t
		c.hasPendingInvalidation = true
	}
}

// handlePendingInvalidation drops every cached entry whose key (query time
// or data time) is greater than or equal to the earliest pending
// invalidation time, then clears the pending mark.
func (c *LatestAtCache) handlePendingInvalidation() {
	if !c.hasPendingInvalidation {
		return
	}
	threshold := c.pendingInvalidation
	for t := range c.byQueryTime {
		if t >= threshold {
			delete(c.byQueryTime, t)
		}
	}
	for t := range c.byDataTime {
		if t >= threshold {
			delete(c.byDataTime, t)
		}
	}
	c.hasPendingInvalidation = false
}

// latestAt serves query from cache if present, else resolves it against
// store and memoizes the result (hit or miss) under both indices.
func (c *LatestAtCache) latestAt(store *chunkstore.Store, query chunk.LatestAtQuery, entity chunk.EntityPath, component chunk.ComponentDescriptor) latestAtResult {
	if cached, ok := c.byQueryTime[query.Time]; ok {
		return cached
	}

	result := computeLatestAt(store, query, entity, component)
	c.byQueryTime[query.Time] = result
	if result.found {
		dataTime, _ := result.ref.TimeAt(query.Timeline, result.index)
		c.byDataTime[dataTime] = result
	}
	return result
}

// computeLatestAt picks the globally best (time, RowId) winner across every
// chunk the store reports as relevant, since each chunk only resolves its
// own local winner. A static chunk's answer wins unconditionally over any
// temporal answer, regardless of query time.
func computeLatestAt(store *chunkstore.Store, query chunk.LatestAtQuery, entity chunk.EntityPath, component chunk.ComponentDescriptor) latestAtResult {
	relevant := store.LatestAtRelevantChunks(query, entity, component)

	var static latestAtResult
	var best latestAtResult
	var bestTime chunk.TimeInt
	for _, ch := range relevant {
		rowID, idx, ok := ch.LatestAt(query, component)
		if !ok {
			continue
		}
		if ch.IsStatic() {
			static = latestAtResult{rowID: rowID, ref: ch, index: idx, found: true}
			continue
		}
		t, _ := ch.TimeAt(query.Timeline, idx)
		if !best.found || t > bestTime || (t == bestTime && best.rowID.Less(rowID)) {
			best = latestAtResult{rowID: rowID, ref: ch, index: idx, found: true}
			bestTime = t
		}
	}
	if static.found {
		return static
	}
	return best
}
