package querycache

import (
	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
)

// OnEvents implements chunkstore.StoreSubscriber. It only records intent:
// actual eviction of stale cache entries is deferred to the next query that
// touches the affected key (handlePendingInvalidation).
func (c *Cache) OnEvents(batch []chunkstore.Event) {
	for _, event := range batch {
		ch := event.Chunk
		if ch == nil {
			continue
		}
		if ch.IsStatic() {
			c.invalidateStatic(ch)
			continue
		}
		c.invalidateTemporal(ch)
	}
}

// invalidateStatic marks every cache key for this chunk's (entity,
// component) pairs, on any timeline, since a static value is visible at
// every time on every timeline.
func (c *Cache) invalidateStatic(ch *chunk.Chunk) {
	entityKey := ch.EntityPath().Key()
	for _, component := range ch.ComponentDescriptors() {
		c.latestAt.forEach(func(key CacheKey, e *lockedEntry[*LatestAtCache]) {
			if key.EntityPath != entityKey || key.Component != component {
				return
			}
			e.mu.Lock()
			e.value.markInvalidated(chunk.TimeStatic)
			e.mu.Unlock()
		})
		c.rangeC.forEach(func(key CacheKey, e *lockedEntry[*RangeCache]) {
			if key.EntityPath != entityKey || key.Component != component {
				return
			}
			e.mu.Lock()
			e.value.markInvalidated(chunk.TimeStatic)
			e.mu.Unlock()
		})
	}
}

// invalidateTemporal marks the exact (entity, timeline, component) keys
// this chunk carries, at the chunk's minimum time on each timeline.
func (c *Cache) invalidateTemporal(ch *chunk.Chunk) {
	entityKey := ch.EntityPath().Key()
	for _, timeline := range ch.Timelines() {
		minTime, _, ok := ch.TimeRange(timeline)
		if !ok {
			continue
		}
		for _, component := range ch.ComponentDescriptors() {
			key := CacheKey{EntityPath: entityKey, Timeline: timeline, Component: component}
			if e, ok := c.latestAt.entries.Peek(key); ok {
				e.mu.Lock()
				e.value.markInvalidated(minTime)
				e.mu.Unlock()
			}
			if e, ok := c.rangeC.entries.Peek(key); ok {
				e.mu.Lock()
				e.value.markInvalidated(minTime)
				e.mu.Unlock()
			}
		}
	}
}
