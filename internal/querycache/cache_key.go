// Package querycache sits between query consumers and the chunk store,
// memoizing latest-at and range results so repeated queries don't repay the
// cost of bucket traversal, sort checks, and densification every time.
package querycache

import "rrcore/internal/chunk"

// CacheKey identifies one cacheable query shape: a component, on a
// timeline, for one entity.
type CacheKey struct {
	EntityPath string
	Timeline   chunk.Timeline
	Component  chunk.ComponentDescriptor
}

// NewCacheKey builds a CacheKey from a live EntityPath.
func NewCacheKey(entity chunk.EntityPath, timeline chunk.Timeline, component chunk.ComponentDescriptor) CacheKey {
	return CacheKey{EntityPath: entity.Key(), Timeline: timeline, Component: component}
}
