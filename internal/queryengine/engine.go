// Package queryengine provides the public latest-at/range API used by
// higher layers. It is thin: it validates arguments, fans a query's
// requested components out across a querycache.Cache, and offers typed
// decoding helpers on top of the chunk references the cache returns.
package queryengine

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
	"rrcore/internal/logging"
	"rrcore/internal/querycache"
)

// Engine combines one store and its cache behind the query surface
// consumers (visualizers, dataframe exporters, API clients) use.
type Engine struct {
	store  *chunkstore.Store
	cache  *querycache.Cache
	logger *slog.Logger

	deserMu     sync.Mutex
	deserLogged map[chunk.ComponentDescriptor]bool
}

// New builds an Engine over store, creating and registering a fresh cache.
// Pass a nil logger to discard engine-level log output.
func New(store *chunkstore.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:       store,
		cache:       querycache.New(store),
		logger:      logging.Default(logger).With("component", "query-engine"),
		deserLogged: make(map[chunk.ComponentDescriptor]bool),
	}
}

// Store returns the store this engine serves.
func (e *Engine) Store() *chunkstore.Store { return e.store }

// LatestAt resolves a latest-at query for entity, fanning the requested
// components out across the cache concurrently. A component absent from
// the returned results was never logged on this entity/timeline, or was
// logged only after the query time.
func (e *Engine) LatestAt(ctx context.Context, query chunk.LatestAtQuery, entity chunk.EntityPath, components []chunk.ComponentDescriptor) (*querycache.LatestAtResults, error) {
	if len(components) == 0 {
		return &querycache.LatestAtResults{Query: query, Components: map[chunk.ComponentDescriptor]querycache.LatestAtResult{}}, nil
	}

	merged := make(map[chunk.ComponentDescriptor]querycache.LatestAtResult)
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for _, component := range components {
		component := component
		g.Go(func() error {
			res := e.cache.LatestAt(query, entity, []chunk.ComponentDescriptor{component})
			if v, ok := res.Get(component); ok {
				mu.Lock()
				merged[component] = v
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &querycache.LatestAtResults{Query: query, Components: merged}, nil
}

// Range resolves a range query for entity, fanning the requested components
// out across the cache concurrently.
func (e *Engine) Range(ctx context.Context, query chunk.RangeQuery, entity chunk.EntityPath, components []chunk.ComponentDescriptor) (*querycache.RangeResults, error) {
	if len(components) == 0 {
		return &querycache.RangeResults{Query: query, Components: map[chunk.ComponentDescriptor][]*chunk.Chunk{}}, nil
	}

	merged := make(map[chunk.ComponentDescriptor][]*chunk.Chunk)
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for _, component := range components {
		component := component
		g.Go(func() error {
			res := e.cache.Range(query, entity, []chunk.ComponentDescriptor{component})
			if v, ok := res.Get(component); ok {
				mu.Lock()
				merged[component] = v
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &querycache.RangeResults{Query: query, Components: merged}, nil
}

// logDeserializationError reports a per-component decode failure at most
// once, per the core's de-duplicated logging policy for query-time errors.
func (e *Engine) logDeserializationError(component chunk.ComponentDescriptor, rowID chunk.RowId, err error) {
	e.deserMu.Lock()
	already := e.deserLogged[component]
	e.deserLogged[component] = true
	e.deserMu.Unlock()

	if already {
		return
	}
	e.logger.Warn("component deserialization failed",
		"component", component.String(),
		"row_id", rowID.String(),
		"error", err,
	)
}
