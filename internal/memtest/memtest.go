// Package memtest provides shared test helpers for wiring up a
// chunkstore.Store and its queryengine.Engine. It eliminates the
// boilerplate of constructing and populating a store that is duplicated
// across chunkstore, querycache, and queryengine test files.
package memtest

import (
	"testing"

	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
	"rrcore/internal/queryengine"
)

// Store bundles a chunk store and the query engine built over it.
type Store struct {
	CS *chunkstore.Store
	QE *queryengine.Engine
}

// NewStore creates a Store with a fresh chunkstore.Store and an Engine
// registered over it.
func NewStore(id chunkstore.StoreID, cfg chunkstore.Options) Store {
	cs := chunkstore.New(id, cfg)
	return Store{CS: cs, QE: queryengine.New(cs, cfg.Logger)}
}

// MustNewStore is like NewStore but is intended for tests that don't
// need to vary the store config.
func MustNewStore(t *testing.T, id chunkstore.StoreID) Store {
	t.Helper()
	return NewStore(id, chunkstore.Options{})
}

// InsertSyntheticChunk builds and inserts a temporal chunk carrying one
// component column over rowIDs/times/values, returning the inserted chunk.
func InsertSyntheticChunk(t *testing.T, s Store, ep chunk.EntityPath, component chunk.ComponentDescriptor, times []chunk.TimeInt, values []any) *chunk.Chunk {
	t.Helper()

	rowIDs := make([]chunk.RowId, len(times))
	for i := range rowIDs {
		rowIDs[i] = chunk.NewRowId()
	}

	c, err := chunk.FromRows(chunk.NewChunkID(), ep, rowIDs,
		map[chunk.Timeline][]chunk.TimeInt{chunk.LogTick: times},
		map[chunk.ComponentDescriptor][]any{component: values},
		nil,
	)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if _, err := s.CS.InsertChunk(c); err != nil {
		t.Fatalf("InsertChunk: %v", err)
	}
	return c
}
