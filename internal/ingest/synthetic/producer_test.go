package synthetic

import (
	"context"
	"testing"
	"time"

	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
)

func TestNewRequiresComponents(t *testing.T) {
	store := chunkstore.New("s", chunkstore.Options{})
	if _, err := New(store, Params{}, nil); err == nil {
		t.Fatal("expected an error with no components configured")
	}
}

func TestNewRejectsInvertedInterval(t *testing.T) {
	store := chunkstore.New("s", chunkstore.Options{})
	desc := chunk.NewComponentDescriptor("rrcore.Scalar")
	_, err := New(store, Params{
		Components:  []chunk.ComponentDescriptor{desc},
		MinInterval: time.Second,
		MaxInterval: time.Millisecond,
	}, nil)
	if err == nil {
		t.Fatal("expected an error when MinInterval exceeds MaxInterval")
	}
}

func TestRunInsertsChunksUntilCancelled(t *testing.T) {
	store := chunkstore.New("s", chunkstore.Options{})
	desc := chunk.NewComponentDescriptor("rrcore.Scalar")

	p, err := New(store, Params{
		Components:  []chunk.ComponentDescriptor{desc},
		MinInterval: time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
		EntityCount: 2,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	found := false
	for _, ep := range p.Entities() {
		if store.EntityHasComponentOnTimeline(chunk.LogTick, ep, desc) {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one entity to have received a synthetic row")
	}
}

func TestSeedSyncInsertsExactRowCount(t *testing.T) {
	store := chunkstore.New("s", chunkstore.Options{})
	desc := chunk.NewComponentDescriptor("rrcore.Scalar")
	p, err := New(store, Params{Components: []chunk.ComponentDescriptor{desc}, EntityCount: 1}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.SeedSync(5); err != nil {
		t.Fatalf("SeedSync: %v", err)
	}

	chunks := store.RangeRelevantChunks(chunk.NewRangeQuery(chunk.LogTick, 0, chunk.TimeMax), p.Entities()[0], desc)
	var rows int
	for _, c := range chunks {
		rows += c.Len()
	}
	if rows != 5 {
		t.Errorf("row count = %d, want 5", rows)
	}
}

func TestInsertOneIsDeterministicShape(t *testing.T) {
	store := chunkstore.New("s", chunkstore.Options{})
	desc := chunk.NewComponentDescriptor("rrcore.Scalar")
	p, err := New(store, Params{Components: []chunk.ComponentDescriptor{desc}, EntityCount: 1}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.insertOne(1); err != nil {
		t.Fatalf("insertOne: %v", err)
	}

	relevant := store.LatestAtRelevantChunks(chunk.NewLatestAtQuery(chunk.LogTick, chunk.TimeMax), p.Entities()[0], desc)
	if len(relevant) != 1 {
		t.Fatalf("expected exactly one relevant chunk, got %d", len(relevant))
	}
}
