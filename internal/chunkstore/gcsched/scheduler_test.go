package gcsched

import (
	"testing"
	"time"

	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
)

func TestSchedulerRunsGCPeriodically(t *testing.T) {
	store := chunkstore.New("gcsched-test", chunkstore.Options{CompactionRowLimit: 0})

	ep := chunk.ParseEntityPath("a")
	rowIDs := []chunk.RowId{chunk.NewRowId()}
	desc := chunk.NewComponentDescriptor("rrcore.Scalar")
	c, err := chunk.FromRows(chunk.NewChunkID(), ep, rowIDs,
		map[chunk.Timeline][]chunk.TimeInt{chunk.LogTick: {1}},
		map[chunk.ComponentDescriptor][]any{desc: {1.0}},
		nil,
	)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if _, err := store.InsertChunk(c); err != nil {
		t.Fatalf("InsertChunk: %v", err)
	}

	target := chunkstore.GCTarget{MaxBytes: 1, Timeline: chunk.LogTick, ProtectLatest: chunk.TimeMax}
	sched, err := New(store, target, "* * * * * *", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sched.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := store.GetChunk(c.ID()); !ok {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("expected the scheduled GC pass to evict the chunk within the deadline")
}
