package memtest

import (
	"context"
	"sync"
	"testing"

	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
)

// TestConcurrentAccess drives InsertChunk, LatestAt, Range, and GC from many
// goroutines at once against a single store. It carries no assertions of its
// own beyond absence of a panic or deadlock; its purpose is to be run with
// `go test -race` so the store's and cache's locking actually gets exercised
// under contention.
func TestConcurrentAccess(t *testing.T) {
	s := MustNewStore(t, "concurrent")
	ep := chunk.ParseEntityPath("a/b")
	desc := chunk.NewComponentDescriptor("rrcore.Scalar")
	ctx := context.Background()

	const writers = 8
	const readers = 8
	const opsPerGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(writers + readers + 1)

	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < opsPerGoroutine; i++ {
				tick := chunk.TimeInt(w*opsPerGoroutine + i)
				rowID := chunk.NewRowId()
				c, err := chunk.FromRows(chunk.NewChunkID(), ep, []chunk.RowId{rowID},
					map[chunk.Timeline][]chunk.TimeInt{chunk.LogTick: {tick}},
					map[chunk.ComponentDescriptor][]any{desc: {float64(tick)}},
					nil,
				)
				if err != nil {
					t.Errorf("FromRows: %v", err)
					continue
				}
				if _, err := s.CS.InsertChunk(c); err != nil {
					t.Errorf("InsertChunk: %v", err)
				}
			}
		}(w)
	}

	for r := 0; r < readers; r++ {
		go func() {
			defer wg.Done()
			for i := 0; i < opsPerGoroutine; i++ {
				if _, err := s.QE.LatestAt(ctx, chunk.NewLatestAtQuery(chunk.LogTick, chunk.TimeMax), ep, []chunk.ComponentDescriptor{desc}); err != nil {
					t.Errorf("LatestAt: %v", err)
				}
				if _, err := s.QE.Range(ctx, chunk.NewRangeQuery(chunk.LogTick, 0, chunk.TimeMax), ep, []chunk.ComponentDescriptor{desc}); err != nil {
					t.Errorf("Range: %v", err)
				}
			}
		}()
	}

	go func() {
		defer wg.Done()
		for i := 0; i < opsPerGoroutine; i++ {
			s.CS.GC(chunkstore.GCTarget{MaxBytes: 1 << 20, Timeline: chunk.LogTick, ProtectLatest: chunk.TimeInt(i)})
		}
	}()

	wg.Wait()
}
