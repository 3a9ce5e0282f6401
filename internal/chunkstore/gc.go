package chunkstore

import (
	"time"

	"rrcore/internal/chunk"
)

// GCTarget bounds one GC pass. Static chunks are never evicted. A temporal
// chunk is protected (never evicted) if its max time on Timeline is >=
// ProtectLatest, preserving a trailing window of the most recent data
// regardless of budget pressure.
type GCTarget struct {
	// MaxBytes is the total store size GC tries to fall under. Zero means
	// no byte-based eviction.
	MaxBytes int64

	// MaxTimeBudget bounds how long GC is allowed to keep evicting before
	// returning, whether or not MaxBytes has been reached. Zero means
	// unbounded (GC runs to completion or exhausts eligible chunks).
	MaxTimeBudget time.Duration

	// Timeline and ProtectLatest together define the protected window.
	Timeline     chunk.Timeline
	ProtectLatest chunk.TimeInt
}

// GC evicts temporal chunks in least-recently-inserted order until the
// store falls under target.MaxBytes or target.MaxTimeBudget is exhausted,
// whichever comes first. GC never fails: it is allowed to make no progress
// if nothing is evictable, and returns whatever partial progress it made
// if the time budget runs out first -- callers re-invoke later to continue.
func (s *Store) GC(target GCTarget) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deadline time.Time
	if target.MaxTimeBudget > 0 {
		deadline = s.cfg.Now().Add(target.MaxTimeBudget)
	}

	totalBytes := s.totalBytesLocked()
	candidates := append([]chunk.ChunkID(nil), s.insertOrder...)

	var events []Event
	for _, id := range candidates {
		if target.MaxBytes <= 0 || totalBytes <= target.MaxBytes {
			break
		}
		if !deadline.IsZero() && s.cfg.Now().After(deadline) {
			break
		}
		c, ok := s.chunks[id]
		if !ok || c.IsStatic() {
			continue
		}
		if _, maxT, ok := c.TimeRange(target.Timeline); ok && maxT >= target.ProtectLatest {
			continue
		}
		totalBytes -= c.TotalSizeBytes()
		s.removeChunkLocked(id)
		events = append(events, Event{Kind: ChunkRemoved, StoreID: s.id, Chunk: c})
	}

	if len(events) > 0 {
		s.generation++
		s.notifyLocked(events)
		s.watch.Notify()
		s.logger.Info("gc evicted chunks", "count", len(events), "bytes_remaining", totalBytes)
	}
	return events
}

func (s *Store) totalBytesLocked() int64 {
	var total int64
	for _, c := range s.chunks {
		total += c.TotalSizeBytes()
	}
	return total
}
