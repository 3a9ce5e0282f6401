package chunkstore

// Stats is an instantaneous snapshot of a store's size, grounded on the
// source recording format's per-store stats struct: total chunk count,
// row count, and byte footprint, split between the static overlay and the
// temporal index so callers can see which side of the store is growing.
type Stats struct {
	StaticChunks    int
	StaticRows      int
	StaticBytes     int64
	TemporalChunks  int
	TemporalRows    int
	TemporalBytes   int64
	Generation      uint64
}

// Stats computes a fresh snapshot. Proportional to the number of chunks
// currently held; not intended to be called on a hot path.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	st.Generation = s.generation
	staticIDs := make(map[string]struct{}, len(s.staticOverlay))
	for _, id := range s.staticOverlay {
		staticIDs[id.String()] = struct{}{}
	}
	for id, c := range s.chunks {
		if _, ok := staticIDs[id.String()]; ok {
			st.StaticChunks++
			st.StaticRows += c.Len()
			st.StaticBytes += c.TotalSizeBytes()
		} else {
			st.TemporalChunks++
			st.TemporalRows += c.Len()
			st.TemporalBytes += c.TotalSizeBytes()
		}
	}
	return st
}
