package config

import (
	"time"

	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
)

// ChunkStoreOptions translates the bucket and compaction tunables into a
// chunkstore.Options, leaving Now and Logger to the caller since those are
// wiring concerns config never owns.
func (sc StoreConfig) ChunkStoreOptions() chunkstore.Options {
	var opts chunkstore.Options
	if sc.BucketRowThreshold > 0 {
		opts.BucketSplitPolicy = chunk.NewRowThresholdPolicy(sc.BucketRowThreshold)
	}
	opts.CompactionRowLimit = sc.CompactionRowLimit
	return opts
}

// GCTarget translates the GC tunables into a chunkstore.GCTarget.
func (sc StoreConfig) GCTarget() chunkstore.GCTarget {
	return chunkstore.GCTarget{
		MaxBytes:      sc.GCMaxBytes,
		MaxTimeBudget: time.Duration(sc.GCMaxTimeBudgetSeconds) * time.Second,
		Timeline:      chunk.NewTimeline(sc.GCTimelineName, chunk.TimelineType(sc.GCTimelineType)),
		ProtectLatest: chunk.TimeInt(sc.GCProtectLatest),
	}
}
