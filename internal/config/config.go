// Package config provides configuration persistence for per-store tunables.
//
// Store persists and reloads the GC and compaction knobs each chunk store
// runs with. This is control-plane state, not data-plane state: it is
// never touched on the ingest or query hot path, only at startup and on
// reload.
package config

import "context"

// Store persists and loads store tunables.
type Store interface {
	// Load reads the configuration. Returns a nil Config if none has been
	// saved yet.
	Load(ctx context.Context) (*Config, error)

	// Save persists the configuration.
	Save(ctx context.Context, cfg *Config) error
}

// Config describes the tunables for every store a process runs.
type Config struct {
	Stores []StoreConfig
}

// StoreConfig holds one store's bucket, compaction, and GC tunables. Zero
// values mean "use the store's built-in default" for that field; callers
// apply a StoreConfig over chunkstore.Options rather than constructing
// Options from it wholesale, so partially-specified configs are safe.
type StoreConfig struct {
	// ID names the store this tunable set applies to.
	ID string

	// BucketRowThreshold caps the size of one time-bucketed index segment
	// before it splits. The segment's size is its number of index entries
	// (one per chunk), not the rows inside those chunks.
	BucketRowThreshold int

	// CompactionRowLimit caps the row count an opportunistic compaction may
	// produce; 0 disables compaction.
	CompactionRowLimit int

	// GCMaxBytes is the byte budget GC tries to stay under. Zero disables
	// byte-based eviction.
	GCMaxBytes int64

	// GCMaxTimeBudgetSeconds bounds how long one GC pass may run before
	// returning early. Zero means unbounded.
	GCMaxTimeBudgetSeconds int64

	// GCTimelineName and GCTimelineType name the timeline GC's protected
	// window is measured on.
	GCTimelineName string
	GCTimelineType int

	// GCProtectLatest is the earliest time on that timeline GC will never
	// evict at or after, preserving a trailing window of recent data
	// regardless of budget pressure.
	GCProtectLatest int64

	// GCCron is the 6-field (seconds-first) cron expression driving the
	// scheduled GC sweep, e.g. "0 */5 * * * *" for every five minutes. Empty
	// disables the scheduled sweep; GC can still be invoked manually.
	GCCron string
}

// Find returns the StoreConfig for id, if one is present.
func (c *Config) Find(id string) (StoreConfig, bool) {
	if c == nil {
		return StoreConfig{}, false
	}
	for _, sc := range c.Stores {
		if sc.ID == id {
			return sc, true
		}
	}
	return StoreConfig{}, false
}
