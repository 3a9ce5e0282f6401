// Package storetest provides a shared conformance test suite for
// config.Store implementations. Each backend (memory, file) wires this
// suite to verify it satisfies the full Store contract.
package storetest

import (
	"context"
	"testing"

	"rrcore/internal/config"
)

// TestStore runs the full conformance suite against a Store implementation.
// newStore must return a fresh, empty store for each sub-test.
func TestStore(t *testing.T, newStore func(t *testing.T) config.Store) {
	t.Run("LoadEmpty", func(t *testing.T) {
		s := newStore(t)
		cfg, err := s.Load(context.Background())
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg != nil {
			t.Fatalf("expected nil config from an empty store, got %+v", cfg)
		}
	})

	t.Run("SaveThenLoadRoundTrips", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		want := &config.Config{Stores: []config.StoreConfig{
			{ID: "a", BucketRowThreshold: 1024, CompactionRowLimit: 4096, GCMaxBytes: 1 << 20},
			{ID: "b", GCCron: "0 */5 * * * *", GCProtectLatest: 1000},
		}}
		if err := s.Save(ctx, want); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got == nil || len(got.Stores) != 2 {
			t.Fatalf("Load = %+v, want 2 stores", got)
		}

		byID := make(map[string]config.StoreConfig, len(got.Stores))
		for _, sc := range got.Stores {
			byID[sc.ID] = sc
		}
		if byID["a"].BucketRowThreshold != 1024 || byID["a"].GCMaxBytes != 1<<20 {
			t.Errorf("store a round-tripped incorrectly: %+v", byID["a"])
		}
		if byID["b"].GCCron != "0 */5 * * * *" || byID["b"].GCProtectLatest != 1000 {
			t.Errorf("store b round-tripped incorrectly: %+v", byID["b"])
		}
	})

	t.Run("SaveReplacesPreviousContents", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Save(ctx, &config.Config{Stores: []config.StoreConfig{{ID: "a"}, {ID: "b"}}}); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := s.Save(ctx, &config.Config{Stores: []config.StoreConfig{{ID: "c"}}}); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(got.Stores) != 1 || got.Stores[0].ID != "c" {
			t.Fatalf("Load after replacing save = %+v, want just store c", got)
		}
	})

	t.Run("SaveEmptyConfigClearsStore", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Save(ctx, &config.Config{Stores: []config.StoreConfig{{ID: "a"}}}); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := s.Save(ctx, &config.Config{}); err != nil {
			t.Fatalf("Save empty: %v", err)
		}

		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got != nil {
			t.Fatalf("Load after saving an empty config = %+v, want nil", got)
		}
	})
}
