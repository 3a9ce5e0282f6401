// Command rrcore-cli is a small inspector for a chunkstore.Store and its
// queryengine.Engine, seeded with synthetic data for exploration.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
	"rrcore/internal/chunkstore/gcsched"
	"rrcore/internal/config"
	"rrcore/internal/config/file"
	"rrcore/internal/ingest/synthetic"
	"rrcore/internal/queryengine"
	"rrcore/internal/replcli"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if err := newRootCmd(logger).Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the store/engine/producer built from the root command's
// persistent flags, shared by every subcommand. watcher is non-nil only
// when --config is set; scheduler is non-nil only when the loaded or
// reloaded config has a GCCron for this store.
type app struct {
	store    *chunkstore.Store
	engine   *queryengine.Engine
	producer *synthetic.Producer
	watcher  *file.Watcher

	// schedMu guards scheduler, which the config watcher's reload
	// callback replaces from its own goroutine.
	schedMu   sync.Mutex
	scheduler *gcsched.Scheduler
}

func (a *app) setScheduler(s *gcsched.Scheduler) {
	a.schedMu.Lock()
	defer a.schedMu.Unlock()
	a.scheduler = s
}

func (a *app) stopScheduler() error {
	a.schedMu.Lock()
	defer a.schedMu.Unlock()
	if a.scheduler == nil {
		return nil
	}
	err := a.scheduler.Stop()
	a.scheduler = nil
	return err
}

// Close stops any background scheduler or config watcher started for the
// app. Safe to call on a zero-value scheduler/watcher.
func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	_ = a.stopScheduler()
}

func buildApp(cmd *cobra.Command, logger *slog.Logger) (*app, error) {
	storeID, _ := cmd.Flags().GetString("store")
	entityCount, _ := cmd.Flags().GetInt("entities")
	componentsFlag, _ := cmd.Flags().GetString("components")
	seedRows, _ := cmd.Flags().GetInt("seed-rows")
	configPath, _ := cmd.Flags().GetString("config")

	var components []chunk.ComponentDescriptor
	for _, name := range strings.Split(componentsFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		components = append(components, chunk.NewComponentDescriptor(name))
	}
	if len(components) == 0 {
		return nil, fmt.Errorf("at least one component is required (--components)")
	}

	opts := chunkstore.Options{Logger: logger}
	var sc config.StoreConfig
	var configStore *file.Store
	if configPath != "" {
		configStore = file.NewStore(configPath)
		cfg, err := configStore.Load(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if found, ok := cfg.Find(storeID); ok {
			sc = found
			fromConfig := sc.ChunkStoreOptions()
			if fromConfig.BucketSplitPolicy != nil {
				opts.BucketSplitPolicy = fromConfig.BucketSplitPolicy
			}
			if fromConfig.CompactionRowLimit != 0 {
				opts.CompactionRowLimit = fromConfig.CompactionRowLimit
			}
		}
	}

	store := chunkstore.New(chunkstore.StoreID(storeID), opts)
	engine := queryengine.New(store, logger)

	producer, err := synthetic.New(store, synthetic.Params{
		EntityCount: entityCount,
		Components:  components,
	}, logger)
	if err != nil {
		return nil, err
	}

	if seedRows > 0 {
		if err := producer.SeedSync(seedRows); err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
	}

	a := &app{store: store, engine: engine, producer: producer}

	if sc.GCCron != "" {
		sched, err := gcsched.New(store, sc.GCTarget(), sc.GCCron, logger)
		if err != nil {
			return nil, fmt.Errorf("start gc scheduler: %w", err)
		}
		a.setScheduler(sched)
	}

	if configStore != nil {
		watcher := file.NewWatcher(configStore, func(cfg *config.Config) {
			newSC, ok := cfg.Find(storeID)
			if !ok {
				return
			}

			newFromConfig := newSC.ChunkStoreOptions()
			if newFromConfig.BucketSplitPolicy != nil {
				store.SetBucketSplitPolicy(newFromConfig.BucketSplitPolicy)
			}
			store.SetCompactionRowLimit(newFromConfig.CompactionRowLimit)

			if err := a.stopScheduler(); err != nil {
				logger.Warn("stop gc scheduler for reload failed", "error", err)
				return
			}
			if newSC.GCCron != "" {
				sched, err := gcsched.New(store, newSC.GCTarget(), newSC.GCCron, logger)
				if err != nil {
					logger.Warn("restart gc scheduler after reload failed", "error", err)
					return
				}
				a.setScheduler(sched)
			}
		}, logger)
		if err := watcher.Start(); err != nil {
			return nil, fmt.Errorf("start config watcher: %w", err)
		}
		a.watcher = watcher
	}

	return a, nil
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "rrcore-cli",
		Short: "Inspect a chunk store seeded with synthetic data",
	}

	root.PersistentFlags().String("store", "inspector", "store identifier")
	root.PersistentFlags().Int("entities", 4, "number of synthetic entities to generate rows for")
	root.PersistentFlags().String("components", "rrcore.Scalar", "comma-separated component names to seed")
	root.PersistentFlags().Int("seed-rows", 20, "number of synthetic rows to insert before the command runs")
	root.PersistentFlags().String("config", "", "path to a file-backed store config (GC/compaction tunables); hot-reloaded on write")

	root.AddCommand(
		newReplCmd(logger),
		newStatsCmd(logger),
		newLatestAtCmd(logger),
		newRangeCmd(logger),
		newGCCmd(logger),
		newIngestSyntheticCmd(logger),
	)
	return root
}

func newReplCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive inspector session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return replcli.New(a.store, a.engine, os.Stdin, os.Stdout).Run()
		},
	}
}

func newStatsCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store size statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			st := a.store.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "store:    %s\n", a.store.ID())
			fmt.Fprintf(out, "static:   %d chunks, %d rows, %d bytes\n", st.StaticChunks, st.StaticRows, st.StaticBytes)
			fmt.Fprintf(out, "temporal: %d chunks, %d rows, %d bytes\n", st.TemporalChunks, st.TemporalRows, st.TemporalBytes)
			fmt.Fprintf(out, "generation: %d\n", st.Generation)
			return nil
		},
	}
}

func newLatestAtCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest-at",
		Short: "Resolve the latest value of a component at a given time",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			entity, _ := cmd.Flags().GetString("entity")
			component, _ := cmd.Flags().GetString("component")
			at, _ := cmd.Flags().GetInt64("at")

			res, err := a.engine.LatestAt(context.Background(),
				chunk.NewLatestAtQuery(chunk.LogTick, chunk.TimeInt(at)),
				chunk.ParseEntityPath(entity),
				[]chunk.ComponentDescriptor{chunk.NewComponentDescriptor(component)},
			)
			if err != nil {
				return err
			}
			hit, ok := res.Get(chunk.NewComponentDescriptor(component))
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no value")
				return nil
			}
			var v any
			if err := hit.Chunk.DecodeCell(chunk.NewComponentDescriptor(component), hit.Index, &v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "row=%s value=%v\n", hit.RowID.String(), v)
			return nil
		},
	}
	cmd.Flags().String("entity", "synthetic/entity_0", "entity path to query")
	cmd.Flags().String("component", "rrcore.Scalar", "component to query")
	cmd.Flags().Int64("at", int64(chunk.TimeMax), "time to query at")
	return cmd
}

func newRangeCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "List a component's values within a time range",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			entity, _ := cmd.Flags().GetString("entity")
			component, _ := cmd.Flags().GetString("component")
			min, _ := cmd.Flags().GetInt64("min")
			max, _ := cmd.Flags().GetInt64("max")
			desc := chunk.NewComponentDescriptor(component)

			res, err := a.engine.Range(context.Background(),
				chunk.NewRangeQuery(chunk.LogTick, chunk.TimeInt(min), chunk.TimeInt(max)),
				chunk.ParseEntityPath(entity),
				[]chunk.ComponentDescriptor{desc},
			)
			if err != nil {
				return err
			}
			chunks, ok := res.Get(desc)
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "no values")
				return nil
			}
			printed := 0
			for _, c := range chunks {
				for i, rowID := range c.RowIDs() {
					var v any
					if err := c.DecodeCell(desc, i, &v); err != nil {
						continue
					}
					fmt.Fprintf(out, "row=%s value=%v\n", rowID.String(), v)
					printed++
				}
			}
			if printed == 0 {
				fmt.Fprintln(out, "no values")
			}
			return nil
		},
	}
	cmd.Flags().String("entity", "synthetic/entity_0", "entity path to query")
	cmd.Flags().String("component", "rrcore.Scalar", "component to query")
	cmd.Flags().Int64("min", 0, "range start (inclusive)")
	cmd.Flags().Int64("max", int64(chunk.TimeMax), "range end (inclusive)")
	return cmd
}

func newGCCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Run a single GC pass against the seeded store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			maxBytes, _ := cmd.Flags().GetInt64("max-bytes")
			protect, _ := cmd.Flags().GetInt64("protect-latest")

			events := a.store.GC(chunkstore.GCTarget{
				MaxBytes:      maxBytes,
				Timeline:      chunk.LogTick,
				ProtectLatest: chunk.TimeInt(protect),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "evicted %d chunks\n", len(events))
			return nil
		},
	}
	cmd.Flags().Int64("max-bytes", 0, "byte budget to evict down to")
	cmd.Flags().Int64("protect-latest", int64(chunk.TimeMax), "never evict rows at or after this time")
	return cmd
}

func newIngestSyntheticCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest-synthetic",
		Short: "Run the synthetic producer live for a fixed duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			duration, _ := cmd.Flags().GetDuration("duration")

			before := a.store.Stats()
			ctx, cancel := context.WithTimeout(context.Background(), duration)
			defer cancel()
			if err := a.producer.Run(ctx); err != nil {
				return err
			}
			after := a.store.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d rows over %s\n",
				(after.StaticRows+after.TemporalRows)-(before.StaticRows+before.TemporalRows), duration)
			return nil
		},
	}
	cmd.Flags().Duration("duration", 2*time.Second, "how long to run the producer")
	return cmd
}
