// Package gcsched periodically invokes a store's GC on a cron schedule, for
// callers that don't want to drive eviction themselves.
package gcsched

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"rrcore/internal/chunkstore"
	"rrcore/internal/logging"
)

// Scheduler runs one store's GC on a fixed cron schedule.
type Scheduler struct {
	gocron gocron.Scheduler
	logger *slog.Logger
}

// New creates a scheduler that calls store.GC(target) every time cronExpr
// fires, until Stop is called. The scheduler starts immediately. cronExpr
// is a 6-field expression (seconds first), e.g. "*/30 * * * * *" for every
// 30 seconds.
func New(store *chunkstore.Store, target chunkstore.GCTarget, cronExpr string, logger *slog.Logger) (*Scheduler, error) {
	logger = logging.Default(logger).With("component", "gcsched", "store_id", string(store.ID()))

	gs, err := gocron.NewScheduler(gocron.WithLimitConcurrentJobs(1, gocron.LimitModeReschedule))
	if err != nil {
		return nil, fmt.Errorf("gcsched: create scheduler: %w", err)
	}

	s := &Scheduler{gocron: gs, logger: logger}

	_, err = gs.NewJob(
		gocron.CronJob(cronExpr, true),
		gocron.NewTask(func() {
			events := store.GC(target)
			if len(events) > 0 {
				s.logger.Info("periodic gc ran", "evicted", len(events))
			}
		}),
		gocron.WithName("gc"),
	)
	if err != nil {
		return nil, fmt.Errorf("gcsched: schedule gc job: %w", err)
	}

	gs.Start()
	return s, nil
}

// Stop shuts the scheduler down, waiting for any in-flight GC pass to
// finish.
func (s *Scheduler) Stop() error {
	return s.gocron.Shutdown()
}
