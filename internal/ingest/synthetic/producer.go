// Package synthetic provides an illustrative external chunk producer. It
// generates random component rows for a pool of entities at random
// intervals and inserts them as chunks directly into a chunkstore.Store,
// demonstrating the InsertChunk contract an ingestion pipeline built on
// top of the store would follow.
//
// Logging is scoped at construction time and is deliberately sparse: only
// lifecycle events are logged, never the generation loop itself.
package synthetic

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
	"rrcore/internal/logging"
)

const (
	defaultMinInterval = 10 * time.Millisecond
	defaultMaxInterval = 100 * time.Millisecond
	defaultEntityCount = 4
)

// Params configures a Producer.
type Params struct {
	// MinInterval and MaxInterval bound the random delay between insertions.
	// Zero values fall back to defaults.
	MinInterval time.Duration
	MaxInterval time.Duration

	// EntityCount is how many distinct entity paths to generate rows for.
	// Zero falls back to a default of 4.
	EntityCount int

	// Components lists the component descriptors each generated chunk
	// carries a single random float64 value for. Must be non-empty.
	Components []chunk.ComponentDescriptor

	// Timeline is the timeline the generated rows are indexed on. Defaults
	// to chunk.LogTick.
	Timeline chunk.Timeline
}

// Producer generates synthetic chunks and inserts them into a store.
type Producer struct {
	store    *chunkstore.Store
	params   Params
	entities []chunk.EntityPath
	rng      *rand.Rand
	logger   *slog.Logger
}

// New creates a Producer writing into store. If logger is nil, logging is
// discarded. Returns an error if params.Components is empty.
func New(store *chunkstore.Store, params Params, logger *slog.Logger) (*Producer, error) {
	if len(params.Components) == 0 {
		return nil, fmt.Errorf("synthetic: at least one component is required")
	}
	if params.MinInterval <= 0 {
		params.MinInterval = defaultMinInterval
	}
	if params.MaxInterval <= 0 {
		params.MaxInterval = defaultMaxInterval
	}
	if params.MinInterval > params.MaxInterval {
		return nil, fmt.Errorf("synthetic: MinInterval (%v) must not exceed MaxInterval (%v)", params.MinInterval, params.MaxInterval)
	}
	if params.EntityCount <= 0 {
		params.EntityCount = defaultEntityCount
	}
	if params.Timeline == (chunk.Timeline{}) {
		params.Timeline = chunk.LogTick
	}

	entities := make([]chunk.EntityPath, params.EntityCount)
	for i := range entities {
		entities[i] = chunk.ParseEntityPath(fmt.Sprintf("synthetic/entity_%d", i))
	}

	return &Producer{
		store:    store,
		params:   params,
		entities: entities,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger: logging.Default(logger).With(
			"component", "ingest",
			"type", "synthetic",
		),
	}, nil
}

// Entities returns the entity paths this producer generates rows for.
func (p *Producer) Entities() []chunk.EntityPath { return p.entities }

// Run inserts one synthetic chunk per tick until ctx is cancelled. It blocks
// and returns nil on normal cancellation.
func (p *Producer) Run(ctx context.Context) error {
	p.logger.Info("synthetic producer starting", "entities", len(p.entities), "components", len(p.params.Components))
	defer p.logger.Info("synthetic producer stopped")

	timer := time.NewTimer(p.randomInterval())
	defer timer.Stop()

	var tick chunk.TimeInt
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		tick++
		if err := p.insertOne(tick); err != nil {
			p.logger.Warn("insert synthetic chunk failed", "error", err)
		}

		timer.Reset(p.randomInterval())
	}
}

// SeedSync synchronously inserts n synthetic rows, one tick apart, without
// the random inter-arrival delay Run uses. Intended for tests and for
// pre-populating a store before an inspector session starts.
func (p *Producer) SeedSync(n int) error {
	for i := 1; i <= n; i++ {
		if err := p.insertOne(chunk.TimeInt(i)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Producer) insertOne(tick chunk.TimeInt) error {
	entity := p.entities[p.rng.IntN(len(p.entities))]

	componentValues := make(map[chunk.ComponentDescriptor][]any, len(p.params.Components))
	for _, desc := range p.params.Components {
		componentValues[desc] = []any{p.rng.Float64() * 100}
	}

	c, err := chunk.FromRows(
		chunk.NewChunkID(),
		entity,
		[]chunk.RowId{chunk.NewRowId()},
		map[chunk.Timeline][]chunk.TimeInt{p.params.Timeline: {tick}},
		componentValues,
		nil,
	)
	if err != nil {
		return fmt.Errorf("build synthetic chunk: %w", err)
	}

	if _, err := p.store.InsertChunk(c); err != nil {
		return fmt.Errorf("insert synthetic chunk: %w", err)
	}
	return nil
}

func (p *Producer) randomInterval() time.Duration {
	if p.params.MinInterval >= p.params.MaxInterval {
		return p.params.MinInterval
	}
	delta := p.params.MaxInterval - p.params.MinInterval
	return p.params.MinInterval + time.Duration(p.rng.Int64N(int64(delta)))
}
