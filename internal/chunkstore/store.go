package chunkstore

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"rrcore/internal/chunk"
	"rrcore/internal/logging"
	"rrcore/internal/notify"
)

// Options configures a Store. The zero value is usable: defaults are
// filled in by New.
type Options struct {
	// BucketSplitPolicy governs when a (entity, timeline, component)
	// index entry list splits into a new bucket. Defaults to a row
	// threshold of 4096.
	BucketSplitPolicy chunk.BucketSplitPolicy

	// CompactionRowLimit bounds how large a merged chunk produced by
	// opportunistic compaction may be. Zero disables compaction.
	CompactionRowLimit int

	// Now returns the current time; overridable for deterministic tests.
	Now func() time.Time

	// Logger is dependency-injected; if nil, logging is discarded.
	Logger *slog.Logger
}

func (o *Options) setDefaults() {
	if o.BucketSplitPolicy == nil {
		o.BucketSplitPolicy = chunk.NewRowThresholdPolicy(4096)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type indexKey struct {
	entityKey string
	timeline  chunk.Timeline
	component chunk.ComponentDescriptor
}

type staticKey struct {
	entityKey string
	component chunk.ComponentDescriptor
}

// Store holds every chunk belonging to one recording behind a single
// read-write lock: writers (InsertChunk, GC) take the write lock, readers
// take the read lock. Subscribers are notified synchronously while the
// write lock is still held, so a subscriber's view is never causally
// behind the state it was notified about.
type Store struct {
	mu sync.RWMutex

	id  StoreID
	cfg Options

	chunks        map[chunk.ChunkID]*chunk.Chunk
	staticOverlay map[staticKey]chunk.ChunkID
	staticRefs    map[chunk.ChunkID]int
	temporal      map[indexKey]*TimeBucketedList
	typeRegistry  *chunk.TypeRegistry
	insertOrder   []chunk.ChunkID
	generation    uint64

	subscribers []StoreSubscriber
	watch       *notify.Signal

	logger *slog.Logger
}

// New creates an empty store identified by id.
func New(id StoreID, cfg Options) *Store {
	cfg.setDefaults()
	return &Store{
		id:            id,
		cfg:           cfg,
		chunks:        make(map[chunk.ChunkID]*chunk.Chunk),
		staticOverlay: make(map[staticKey]chunk.ChunkID),
		staticRefs:    make(map[chunk.ChunkID]int),
		temporal:      make(map[indexKey]*TimeBucketedList),
		typeRegistry:  chunk.NewTypeRegistry(),
		watch:         notify.NewSignal(),
		logger:        logging.Default(cfg.Logger).With("component", "chunkstore", "store_id", string(id)),
	}
}

// ID returns the store's identity.
func (s *Store) ID() StoreID { return s.id }

// SetCompactionRowLimit updates the row limit applied to compactions run
// after this call. Zero disables compaction. Safe for concurrent use.
func (s *Store) SetCompactionRowLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.CompactionRowLimit = n
}

// SetBucketSplitPolicy updates the split policy applied to index entry
// lists created after this call; lists that already exist keep the policy
// they were created with. Safe for concurrent use.
func (s *Store) SetBucketSplitPolicy(p chunk.BucketSplitPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.BucketSplitPolicy = p
}

// Generation returns the number of InsertChunk/GC mutations applied so
// far. Monotonically increasing.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// AddSubscriber appends sub to the store's synchronous notification list.
// Typically called once at construction time with an instance obtained
// from RegisterSubscriber.
func (s *Store) AddSubscriber(sub StoreSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// Watch returns a channel that is closed the next time the store mutates
// (insertion, compaction, or GC). Supplementary to the subscriber
// interface: useful for a caller that just wants to wake up on change
// without implementing StoreSubscriber.
func (s *Store) Watch() <-chan struct{} {
	return s.watch.C()
}

func entityKeyOf(ep chunk.EntityPath) string { return ep.Key() }

// InsertChunk validates and indexes c, returning the events emitted as a
// result (for callers that want them independent of the subscriber feed).
// Insertion is rejected wholesale -- no partial state is observable -- on
// a chunk-id collision or a component datatype conflict.
func (s *Store) InsertChunk(c *chunk.Chunk) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chunks[c.ID()]; exists {
		return nil, errChunkIDCollision(c.ID())
	}
	for _, desc := range c.ComponentDescriptors() {
		typ, ok := c.ColumnType(desc)
		if !ok {
			continue
		}
		if err := s.typeRegistry.Observe(desc.ComponentType, typ); err != nil {
			return nil, err
		}
	}

	var events []Event
	if c.IsStatic() {
		events = s.insertStaticLocked(c)
	} else {
		s.chunks[c.ID()] = c
		s.insertOrder = append(s.insertOrder, c.ID())
		events = s.insertTemporalLocked(c)
		if compactionEvents := s.compactLocked(c); compactionEvents != nil {
			events = compactionEvents
		}
	}
	s.generation++

	s.notifyLocked(events)
	s.watch.Notify()
	s.logger.Debug("inserted chunk", "chunk_id", c.ID(), "entity", c.EntityPath(), "rows", c.Len(), "static", c.IsStatic())
	return events, nil
}

func (s *Store) insertStaticLocked(c *chunk.Chunk) []Event {
	var events []Event
	ek := entityKeyOf(c.EntityPath())
	for _, desc := range c.ComponentDescriptors() {
		key := staticKey{entityKey: ek, component: desc}
		if prev, ok := s.staticOverlay[key]; ok {
			s.staticRefs[prev]--
			if s.staticRefs[prev] <= 0 {
				delete(s.staticRefs, prev)
				if prevChunk, ok := s.chunks[prev]; ok {
					delete(s.chunks, prev)
					events = append(events, Event{Kind: ChunkRemoved, StoreID: s.id, Chunk: prevChunk})
				}
			}
		}
		s.staticOverlay[key] = c.ID()
		s.staticRefs[c.ID()]++
	}
	s.chunks[c.ID()] = c
	s.insertOrder = append(s.insertOrder, c.ID())
	events = append(events, Event{Kind: ChunkAdded, StoreID: s.id, Chunk: c})
	return events
}

func (s *Store) insertTemporalLocked(c *chunk.Chunk) []Event {
	ek := entityKeyOf(c.EntityPath())
	for _, tl := range c.Timelines() {
		min, max, ok := c.TimeRange(tl)
		if !ok {
			continue
		}
		for _, desc := range c.ComponentDescriptors() {
			key := indexKey{entityKey: ek, timeline: tl, component: desc}
			list, ok := s.temporal[key]
			if !ok {
				list = NewTimeBucketedList(s.cfg.BucketSplitPolicy)
				s.temporal[key] = list
			}
			list.Insert(c.ID(), min, max)
		}
	}
	return []Event{{Kind: ChunkAdded, StoreID: s.id, Chunk: c}}
}

// compactLocked opportunistically merges c with one adjacent, same-shape
// chunk already indexed for the same entity, if the combined row count
// fits under the configured budget. At most one merge is attempted per
// insertion.
func (s *Store) compactLocked(c *chunk.Chunk) []Event {
	if s.cfg.CompactionRowLimit <= 0 {
		return nil
	}
	candidate := s.findCompactionCandidateLocked(c)
	if candidate == nil {
		return nil
	}

	mergedID := chunk.NewChunkID()
	merged, err := chunk.Concat(mergedID, candidate, c)
	if err != nil {
		s.logger.Warn("compaction concat failed, skipping", "error", err)
		return nil
	}

	s.removeChunkLocked(candidate.ID())
	s.removeChunkLocked(c.ID())
	s.insertTemporalLocked(merged)
	s.chunks[mergedID] = merged
	s.insertOrder = append(s.insertOrder, mergedID)

	return []Event{
		{Kind: ChunkRemoved, StoreID: s.id, Chunk: candidate, CompactedInto: &mergedID},
		{Kind: ChunkRemoved, StoreID: s.id, Chunk: c, CompactedInto: &mergedID},
		{Kind: ChunkAdded, StoreID: s.id, Chunk: merged},
	}
}

func (s *Store) findCompactionCandidateLocked(c *chunk.Chunk) *chunk.Chunk {
	ek := entityKeyOf(c.EntityPath())
	sig := chunkSignature(c)
	for i := len(s.insertOrder) - 1; i >= 0; i-- {
		id := s.insertOrder[i]
		other, ok := s.chunks[id]
		if !ok || other.ID() == c.ID() || other.IsStatic() {
			continue
		}
		if entityKeyOf(other.EntityPath()) != ek {
			continue
		}
		if chunkSignature(other) != sig {
			continue
		}
		if other.Len()+c.Len() > s.cfg.CompactionRowLimit {
			continue
		}
		return other
	}
	return nil
}

func chunkSignature(c *chunk.Chunk) string {
	var parts []string
	for _, tl := range c.Timelines() {
		parts = append(parts, "t:"+tl.Name+";")
	}
	for _, d := range c.ComponentDescriptors() {
		parts = append(parts, "c:"+d.String()+";")
	}
	sort.Strings(parts)
	sig := ""
	for _, p := range parts {
		sig += p
	}
	return sig
}

func (s *Store) removeFromOrderLocked(id chunk.ChunkID) {
	for i, existing := range s.insertOrder {
		if existing == id {
			s.insertOrder = append(s.insertOrder[:i], s.insertOrder[i+1:]...)
			return
		}
	}
}

// removeChunkLocked de-indexes a temporal chunk from every (timeline,
// component) bucket list it appears in.
func (s *Store) removeChunkLocked(id chunk.ChunkID) {
	c, ok := s.chunks[id]
	if !ok {
		return
	}
	ek := entityKeyOf(c.EntityPath())
	for _, tl := range c.Timelines() {
		for _, desc := range c.ComponentDescriptors() {
			key := indexKey{entityKey: ek, timeline: tl, component: desc}
			if list, ok := s.temporal[key]; ok {
				list.Remove(id)
			}
		}
	}
	delete(s.chunks, id)
	s.removeFromOrderLocked(id)
}

func (s *Store) notifyLocked(events []Event) {
	if len(events) == 0 {
		return
	}
	for _, sub := range s.subscribers {
		sub.OnEvents(events)
	}
}

// LatestAtRelevantChunks returns every chunk that might contain the winner
// of a latest-at query: every temporal chunk whose min time on the query's
// timeline is <= the query time, unioned with any static chunk for the
// same (entity, component).
func (s *Store) LatestAtRelevantChunks(query chunk.LatestAtQuery, entity chunk.EntityPath, component chunk.ComponentDescriptor) []*chunk.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ek := entityKeyOf(entity)
	var out []*chunk.Chunk
	if id, ok := s.staticOverlay[staticKey{entityKey: ek, component: component}]; ok {
		if c, ok := s.chunks[id]; ok {
			out = append(out, c)
		}
	}
	key := indexKey{entityKey: ek, timeline: query.Timeline, component: component}
	if list, ok := s.temporal[key]; ok {
		for _, id := range list.LatestAtRelevant(query.Time) {
			if c, ok := s.chunks[id]; ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// RangeRelevantChunks returns every chunk whose time range intersects the
// query's closed interval, unioned with any static chunk for the same
// (entity, component).
func (s *Store) RangeRelevantChunks(query chunk.RangeQuery, entity chunk.EntityPath, component chunk.ComponentDescriptor) []*chunk.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ek := entityKeyOf(entity)
	var out []*chunk.Chunk
	if id, ok := s.staticOverlay[staticKey{entityKey: ek, component: component}]; ok {
		if c, ok := s.chunks[id]; ok {
			out = append(out, c)
		}
	}
	key := indexKey{entityKey: ek, timeline: query.Timeline, component: component}
	if list, ok := s.temporal[key]; ok {
		for _, id := range list.RangeRelevant(query.Min, query.Max) {
			if c, ok := s.chunks[id]; ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// EntityHasComponentOnTimeline reports, in O(1), whether the store holds
// any indexed data for (entity, component) on timeline -- temporal or
// static -- letting upper layers prune queries that would yield nothing.
func (s *Store) EntityHasComponentOnTimeline(timeline chunk.Timeline, entity chunk.EntityPath, component chunk.ComponentDescriptor) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ek := entityKeyOf(entity)
	if _, ok := s.staticOverlay[staticKey{entityKey: ek, component: component}]; ok {
		return true
	}
	key := indexKey{entityKey: ek, timeline: timeline, component: component}
	list, ok := s.temporal[key]
	return ok && !list.IsEmpty()
}

// GetChunk returns the chunk with the given id, if present.
func (s *Store) GetChunk(id chunk.ChunkID) (*chunk.Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	return c, ok
}
