package chunk

// BucketState is an immutable snapshot of a time-indexed bucket's state at
// insert time. It contains all information needed to make split decisions
// without IO or mutation.
type BucketState struct {
	// RowCount is the bucket's size as reported by its index. The chunk
	// store's TimeBucketedList reports its number of entries (one per
	// indexed chunk), not the number of rows inside those chunks.
	RowCount int

	// MinTime, MaxTime bound the bucket's existing entries on its timeline.
	MinTime, MaxTime TimeInt

	// ChunkCount is the number of distinct chunks referenced by the bucket.
	ChunkCount int
}

// BucketSplitPolicy decides when a time-bucketed index entry list has grown
// large enough that inserting another chunk reference should instead start
// a fresh bucket. Policies are pure functions: no IO, no locks, no mutation,
// no global state.
type BucketSplitPolicy interface {
	// ShouldSplit returns true if a new bucket should be started before
	// indexing next into the bucket described by state.
	ShouldSplit(state BucketState, next TimeInt) bool
}

// BucketSplitPolicyFunc adapts an ordinary function to BucketSplitPolicy.
type BucketSplitPolicyFunc func(state BucketState, next TimeInt) bool

func (f BucketSplitPolicyFunc) ShouldSplit(state BucketState, next TimeInt) bool {
	return f(state, next)
}

// CompositeBucketPolicy combines multiple policies with OR semantics: the
// bucket splits if any sub-policy says it should.
type CompositeBucketPolicy struct {
	policies []BucketSplitPolicy
}

// NewCompositeBucketPolicy builds a policy that splits if any sub-policy
// triggers a split.
func NewCompositeBucketPolicy(policies ...BucketSplitPolicy) *CompositeBucketPolicy {
	return &CompositeBucketPolicy{policies: policies}
}

func (c *CompositeBucketPolicy) ShouldSplit(state BucketState, next TimeInt) bool {
	for _, p := range c.policies {
		if p.ShouldSplit(state, next) {
			return true
		}
	}
	return false
}

// RowThresholdPolicy splits once a bucket's row count would exceed
// maxRows. A threshold of 0 never splits on row count alone.
type RowThresholdPolicy struct {
	maxRows int
}

// NewRowThresholdPolicy builds a policy that splits buckets past maxRows
// entries.
func NewRowThresholdPolicy(maxRows int) *RowThresholdPolicy {
	return &RowThresholdPolicy{maxRows: maxRows}
}

func (p *RowThresholdPolicy) ShouldSplit(state BucketState, _ TimeInt) bool {
	if p.maxRows <= 0 {
		return false
	}
	return state.RowCount+1 > p.maxRows
}

// ChunkCountThresholdPolicy splits once a bucket references more than
// maxChunks distinct chunks, bounding how much compaction work a single
// bucket eviction can trigger.
type ChunkCountThresholdPolicy struct {
	maxChunks int
}

// NewChunkCountThresholdPolicy builds a policy that splits past maxChunks
// distinct chunks referenced by a bucket.
func NewChunkCountThresholdPolicy(maxChunks int) *ChunkCountThresholdPolicy {
	return &ChunkCountThresholdPolicy{maxChunks: maxChunks}
}

func (p *ChunkCountThresholdPolicy) ShouldSplit(state BucketState, _ TimeInt) bool {
	if p.maxChunks <= 0 {
		return false
	}
	return state.ChunkCount+1 > p.maxChunks
}

// TimeSpanPolicy splits once indexing next would widen the bucket's time
// span beyond maxSpan, keeping buckets addressable by a coarse time range.
type TimeSpanPolicy struct {
	maxSpan int64
}

// NewTimeSpanPolicy builds a policy that splits once a bucket's time span
// would exceed maxSpan.
func NewTimeSpanPolicy(maxSpan int64) *TimeSpanPolicy {
	return &TimeSpanPolicy{maxSpan: maxSpan}
}

func (p *TimeSpanPolicy) ShouldSplit(state BucketState, next TimeInt) bool {
	if p.maxSpan <= 0 || state.RowCount == 0 {
		return false
	}
	lo, hi := state.MinTime, state.MaxTime
	if next < lo {
		lo = next
	}
	if next > hi {
		hi = next
	}
	return int64(hi)-int64(lo) > p.maxSpan
}

// NeverSplitPolicy never splits; the bucket grows without bound. Useful for
// tests or small recordings.
type NeverSplitPolicy struct{}

func (NeverSplitPolicy) ShouldSplit(BucketState, TimeInt) bool { return false }

// AlwaysSplitPolicy splits on every insert. Useful for tests exercising
// multi-bucket fan-out.
type AlwaysSplitPolicy struct{}

func (AlwaysSplitPolicy) ShouldSplit(BucketState, TimeInt) bool { return true }
