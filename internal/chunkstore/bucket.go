package chunkstore

import (
	"sort"

	"rrcore/internal/chunk"
)

// bucketEntry is one chunk's presence in a time-bucketed index: its minimum
// time on the indexed timeline, and its identity.
type bucketEntry struct {
	minTime chunk.TimeInt
	maxTime chunk.TimeInt
	id      chunk.ChunkID
}

// bucket holds a contiguous, non-overlapping slice of a TimeBucketedList's
// key space, ordered by minTime ascending.
type bucket struct {
	entries []bucketEntry
}

func (b *bucket) insertSorted(e bucketEntry) {
	i := sort.Search(len(b.entries), func(i int) bool {
		if b.entries[i].minTime != e.minTime {
			return b.entries[i].minTime >= e.minTime
		}
		return b.entries[i].id.String() >= e.id.String()
	})
	b.entries = append(b.entries, bucketEntry{})
	copy(b.entries[i+1:], b.entries[i:])
	b.entries[i] = e
}

func (b *bucket) state() chunk.BucketState {
	if len(b.entries) == 0 {
		return chunk.BucketState{}
	}
	min, max := b.entries[0].minTime, b.entries[0].minTime
	for _, e := range b.entries {
		min, max = min.Min(e.minTime), max.Max(e.minTime)
	}
	return chunk.BucketState{RowCount: len(b.entries), MinTime: min, MaxTime: max, ChunkCount: len(b.entries)}
}

// TimeBucketedList indexes chunk ids for one (entity, timeline, component)
// key by their minimum time on that timeline, split across buckets per
// splitPolicy to bound per-insert and per-query search cost. Buckets never
// merge, matching the store's append-mostly write pattern.
type TimeBucketedList struct {
	buckets     []*bucket
	splitPolicy chunk.BucketSplitPolicy
}

// NewTimeBucketedList creates an empty index governed by splitPolicy.
func NewTimeBucketedList(splitPolicy chunk.BucketSplitPolicy) *TimeBucketedList {
	if splitPolicy == nil {
		splitPolicy = chunk.NewRowThresholdPolicy(4096)
	}
	return &TimeBucketedList{splitPolicy: splitPolicy}
}

// bucketIndexFor finds the bucket whose range should contain t: the last
// bucket whose first entry's minTime is <= t, or bucket 0 if t precedes
// everything, or -1 if the list has no buckets yet.
func (l *TimeBucketedList) bucketIndexFor(t chunk.TimeInt) int {
	if len(l.buckets) == 0 {
		return -1
	}
	idx := sort.Search(len(l.buckets), func(i int) bool {
		return l.buckets[i].entries[0].minTime > t
	})
	if idx == 0 {
		return 0
	}
	return idx - 1
}

// splitBucket splits the bucket at idx at its median entry, replacing it
// with a lower and an upper half.
func (l *TimeBucketedList) splitBucket(idx int) {
	b := l.buckets[idx]
	mid := len(b.entries) / 2
	lo := &bucket{entries: append([]bucketEntry(nil), b.entries[:mid]...)}
	hi := &bucket{entries: append([]bucketEntry(nil), b.entries[mid:]...)}

	l.buckets = append(l.buckets, nil)
	copy(l.buckets[idx+2:], l.buckets[idx+1:])
	l.buckets[idx] = lo
	l.buckets[idx+1] = hi
}

// Insert indexes a chunk's presence at minTime/maxTime under id, splitting
// the target bucket first if the split policy requires it.
func (l *TimeBucketedList) Insert(id chunk.ChunkID, minTime, maxTime chunk.TimeInt) {
	idx := l.bucketIndexFor(minTime)
	if idx == -1 {
		l.buckets = append(l.buckets, &bucket{})
		idx = 0
	}

	b := l.buckets[idx]
	if l.splitPolicy.ShouldSplit(b.state(), minTime) && len(b.entries) > 1 {
		l.splitBucket(idx)
		idx = l.bucketIndexFor(minTime)
		b = l.buckets[idx]
	}

	b.insertSorted(bucketEntry{minTime: minTime, maxTime: maxTime, id: id})
}

// Remove drops id's entry from the index, if present, and drops its bucket
// if that leaves the bucket empty.
func (l *TimeBucketedList) Remove(id chunk.ChunkID) {
	for bi, b := range l.buckets {
		for i, e := range b.entries {
			if e.id == id {
				b.entries = append(b.entries[:i], b.entries[i+1:]...)
				if len(b.entries) == 0 {
					l.buckets = append(l.buckets[:bi], l.buckets[bi+1:]...)
				}
				return
			}
		}
	}
}

// LatestAtRelevant returns every chunk id whose minTime is <= queryTime,
// the candidate set a latest-at query must scan to find the true winner.
func (l *TimeBucketedList) LatestAtRelevant(queryTime chunk.TimeInt) []chunk.ChunkID {
	var out []chunk.ChunkID
	for _, b := range l.buckets {
		if len(b.entries) == 0 {
			continue
		}
		if b.entries[0].minTime > queryTime {
			break
		}
		for _, e := range b.entries {
			if e.minTime <= queryTime {
				out = append(out, e.id)
			}
		}
	}
	return out
}

// RangeRelevant returns every chunk id whose [minTime, maxTime] intersects
// the closed interval [lo, hi].
func (l *TimeBucketedList) RangeRelevant(lo, hi chunk.TimeInt) []chunk.ChunkID {
	var out []chunk.ChunkID
	for _, b := range l.buckets {
		if len(b.entries) == 0 {
			continue
		}
		if b.entries[0].minTime > hi {
			break
		}
		for _, e := range b.entries {
			if e.minTime <= hi && e.maxTime >= lo {
				out = append(out, e.id)
			}
		}
	}
	return out
}

// IsEmpty reports whether the index carries no entries at all.
func (l *TimeBucketedList) IsEmpty() bool {
	for _, b := range l.buckets {
		if len(b.entries) > 0 {
			return false
		}
	}
	return true
}
