package chunk

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrMalformedChunk is returned when a chunk's columns fail a structural
// self-check (mismatched lengths, invalid rows). It is fatal for the
// offending chunk only.
var ErrMalformedChunk = errors.New("chunk: malformed chunk")

// ErrComponentNotFound is returned by queries naming a component the chunk
// does not carry.
var ErrComponentNotFound = errors.New("chunk: component not found")

// timeColumn is one timeline's worth of per-row time coordinates.
type timeColumn struct {
	timeline Timeline
	times    []TimeInt
	sorted   bool
	min, max TimeInt
}

func newTimeColumn(timeline Timeline, times []TimeInt) *timeColumn {
	tc := &timeColumn{timeline: timeline, times: times}
	if len(times) == 0 {
		return tc
	}
	tc.min, tc.max = times[0], times[0]
	tc.sorted = true
	for i, t := range times {
		if t < tc.min {
			tc.min = t
		}
		if t > tc.max {
			tc.max = t
		}
		if i > 0 && times[i] < times[i-1] {
			tc.sorted = false
		}
	}
	return tc
}

// componentColumn is one component's worth of per-row encoded cells. A nil
// cell means the row has no value logged for this component.
type componentColumn struct {
	descriptor ComponentDescriptor
	cells      [][]byte
	colType    ColumnType
}

// Chunk is an immutable, self-describing row-group: a RowId column, zero or
// more timeline columns, and one or more component columns, all of the same
// length. A chunk with no timeline columns is static.
type Chunk struct {
	id         ChunkID
	entityPath EntityPath
	rowIDs     []RowId
	timelines  map[Timeline]*timeColumn
	components map[ComponentDescriptor]*componentColumn
	sizeBytes  int64
}

// FromRows constructs a chunk from fully-aligned columns: every column must
// have exactly len(rowIDs) entries. componentValues are Go values that will
// be msgpack-encoded into cells; a nil entry in a component's slice means
// "no value for this row". typeHints, if non-nil, is checked against the
// datatype observed for each component and returns ErrDatatypeConflict on
// mismatch.
func FromRows(
	id ChunkID,
	entityPath EntityPath,
	rowIDs []RowId,
	timelineCols map[Timeline][]TimeInt,
	componentValues map[ComponentDescriptor][]any,
	typeHints map[string]ColumnType,
) (*Chunk, error) {
	n := len(rowIDs)

	for tl, col := range timelineCols {
		if len(col) != n {
			return nil, fmt.Errorf("%w: timeline %q has %d rows, want %d", ErrMalformedChunk, tl.Name, len(col), n)
		}
	}

	c := &Chunk{
		id:         id,
		entityPath: entityPath,
		rowIDs:     slices.Clone(rowIDs),
		timelines:  make(map[Timeline]*timeColumn, len(timelineCols)),
		components: make(map[ComponentDescriptor]*componentColumn, len(componentValues)),
	}

	for tl, col := range timelineCols {
		c.timelines[tl] = newTimeColumn(tl, slices.Clone(col))
	}

	for desc, values := range componentValues {
		if len(values) != n {
			return nil, fmt.Errorf("%w: component %q has %d rows, want %d", ErrMalformedChunk, desc, len(values), n)
		}
		cells := make([][]byte, n)
		var observedType ColumnType
		for i, v := range values {
			if v == nil {
				continue
			}
			enc, err := msgpack.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("%w: encode component %q row %d: %v", ErrMalformedChunk, desc, i, err)
			}
			cells[i] = enc
			if observedType == "" {
				observedType = columnTypeOf(v)
			}
		}
		if typeHints != nil && observedType != "" {
			if want, ok := typeHints[desc.ComponentType]; ok && want != observedType {
				return nil, fmt.Errorf("%w: component %q observed type %s, expected %s", ErrDatatypeConflict, desc, observedType, want)
			}
		}
		c.components[desc] = &componentColumn{descriptor: desc, cells: cells, colType: observedType}
	}

	c.sizeBytes = c.computeSizeBytes()
	return c, nil
}

func (c *Chunk) computeSizeBytes() int64 {
	var n int64
	n += int64(len(c.rowIDs)) * 16
	for _, tc := range c.timelines {
		n += int64(len(tc.times)) * 8
	}
	for _, cc := range c.components {
		for _, cell := range cc.cells {
			n += int64(len(cell))
		}
	}
	return n
}

// ID returns the chunk's unique identifier.
func (c *Chunk) ID() ChunkID { return c.id }

// EntityPath returns the entity this chunk belongs to.
func (c *Chunk) EntityPath() EntityPath { return c.entityPath }

// Len returns the number of rows in the chunk.
func (c *Chunk) Len() int { return len(c.rowIDs) }

// IsEmpty reports whether the chunk carries zero rows.
func (c *Chunk) IsEmpty() bool { return len(c.rowIDs) == 0 }

// RowIDs returns the chunk's row-id column. Must not be mutated.
func (c *Chunk) RowIDs() []RowId { return c.rowIDs }

// IsStatic reports whether the chunk carries no timeline columns.
func (c *Chunk) IsStatic() bool { return len(c.timelines) == 0 }

// ComponentDescriptors returns every component column the chunk carries.
func (c *Chunk) ComponentDescriptors() []ComponentDescriptor {
	out := make([]ComponentDescriptor, 0, len(c.components))
	for d := range c.components {
		out = append(out, d)
	}
	return out
}

// HasComponent reports whether the chunk carries a column for desc.
func (c *Chunk) HasComponent(desc ComponentDescriptor) bool {
	_, ok := c.components[desc]
	return ok
}

// Timelines returns every timeline the chunk carries a time column for.
func (c *Chunk) Timelines() []Timeline {
	out := make([]Timeline, 0, len(c.timelines))
	for t := range c.timelines {
		out = append(out, t)
	}
	return out
}

// TimeRange returns the [min,max] of the chunk's time column on timeline,
// and whether the chunk carries that timeline at all.
func (c *Chunk) TimeRange(timeline Timeline) (min, max TimeInt, ok bool) {
	tc, ok := c.timelines[timeline]
	if !ok {
		return 0, 0, false
	}
	return tc.min, tc.max, true
}

// TotalSizeBytes returns the chunk's cached size estimate, including row-id,
// timeline, and component column storage.
func (c *Chunk) TotalSizeBytes() int64 { return c.sizeBytes }

// IsTimelineSorted reports whether the chunk's time column for timeline is
// sorted ascending. A chunk with no such timeline column is trivially
// sorted.
func (c *Chunk) IsTimelineSorted(timeline Timeline) bool {
	tc, ok := c.timelines[timeline]
	if !ok {
		return true
	}
	return tc.sorted
}

// SortedByTimelineIfUnsorted returns c unchanged if it is already sorted on
// timeline; otherwise it returns a freshly sorted copy. c is never mutated.
func (c *Chunk) SortedByTimelineIfUnsorted(timeline Timeline) *Chunk {
	if c.IsTimelineSorted(timeline) {
		return c
	}
	tc := c.timelines[timeline]

	order := make([]int, len(c.rowIDs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if tc.times[a] != tc.times[b] {
			return tc.times[a] < tc.times[b]
		}
		return c.rowIDs[a].Less(c.rowIDs[b])
	})

	return c.permute(order)
}

// permute returns a new chunk with every column reordered by order (a
// permutation of row indices). The chunk identity (ID, EntityPath) is
// preserved: this is a cached derivation, not a new logical chunk.
func (c *Chunk) permute(order []int) *Chunk {
	out := &Chunk{
		id:         c.id,
		entityPath: c.entityPath,
		rowIDs:     make([]RowId, len(order)),
		timelines:  make(map[Timeline]*timeColumn, len(c.timelines)),
		components: make(map[ComponentDescriptor]*componentColumn, len(c.components)),
	}
	for i, idx := range order {
		out.rowIDs[i] = c.rowIDs[idx]
	}
	for tl, tc := range c.timelines {
		times := make([]TimeInt, len(order))
		for i, idx := range order {
			times[i] = tc.times[idx]
		}
		out.timelines[tl] = newTimeColumn(tl, times)
	}
	for desc, cc := range c.components {
		cells := make([][]byte, len(order))
		for i, idx := range order {
			cells[i] = cc.cells[idx]
		}
		out.components[desc] = &componentColumn{descriptor: desc, cells: cells, colType: cc.colType}
	}
	out.sizeBytes = out.computeSizeBytes()
	return out
}

// Densified returns a copy of the chunk with every row dropped where
// component is null. Used by the range cache to accelerate subsequent
// scans; c is never mutated.
func (c *Chunk) Densified(component ComponentDescriptor) *Chunk {
	cc, ok := c.components[component]
	if !ok {
		return c
	}
	keep := make([]int, 0, len(cc.cells))
	for i, cell := range cc.cells {
		if cell != nil {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(cc.cells) {
		return c
	}
	return c.permute(keep)
}

// Range returns the subset of rows whose time on query.Timeline lies in the
// query's closed interval. When the chunk is already sorted on that
// timeline, the result shares the chunk's underlying arrays (true zero-copy
// slicing via Go's slice semantics); otherwise the caller should sort first
// (see SortedByTimelineIfUnsorted) — Range itself still returns a correct,
// if non-zero-copy, result via a linear scan.
func (c *Chunk) Range(query RangeQuery, component ComponentDescriptor) *Chunk {
	tc, hasTimeline := c.timelines[query.Timeline]
	if !hasTimeline {
		if c.IsStatic() {
			return c
		}
		return c.permute(nil)
	}

	if tc.sorted {
		lo := sort.Search(len(tc.times), func(i int) bool { return tc.times[i] >= query.Min })
		hi := sort.Search(len(tc.times), func(i int) bool { return tc.times[i] > query.Max })
		if lo >= hi {
			return c.permute(nil)
		}
		out := &Chunk{
			id:         c.id,
			entityPath: c.entityPath,
			rowIDs:     c.rowIDs[lo:hi:hi],
			timelines:  make(map[Timeline]*timeColumn, len(c.timelines)),
			components: make(map[ComponentDescriptor]*componentColumn, len(c.components)),
		}
		for tl, col := range c.timelines {
			out.timelines[tl] = newTimeColumn(tl, col.times[lo:hi:hi])
		}
		for desc, cc := range c.components {
			out.components[desc] = &componentColumn{descriptor: desc, cells: cc.cells[lo:hi:hi], colType: cc.colType}
		}
		out.sizeBytes = out.computeSizeBytes()
		return out
	}

	var order []int
	for i, t := range tc.times {
		if query.Contains(t) {
			order = append(order, i)
		}
	}
	return c.permute(order)
}

// LatestAt returns the row with the greatest time <= query.Time on
// query.Timeline among rows carrying a non-null value for component,
// tiebroken by the greatest RowId. Returns ok=false if no such row exists.
//
// If two rows share both the same time and the same RowId (which should
// not happen with well-formed, globally-unique RowIds, but can arise from a
// naively re-ingested recording), the later-inserted row — i.e. the one
// appearing at the higher row index within this chunk — wins.
func (c *Chunk) LatestAt(query LatestAtQuery, component ComponentDescriptor) (RowId, int, bool) {
	cc, ok := c.components[component]
	if !ok {
		return RowId{}, 0, false
	}

	if c.IsStatic() {
		for i := len(cc.cells) - 1; i >= 0; i-- {
			if cc.cells[i] != nil {
				return c.rowIDs[i], i, true
			}
		}
		return RowId{}, 0, false
	}

	tc, hasTimeline := c.timelines[query.Timeline]
	if !hasTimeline {
		return RowId{}, 0, false
	}

	bestIdx := -1
	var bestTime TimeInt
	var bestRow RowId
	for i, t := range tc.times {
		if t > query.Time || cc.cells[i] == nil {
			continue
		}
		if bestIdx == -1 || t > bestTime || (t == bestTime && !c.rowIDs[i].Less(bestRow)) {
			bestIdx, bestTime, bestRow = i, t, c.rowIDs[i]
		}
	}
	if bestIdx == -1 {
		return RowId{}, 0, false
	}
	return bestRow, bestIdx, true
}

// TimeAt returns the time coordinate of row idx on timeline, and whether the
// chunk carries a time value there. Static chunks report TimeStatic for
// every row regardless of idx's validity as a timeline coordinate, since a
// static row has no time on any timeline.
func (c *Chunk) TimeAt(timeline Timeline, idx int) (TimeInt, bool) {
	if c.IsStatic() {
		return TimeStatic, idx >= 0 && idx < len(c.rowIDs)
	}
	tc, ok := c.timelines[timeline]
	if !ok || idx < 0 || idx >= len(tc.times) {
		return 0, false
	}
	return tc.times[idx], true
}

// DecodeCell unmarshals the raw component cell at row index idx into out
// (a pointer), returning ErrComponentNotFound if the chunk carries no such
// component, or an error if the row's cell is null or decoding fails.
func (c *Chunk) DecodeCell(component ComponentDescriptor, idx int, out any) error {
	cc, ok := c.components[component]
	if !ok {
		return fmt.Errorf("%w: %s", ErrComponentNotFound, component)
	}
	if idx < 0 || idx >= len(cc.cells) || cc.cells[idx] == nil {
		return fmt.Errorf("chunk: row %d has no value for component %s", idx, component)
	}
	return msgpack.Unmarshal(cc.cells[idx], out)
}

// ColumnType returns the canonical type observed for component in this
// chunk, if the chunk carries any non-null value for it.
func (c *Chunk) ColumnType(component ComponentDescriptor) (ColumnType, bool) {
	cc, ok := c.components[component]
	if !ok || cc.colType == "" {
		return "", false
	}
	return cc.colType, true
}
