package chunk

import (
	"errors"
	"testing"
)

var scalarDesc = NewComponentDescriptor("rrcore.Scalar")

func mustChunk(t *testing.T, id ChunkID, ep EntityPath, rowIDs []RowId, times []TimeInt, values []any) *Chunk {
	t.Helper()
	c, err := FromRows(id, ep, rowIDs,
		map[Timeline][]TimeInt{LogTick: times},
		map[ComponentDescriptor][]any{scalarDesc: values},
		nil,
	)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return c
}

func TestFromRowsLengthMismatch(t *testing.T) {
	_, err := FromRows(NewChunkID(), ParseEntityPath("a"),
		[]RowId{NewRowId(), NewRowId()},
		map[Timeline][]TimeInt{LogTick: {1}},
		nil, nil,
	)
	if !errors.Is(err, ErrMalformedChunk) {
		t.Fatalf("got %v, want ErrMalformedChunk", err)
	}
}

func TestFromRowsDatatypeConflict(t *testing.T) {
	rowIDs := []RowId{NewRowId()}
	_, err := FromRows(NewChunkID(), ParseEntityPath("a"), rowIDs,
		nil,
		map[ComponentDescriptor][]any{scalarDesc: {3.14}},
		map[string]ColumnType{"rrcore.Scalar": "string"},
	)
	if !errors.Is(err, ErrDatatypeConflict) {
		t.Fatalf("got %v, want ErrDatatypeConflict", err)
	}
}

func TestChunkIsStatic(t *testing.T) {
	rowIDs := []RowId{NewRowId()}
	c, err := FromRows(NewChunkID(), ParseEntityPath("a"), rowIDs, nil,
		map[ComponentDescriptor][]any{scalarDesc: {1.0}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsStatic() {
		t.Error("a chunk with no timeline columns should be static")
	}
}

func TestChunkIsTimelineSortedAndSort(t *testing.T) {
	r1, r2, r3 := NewRowId(), NewRowId(), NewRowId()
	c := mustChunk(t, NewChunkID(), ParseEntityPath("a"),
		[]RowId{r1, r2, r3}, []TimeInt{30, 10, 20}, []any{1.0, 2.0, 3.0})

	if c.IsTimelineSorted(LogTick) {
		t.Fatal("chunk should not report sorted")
	}

	sorted := c.SortedByTimelineIfUnsorted(LogTick)
	if !sorted.IsTimelineSorted(LogTick) {
		t.Fatal("sorted chunk should report sorted")
	}
	if sorted == c {
		t.Fatal("sorting an unsorted chunk should return a new chunk, not the original")
	}
	if c.IsTimelineSorted(LogTick) {
		t.Error("original chunk must remain unchanged (sort must not mutate)")
	}

	var got float64
	if err := sorted.DecodeCell(scalarDesc, 0, &got); err != nil {
		t.Fatal(err)
	}
	if got != 2.0 {
		t.Errorf("sorted row 0 value = %v, want 2.0 (originally row 2)", got)
	}
}

func TestChunkSortedByTimelineIfUnsortedNoopWhenAlreadySorted(t *testing.T) {
	r1, r2 := NewRowId(), NewRowId()
	c := mustChunk(t, NewChunkID(), ParseEntityPath("a"), []RowId{r1, r2}, []TimeInt{10, 20}, []any{1.0, 2.0})
	if got := c.SortedByTimelineIfUnsorted(LogTick); got != c {
		t.Error("an already-sorted chunk should be returned unchanged (same pointer)")
	}
}

func TestChunkRangeOnSortedChunk(t *testing.T) {
	rowIDs := []RowId{NewRowId(), NewRowId(), NewRowId(), NewRowId()}
	c := mustChunk(t, NewChunkID(), ParseEntityPath("a"), rowIDs,
		[]TimeInt{10, 20, 30, 40}, []any{1.0, 2.0, 3.0, 4.0})

	sub := c.Range(NewRangeQuery(LogTick, 15, 35), scalarDesc)
	if sub.Len() != 2 {
		t.Fatalf("Range() returned %d rows, want 2", sub.Len())
	}
	var v0, v1 float64
	_ = sub.DecodeCell(scalarDesc, 0, &v0)
	_ = sub.DecodeCell(scalarDesc, 1, &v1)
	if v0 != 2.0 || v1 != 3.0 {
		t.Errorf("Range() values = [%v %v], want [2 3]", v0, v1)
	}
}

func TestChunkRangeOnUnsortedChunk(t *testing.T) {
	rowIDs := []RowId{NewRowId(), NewRowId(), NewRowId(), NewRowId()}
	c := mustChunk(t, NewChunkID(), ParseEntityPath("a"), rowIDs,
		[]TimeInt{40, 10, 30, 20}, []any{4.0, 1.0, 3.0, 2.0})

	sub := c.Range(NewRangeQuery(LogTick, 15, 35), scalarDesc)
	if sub.Len() != 2 {
		t.Fatalf("Range() returned %d rows, want 2", sub.Len())
	}
}

func TestChunkRangeEmptyResult(t *testing.T) {
	rowIDs := []RowId{NewRowId(), NewRowId()}
	c := mustChunk(t, NewChunkID(), ParseEntityPath("a"), rowIDs, []TimeInt{10, 20}, []any{1.0, 2.0})
	sub := c.Range(NewRangeQuery(LogTick, 100, 200), scalarDesc)
	if sub.Len() != 0 {
		t.Fatalf("Range() returned %d rows, want 0", sub.Len())
	}
}

func TestChunkLatestAt(t *testing.T) {
	rowIDs := []RowId{NewRowId(), NewRowId(), NewRowId()}
	c := mustChunk(t, NewChunkID(), ParseEntityPath("a"), rowIDs,
		[]TimeInt{10, 20, 30}, []any{1.0, 2.0, 3.0})

	row, idx, ok := c.LatestAt(NewLatestAtQuery(LogTick, 25), scalarDesc)
	if !ok {
		t.Fatal("expected a result")
	}
	if row != rowIDs[1] || idx != 1 {
		t.Errorf("LatestAt(25) picked row %d, want row 1", idx)
	}

	_, _, ok = c.LatestAt(NewLatestAtQuery(LogTick, 5), scalarDesc)
	if ok {
		t.Error("LatestAt before any data should report no result")
	}
}

func TestChunkLatestAtSkipsNulls(t *testing.T) {
	rowIDs := []RowId{NewRowId(), NewRowId(), NewRowId()}
	c, err := FromRows(NewChunkID(), ParseEntityPath("a"), rowIDs,
		map[Timeline][]TimeInt{LogTick: {10, 20, 30}},
		map[ComponentDescriptor][]any{scalarDesc: {1.0, nil, 3.0}},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	row, idx, ok := c.LatestAt(NewLatestAtQuery(LogTick, 25), scalarDesc)
	if !ok || idx != 0 || row != rowIDs[0] {
		t.Errorf("LatestAt(25) should skip the null at row 1 and return row 0, got idx=%d ok=%v", idx, ok)
	}
}

func TestLatestAt_DuplicateRowID(t *testing.T) {
	// Two rows share the same (time, RowId) pair -- an ill-formed but
	// possible input from a naive re-ingestion. The later-inserted row
	// (higher index within the chunk) wins.
	dup := NewRowId()
	rowIDs := []RowId{dup, dup}
	c, err := FromRows(NewChunkID(), ParseEntityPath("a"), rowIDs,
		map[Timeline][]TimeInt{LogTick: {10, 10}},
		map[ComponentDescriptor][]any{scalarDesc: {1.0, 2.0}},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	_, idx, ok := c.LatestAt(NewLatestAtQuery(LogTick, 10), scalarDesc)
	if !ok {
		t.Fatal("expected a result")
	}
	if idx != 1 {
		t.Errorf("LatestAt with duplicate RowIds picked row %d, want row 1 (later-inserted wins)", idx)
	}
}

func TestChunkLatestAtStatic(t *testing.T) {
	rowIDs := []RowId{NewRowId(), NewRowId()}
	c, err := FromRows(NewChunkID(), ParseEntityPath("a"), rowIDs, nil,
		map[ComponentDescriptor][]any{scalarDesc: {1.0, 2.0}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	row, idx, ok := c.LatestAt(LatestAtQuery{}, scalarDesc)
	if !ok || idx != 1 || row != rowIDs[1] {
		t.Errorf("static LatestAt should return the last logged row, got idx=%d ok=%v", idx, ok)
	}
}

func TestChunkDensified(t *testing.T) {
	rowIDs := []RowId{NewRowId(), NewRowId(), NewRowId()}
	c, err := FromRows(NewChunkID(), ParseEntityPath("a"), rowIDs,
		map[Timeline][]TimeInt{LogTick: {10, 20, 30}},
		map[ComponentDescriptor][]any{scalarDesc: {1.0, nil, 3.0}},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	d := c.Densified(scalarDesc)
	if d.Len() != 2 {
		t.Fatalf("Densified() has %d rows, want 2", d.Len())
	}
}

func TestChunkTotalSizeBytesPositive(t *testing.T) {
	rowIDs := []RowId{NewRowId()}
	c := mustChunk(t, NewChunkID(), ParseEntityPath("a"), rowIDs, []TimeInt{1}, []any{1.0})
	if c.TotalSizeBytes() <= 0 {
		t.Error("TotalSizeBytes() should be positive for a non-empty chunk")
	}
}

func TestChunkTimeAt(t *testing.T) {
	rowIDs := []RowId{NewRowId(), NewRowId()}
	c := mustChunk(t, NewChunkID(), ParseEntityPath("a"), rowIDs, []TimeInt{10, 20}, []any{1.0, 2.0})

	tm, ok := c.TimeAt(LogTick, 1)
	if !ok || tm != 20 {
		t.Errorf("TimeAt(LogTick, 1) = (%v, %v), want (20, true)", tm, ok)
	}
	if _, ok := c.TimeAt(LogTick, 5); ok {
		t.Error("TimeAt with an out-of-range index should report ok=false")
	}
	if _, ok := c.TimeAt(NewTimeline("other", TimelineSequence), 0); ok {
		t.Error("TimeAt for a timeline the chunk doesn't carry should report ok=false")
	}
}

func TestChunkTimeAtStatic(t *testing.T) {
	rowIDs := []RowId{NewRowId()}
	c, err := FromRows(NewChunkID(), ParseEntityPath("a"), rowIDs, nil,
		map[ComponentDescriptor][]any{scalarDesc: {1.0}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	tm, ok := c.TimeAt(LogTick, 0)
	if !ok || tm != TimeStatic {
		t.Errorf("TimeAt on a static chunk = (%v, %v), want (TimeStatic, true)", tm, ok)
	}
}

func TestChunkDecodeCellMissingComponent(t *testing.T) {
	rowIDs := []RowId{NewRowId()}
	c := mustChunk(t, NewChunkID(), ParseEntityPath("a"), rowIDs, []TimeInt{1}, []any{1.0})
	var out string
	err := c.DecodeCell(NewComponentDescriptor("rrcore.Nope"), 0, &out)
	if !errors.Is(err, ErrComponentNotFound) {
		t.Fatalf("got %v, want ErrComponentNotFound", err)
	}
}
