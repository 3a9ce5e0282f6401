package chunk

import "testing"

func TestConcatMergesRowsInOrder(t *testing.T) {
	ep := ParseEntityPath("world/points")
	r1, r2, r3 := NewRowId(), NewRowId(), NewRowId()

	a := mustChunk(t, NewChunkID(), ep, []RowId{r1}, []TimeInt{10}, []any{1.0})
	b := mustChunk(t, NewChunkID(), ep, []RowId{r2, r3}, []TimeInt{20, 30}, []any{2.0, 3.0})

	merged, err := Concat(NewChunkID(), a, b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if merged.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", merged.Len())
	}
	var v float64
	if err := merged.DecodeCell(scalarDesc, 2, &v); err != nil || v != 3.0 {
		t.Errorf("row 2 value = (%v, %v), want (3, nil)", v, err)
	}
}

func TestConcatRejectsMismatchedEntityPaths(t *testing.T) {
	a := mustChunk(t, NewChunkID(), ParseEntityPath("a"), []RowId{NewRowId()}, []TimeInt{1}, []any{1.0})
	b := mustChunk(t, NewChunkID(), ParseEntityPath("b"), []RowId{NewRowId()}, []TimeInt{1}, []any{1.0})

	if _, err := Concat(NewChunkID(), a, b); err == nil {
		t.Fatal("expected an error concatenating chunks with different entity paths")
	}
}

func TestConcatPadsColumnsAbsentFromOneInput(t *testing.T) {
	ep := ParseEntityPath("world")
	colorDesc := NewComponentDescriptor("rrcore.Color")

	a, err := FromRows(NewChunkID(), ep, []RowId{NewRowId()},
		map[Timeline][]TimeInt{LogTick: {1}},
		map[ComponentDescriptor][]any{scalarDesc: {1.0}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromRows(NewChunkID(), ep, []RowId{NewRowId()},
		map[Timeline][]TimeInt{LogTick: {2}},
		map[ComponentDescriptor][]any{colorDesc: {"red"}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	merged, err := Concat(NewChunkID(), a, b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if err := merged.DecodeCell(scalarDesc, 1, new(float64)); err == nil {
		t.Error("row 1 should have no scalar value padded from chunk a's schema")
	}
	if err := merged.DecodeCell(colorDesc, 0, new(string)); err == nil {
		t.Error("row 0 should have no color value padded from chunk b's schema")
	}
}
