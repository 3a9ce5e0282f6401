package chunk

import "testing"

func TestBuilderSparseRowsPadWithNulls(t *testing.T) {
	posDesc := NewComponentDescriptor("rrcore.Position3D")
	colorDesc := NewComponentDescriptor("rrcore.Color")

	b := NewBuilder(ParseEntityPath("world/points"))
	row0, row1, row2 := NewRowId(), NewRowId(), NewRowId()

	b.AddRow(row0, map[Timeline]TimeInt{LogTick: 1}, map[ComponentDescriptor]any{posDesc: "p0"})
	b.AddRow(row1, map[Timeline]TimeInt{LogTick: 2}, map[ComponentDescriptor]any{posDesc: "p1", colorDesc: "red"})
	b.AddRow(row2, map[Timeline]TimeInt{LogTick: 3}, map[ComponentDescriptor]any{colorDesc: "blue"})

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}

	c, err := b.Build(NewChunkID(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("chunk Len() = %d, want 3", c.Len())
	}

	var pos string
	if err := c.DecodeCell(posDesc, 0, &pos); err != nil || pos != "p0" {
		t.Errorf("row 0 position = (%q, %v), want (p0, nil)", pos, err)
	}
	if err := c.DecodeCell(posDesc, 2, &pos); err == nil {
		t.Error("row 2 should have no position value")
	}

	var color string
	if err := c.DecodeCell(colorDesc, 0, &color); err == nil {
		t.Error("row 0 should have no color value")
	}
	if err := c.DecodeCell(colorDesc, 2, &color); err != nil || color != "blue" {
		t.Errorf("row 2 color = (%q, %v), want (blue, nil)", color, err)
	}
}

func TestBuilderEmptyBuild(t *testing.T) {
	b := NewBuilder(ParseEntityPath("world"))
	c, err := b.Build(NewChunkID(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !c.IsEmpty() {
		t.Error("an empty builder should produce an empty chunk")
	}
}
