package chunk

import "fmt"

// Concat merges chunks (which must share an entity path) into a single new
// chunk under id, concatenating rows in the given order. Used by
// compaction: timelines and components absent from one input but present
// in another are padded (TimeStatic / null cell) for that input's rows, so
// callers should only concatenate chunks whose schemas already agree to
// avoid silently introducing nulls.
func Concat(id ChunkID, chunks ...*Chunk) (*Chunk, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: concat requires at least one chunk", ErrMalformedChunk)
	}
	ep := chunks[0].entityPath
	n := 0
	for _, c := range chunks {
		if !c.entityPath.Equal(ep) {
			return nil, fmt.Errorf("%w: concat requires matching entity paths", ErrMalformedChunk)
		}
		n += c.Len()
	}

	timelineSet := make(map[Timeline]struct{})
	componentSet := make(map[ComponentDescriptor]ColumnType)
	for _, c := range chunks {
		for tl := range c.timelines {
			timelineSet[tl] = struct{}{}
		}
		for d, cc := range c.components {
			if _, ok := componentSet[d]; !ok {
				componentSet[d] = cc.colType
			}
		}
	}

	rowIDs := make([]RowId, 0, n)
	times := make(map[Timeline][]TimeInt, len(timelineSet))
	cells := make(map[ComponentDescriptor][][]byte, len(componentSet))
	for tl := range timelineSet {
		times[tl] = make([]TimeInt, 0, n)
	}
	for d := range componentSet {
		cells[d] = make([][]byte, 0, n)
	}

	for _, c := range chunks {
		rowIDs = append(rowIDs, c.rowIDs...)
		for tl := range timelineSet {
			if tc, ok := c.timelines[tl]; ok {
				times[tl] = append(times[tl], tc.times...)
			} else {
				for range c.rowIDs {
					times[tl] = append(times[tl], TimeStatic)
				}
			}
		}
		for d := range componentSet {
			if cc, ok := c.components[d]; ok {
				cells[d] = append(cells[d], cc.cells...)
			} else {
				cells[d] = append(cells[d], make([][]byte, c.Len())...)
			}
		}
	}

	out := &Chunk{
		id:         id,
		entityPath: ep,
		rowIDs:     rowIDs,
		timelines:  make(map[Timeline]*timeColumn, len(timelineSet)),
		components: make(map[ComponentDescriptor]*componentColumn, len(componentSet)),
	}
	for tl, col := range times {
		out.timelines[tl] = newTimeColumn(tl, col)
	}
	for d, col := range cells {
		out.components[d] = &componentColumn{descriptor: d, cells: col, colType: componentSet[d]}
	}
	out.sizeBytes = out.computeSizeBytes()
	return out, nil
}
