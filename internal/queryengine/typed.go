package queryengine

import (
	"iter"

	"rrcore/internal/chunk"
	"rrcore/internal/querycache"
)

// LatestAtTyped decodes the winning row for component into a concrete C,
// returning false if the component is missing from results or its cell
// fails to decode. A decode failure is logged at most once per component
// and otherwise treated as absence, per the core's non-fatal query-error
// policy.
func LatestAtTyped[C any](e *Engine, results *querycache.LatestAtResults, component chunk.ComponentDescriptor) (C, bool) {
	var out C
	res, ok := results.Get(component)
	if !ok {
		return out, false
	}
	if err := res.Chunk.DecodeCell(component, res.Index, &out); err != nil {
		e.logDeserializationError(component, res.RowID, err)
		var zero C
		return zero, false
	}
	return out, true
}

// RangeTyped walks the chunks a range query returned for component and
// yields each row's (RowId, decoded value) in chunk order. Rows that fail
// to decode are skipped; the failure is logged at most once per component.
func RangeTyped[C any](e *Engine, results *querycache.RangeResults, component chunk.ComponentDescriptor) iter.Seq2[chunk.RowId, C] {
	return func(yield func(chunk.RowId, C) bool) {
		chunks, ok := results.Get(component)
		if !ok {
			return
		}
		for _, ch := range chunks {
			rowIDs := ch.RowIDs()
			for idx, rowID := range rowIDs {
				var out C
				if err := ch.DecodeCell(component, idx, &out); err != nil {
					e.logDeserializationError(component, rowID, err)
					continue
				}
				if !yield(rowID, out) {
					return
				}
			}
		}
	}
}
