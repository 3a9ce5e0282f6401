package chunk

import (
	"bytes"
	"strings"

	"github.com/google/uuid"
)

// RowId is a monotonically increasing 128-bit identifier, time-ordered
// within one writing process. It acts as a tiebreaker at equal timestamps
// and as stable row identity across re-ingestion.
//
// Grounded on the teacher's ChunkID: a UUIDv7 carries a millisecond
// timestamp in its leading bytes, so lexicographic (byte-wise) comparison
// of two RowIds already orders them chronologically, with the trailing
// random/counter bits breaking ties within the same millisecond.
type RowId uuid.UUID

// NewRowId creates a RowId from a new UUIDv7.
func NewRowId() RowId {
	return RowId(uuid.Must(uuid.NewV7()))
}

// Compare returns -1, 0, or 1 as r orders before, equal to, or after other.
func (r RowId) Compare(other RowId) int {
	return bytes.Compare(r[:], other[:])
}

// Less reports whether r sorts strictly before other.
func (r RowId) Less(other RowId) bool { return r.Compare(other) < 0 }

// IsZero reports whether this is the zero-value RowId (never a real row).
func (r RowId) IsZero() bool { return r == RowId{} }

var rowIDEncoding = chunkIDEncoding

// String renders the RowId the same way ChunkID renders itself: a
// 26-character lowercase base32hex string, lexicographically sortable.
func (r RowId) String() string {
	return strings.ToLower(rowIDEncoding.EncodeToString(r[:]))
}
