package chunk

import "errors"

// ErrDeserialization is wrapped around a query-time typed-decode failure.
// It is always non-fatal: callers log it once per component and continue
// with the remaining components (see Chunk.DecodeCell, ErrComponentNotFound
// for missing-value handling, and ErrMalformedChunk/ErrDatatypeConflict for
// the two fatal, insertion-time error kinds).
var ErrDeserialization = errors.New("chunk: deserialization failed")

// ErrGCBudgetExceeded marks a GC pass that could not bring a store within
// budget in one sweep. It is not a failure: the caller re-invokes GC later
// to make further progress.
var ErrGCBudgetExceeded = errors.New("chunk: gc budget exceeded in one pass")
