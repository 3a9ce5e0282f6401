// Package chunk defines the core data model for the chunk store: entity
// paths, timelines, time coordinates, row identities, component descriptors,
// and the immutable Chunk row-group itself.
package chunk

import (
	"hash/fnv"
	"strings"
)

// EntityPath is an ordered sequence of path components identifying a
// logical stream, e.g. "world/camera/image".
type EntityPath struct {
	parts []string
	hash  uint64
}

// NewEntityPath builds an EntityPath from its ordered components.
func NewEntityPath(parts ...string) EntityPath {
	cp := make([]string, len(parts))
	copy(cp, parts)
	return EntityPath{parts: cp, hash: hashParts(cp)}
}

// ParseEntityPath splits a "/"-separated string into an EntityPath.
// Leading, trailing, and repeated slashes are ignored.
func ParseEntityPath(s string) EntityPath {
	raw := strings.Split(s, "/")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return NewEntityPath(parts...)
}

func hashParts(parts []string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// Hash returns a stable 64-bit hash suitable for use as a map key component.
func (e EntityPath) Hash() uint64 { return e.hash }

// Len returns the number of path components.
func (e EntityPath) Len() int { return len(e.parts) }

// Parts returns the path components in order. The returned slice must not
// be mutated.
func (e EntityPath) Parts() []string { return e.parts }

// String renders the path as a "/"-joined string.
func (e EntityPath) String() string { return strings.Join(e.parts, "/") }

// Parent returns the path with its last component removed, and whether
// a parent exists (the root has none).
func (e EntityPath) Parent() (EntityPath, bool) {
	if len(e.parts) == 0 {
		return EntityPath{}, false
	}
	return NewEntityPath(e.parts[:len(e.parts)-1]...), true
}

// IsAncestorOf reports whether e is a strict ancestor of other.
func (e EntityPath) IsAncestorOf(other EntityPath) bool {
	if len(e.parts) >= len(other.parts) {
		return false
	}
	for i, p := range e.parts {
		if other.parts[i] != p {
			return false
		}
	}
	return true
}

// Equal reports whether two entity paths name the same stream.
func (e EntityPath) Equal(other EntityPath) bool {
	if len(e.parts) != len(other.parts) {
		return false
	}
	for i, p := range e.parts {
		if other.parts[i] != p {
			return false
		}
	}
	return true
}

// Key returns a value usable as a map key (EntityPath itself contains a
// slice and is not comparable with ==).
func (e EntityPath) Key() string { return e.String() }
