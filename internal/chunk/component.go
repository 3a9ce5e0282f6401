package chunk

import (
	"errors"
	"fmt"
)

// ComponentDescriptor names one column: the archetype bundle it belongs to
// (if any), the field name within that archetype (if any), and the
// component's type name. ArchetypeName and ArchetypeField may be empty for
// components logged outside of any archetype; ComponentType is always set.
type ComponentDescriptor struct {
	ArchetypeName  string
	ArchetypeField string
	ComponentType  string
}

// NewComponentDescriptor names a bare component with no archetype context.
func NewComponentDescriptor(componentType string) ComponentDescriptor {
	return ComponentDescriptor{ComponentType: componentType}
}

// WithArchetype returns a copy of the descriptor naming its owning archetype
// and field.
func (d ComponentDescriptor) WithArchetype(archetypeName, archetypeField string) ComponentDescriptor {
	d.ArchetypeName = archetypeName
	d.ArchetypeField = archetypeField
	return d
}

// String renders "archetype.field:type" or, if no archetype is set, just the
// component type.
func (d ComponentDescriptor) String() string {
	if d.ArchetypeName == "" && d.ArchetypeField == "" {
		return d.ComponentType
	}
	return fmt.Sprintf("%s.%s:%s", d.ArchetypeName, d.ArchetypeField, d.ComponentType)
}

// ColumnType is the canonical type recorded the first time a component is
// observed by a store. It stands in for the recording format's Arrow
// datatype: Go has no Arrow binding in this codebase, so the concrete Go
// type of the first logged value (as produced by the msgpack encoder used
// for column cells) is used as the canonical type label instead.
type ColumnType string

// ErrDatatypeConflict is returned when a component's encoded value doesn't
// match the datatype first observed for that component.
var ErrDatatypeConflict = errors.New("chunk: component datatype conflict")

// columnTypeOf derives the canonical type label for a decoded Go value.
func columnTypeOf(v any) ColumnType {
	return ColumnType(fmt.Sprintf("%T", v))
}

// TypeRegistry records the canonical ColumnType observed for each component
// type, fixed on first sighting. It is safe to read concurrently once
// populated by a single owner (the ChunkStore serializes writes).
type TypeRegistry struct {
	types map[string]ColumnType
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]ColumnType)}
}

// Observe records typ for componentType if it is the first sighting, or
// verifies it matches the previously recorded type. Returns
// ErrDatatypeConflict on mismatch.
func (r *TypeRegistry) Observe(componentType string, typ ColumnType) error {
	if existing, ok := r.types[componentType]; ok {
		if existing != typ {
			return fmt.Errorf("%w: component %q has type %s, expected %s", ErrDatatypeConflict, componentType, typ, existing)
		}
		return nil
	}
	r.types[componentType] = typ
	return nil
}

// Lookup returns the canonical type for a component, if known.
func (r *TypeRegistry) Lookup(componentType string) (ColumnType, bool) {
	t, ok := r.types[componentType]
	return t, ok
}
