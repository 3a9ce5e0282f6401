package chunk

import (
	"errors"
	"testing"
)

func TestComponentDescriptorString(t *testing.T) {
	bare := NewComponentDescriptor("rrcore.Position3D")
	if got := bare.String(); got != "rrcore.Position3D" {
		t.Errorf("String() = %q, want rrcore.Position3D", got)
	}

	withArch := bare.WithArchetype("Points3D", "positions")
	if got := withArch.String(); got != "Points3D.positions:rrcore.Position3D" {
		t.Errorf("String() = %q, want Points3D.positions:rrcore.Position3D", got)
	}
}

func TestTypeRegistryObserveFirstSightingFixesType(t *testing.T) {
	r := NewTypeRegistry()
	if err := r.Observe("rrcore.Scalar", "float64"); err != nil {
		t.Fatalf("first Observe: %v", err)
	}
	if err := r.Observe("rrcore.Scalar", "float64"); err != nil {
		t.Fatalf("repeat Observe with same type: %v", err)
	}
	typ, ok := r.Lookup("rrcore.Scalar")
	if !ok || typ != "float64" {
		t.Fatalf("Lookup() = (%q, %v), want (float64, true)", typ, ok)
	}
}

func TestTypeRegistryObserveConflict(t *testing.T) {
	r := NewTypeRegistry()
	if err := r.Observe("rrcore.Scalar", "float64"); err != nil {
		t.Fatalf("first Observe: %v", err)
	}
	err := r.Observe("rrcore.Scalar", "string")
	if !errors.Is(err, ErrDatatypeConflict) {
		t.Fatalf("Observe with conflicting type: got %v, want ErrDatatypeConflict", err)
	}
}

func TestTypeRegistryLookupUnknown(t *testing.T) {
	r := NewTypeRegistry()
	if _, ok := r.Lookup("nope"); ok {
		t.Error("Lookup of an unobserved component should report false")
	}
}
