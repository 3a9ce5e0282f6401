package queryengine

import (
	"testing"

	"rrcore/internal/chunkstore"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	storeA := chunkstore.New("store-a", chunkstore.Options{CompactionRowLimit: 0})
	storeB := chunkstore.New("store-b", chunkstore.Options{CompactionRowLimit: 0})

	reg.Register(storeA, New(storeA, nil))
	reg.Register(storeB, New(storeB, nil))

	if got := reg.Engine("store-a"); got == nil || got.Store().ID() != storeA.ID() {
		t.Fatalf("Engine(store-a) = %+v, want an engine over storeA", got)
	}
	if got := reg.Engine("missing"); got != nil {
		t.Fatalf("Engine(missing) = %+v, want nil", got)
	}

	ids := reg.ListStores()
	if len(ids) != 2 {
		t.Fatalf("ListStores = %v, want 2 entries", ids)
	}
}

func TestRegistryDeregisterRemovesEngine(t *testing.T) {
	reg := NewRegistry()
	store := chunkstore.New("store-a", chunkstore.Options{CompactionRowLimit: 0})
	reg.Register(store, New(store, nil))

	reg.Deregister(store.ID())
	if got := reg.Engine(store.ID()); got != nil {
		t.Fatalf("Engine after Deregister = %+v, want nil", got)
	}
}

func TestErrUnknownStoreMessage(t *testing.T) {
	err := ErrUnknownStore{StoreID: "ghost"}
	if err.Error() == "" {
		t.Error("Error() should be non-empty")
	}
}
