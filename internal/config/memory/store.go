// Package memory provides an in-memory config.Store implementation.
// Intended for testing and for processes that configure stores purely at
// startup. Configuration is not persisted across restarts.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"rrcore/internal/config"
)

// Store is an in-memory config.Store implementation.
type Store struct {
	mu     sync.RWMutex
	stores map[string]config.StoreConfig
}

var _ config.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{stores: make(map[string]config.StoreConfig)}
}

// Load returns the full configuration. Returns a nil Config if nothing has
// been saved.
func (s *Store) Load(ctx context.Context) (*config.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.stores) == 0 {
		return nil, nil
	}

	cfg := &config.Config{Stores: make([]config.StoreConfig, 0, len(s.stores))}
	for _, sc := range s.stores {
		cfg.Stores = append(cfg.Stores, sc)
	}
	slices.SortFunc(cfg.Stores, func(a, b config.StoreConfig) int { return strings.Compare(a.ID, b.ID) })
	return cfg, nil
}

// Save replaces the full configuration with cfg.
func (s *Store) Save(ctx context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stores = make(map[string]config.StoreConfig, len(cfg.Stores))
	for _, sc := range cfg.Stores {
		s.stores[sc.ID] = sc
	}
	return nil
}

// GetStoreConfig returns the tunables for storeID, if any have been saved.
func (s *Store) GetStoreConfig(ctx context.Context, storeID string) (*config.StoreConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.stores[storeID]
	if !ok {
		return nil, nil
	}
	return &sc, nil
}

// PutStoreConfig creates or replaces the tunables for sc.ID.
func (s *Store) PutStoreConfig(ctx context.Context, sc config.StoreConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stores[sc.ID] = sc
	return nil
}

// DeleteStoreConfig removes any tunables saved for storeID.
func (s *Store) DeleteStoreConfig(ctx context.Context, storeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.stores, storeID)
	return nil
}
