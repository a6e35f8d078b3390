package nicknames

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory LocalStore, suitable for tests and for hosts
// that don't want overrides surviving a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// Compile-time check that MemoryStore implements LocalStore.
var _ LocalStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

// Load returns the map stored under key; a missing key yields an empty map.
func (s *MemoryStore) Load(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.data[key]))
	for k, v := range s.data[key] {
		out[k] = v
	}
	return out, nil
}

// Save replaces the map stored under key.
func (s *MemoryStore) Save(_ context.Context, key string, overrides map[string]string) error {
	cp := make(map[string]string, len(overrides))
	for k, v := range overrides {
		cp[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cp
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
