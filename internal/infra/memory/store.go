package memory

import (
	"context"
	"encoding/json"
	"sync"
)

// Store is an in-memory implementation of app.Store, used as the default
// backend and in tests. Namespaced views share the same underlying map.
type Store struct {
	inner  *storeData
	prefix string
}

type storeData struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewStore() *Store {
	return &Store{inner: &storeData{data: make(map[string][]byte)}}
}

// Namespace returns a view whose keys are scoped under name. Views share
// storage with the parent.
func (s *Store) Namespace(name string) *Store {
	return &Store{inner: s.inner, prefix: s.prefix + name + ":"}
}

func (s *Store) Get(_ context.Context, key string, dest any) (bool, error) {
	s.inner.mu.RLock()
	raw, ok := s.inner.data[s.prefix+key]
	s.inner.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Corrupt payloads read as absent so callers re-initialize defaults.
		return false, nil
	}
	return true, nil
}

func (s *Store) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.inner.mu.Lock()
	s.inner.data[s.prefix+key] = raw
	s.inner.mu.Unlock()
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.inner.mu.Lock()
	delete(s.inner.data, s.prefix+key)
	s.inner.mu.Unlock()
	return nil
}
