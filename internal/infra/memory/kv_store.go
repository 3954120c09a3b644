package memory

import (
	"context"
	"sync"

	"echo-quiz/internal/domain"
)

// KVStore is an in-memory implementation of app.KVStore. Values are copied on
// the way in and out so callers never share buffers with the store.
type KVStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewKVStore() *KVStore {
	return &KVStore{
		values: make(map[string][]byte),
	}
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
