package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process BlobStore, used for dry runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	puts  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.blobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, name string, data []byte, _ string) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.mu.Lock()
	s.blobs[name] = buf
	s.puts++
	s.mu.Unlock()
	return nil
}

// Puts returns how many writes the store has accepted.
func (s *MemoryStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
