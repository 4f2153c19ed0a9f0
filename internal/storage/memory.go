package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process memory. Used by tests and by
// deployments that accept losing carts on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	if err := ValidateKey(sessionID, key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[sessionID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID, key string, payload []byte) error {
	if err := ValidateKey(sessionID, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[sessionID] == nil {
		s.docs[sessionID] = make(map[string][]byte)
	}
	s.docs[sessionID][key] = append([]byte(nil), payload...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, sessionID)
	return nil
}
