package inbox

import (
	"context"
	"sync"
)

// MemoryStore is the in-process inbox used when no database is configured.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) Seen(_ context.Context, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[messageID]; ok {
		return true, nil
	}
	s.seen[messageID] = struct{}{}
	return false, nil
}

func (s *MemoryStore) Forget(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, messageID)
	return nil
}
