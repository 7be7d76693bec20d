package claim

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements claims in process memory for tests and
// single-instance dev runs.
type MemoryStore struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewMemory constructs an empty in-memory claim store.
func NewMemory() *MemoryStore {
	return &MemoryStore{held: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, taken := s.held[key]; taken && expiry.After(now) {
		return false, nil
	}
	s.held[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, key)
	return nil
}
