package quota

import (
	"context"
	"sync"

	"vigie/internal/surveillance/ports"
	id "vigie/pkg/domain"
)

// MemoryStore keeps accounts in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.UserID]*Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[id.UserID]*Account)}
}

// Seed installs an account, replacing any previous state for the owner.
func (s *MemoryStore) Seed(account Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.Usage == nil {
		account.Usage = make(map[string]int)
	}
	s.accounts[account.OwnerID] = &account
}

func (s *MemoryStore) GetAccount(_ context.Context, ownerID id.UserID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if account, exists := s.accounts[ownerID]; exists {
		copied := *account
		return &copied, nil
	}
	return nil, nil
}

func (s *MemoryStore) IncrementUsage(_ context.Context, ownerID id.UserID, feature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[ownerID]
	if !exists {
		account = &Account{
			OwnerID: ownerID,
			Plan:    PlanFree,
			Status:  ports.BillingTrial,
			Usage:   make(map[string]int),
		}
		s.accounts[ownerID] = account
	}
	account.Usage[feature]++
	return nil
}
