// Package surveillance persists the standing watches.
//
// Error contract: FindByID returns a CodeNotFound error when the record does
// not exist; lookup helpers that answer "is there one" return nil, nil.
package surveillance

import (
	"context"
	"slices"
	"sync"
	"time"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

// MemoryStore keeps surveillances in process memory for tests and dev.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[id.SurveillanceID]*models.Surveillance
}

// NewMemory constructs an empty in-memory surveillance store.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[id.SurveillanceID]*models.Surveillance)}
}

func (s *MemoryStore) Create(_ context.Context, surveillance *models.Surveillance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[surveillance.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "surveillance already exists")
	}
	s.records[surveillance.ID] = clone(surveillance)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, surveillanceID id.SurveillanceID) (*models.Surveillance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[surveillanceID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "surveillance not found")
	}
	return clone(record), nil
}

func (s *MemoryStore) FindActiveDuplicate(_ context.Context, ownerID id.UserID, siren string) (*models.Surveillance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.OwnerID == ownerID && record.SIREN == siren && record.Active {
			return clone(record), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.Surveillance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Surveillance
	for _, record := range s.records {
		if record.OwnerID == ownerID {
			out = append(out, clone(record))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListActive(_ context.Context) ([]*models.Surveillance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Surveillance
	for _, record := range s.records {
		if record.Active {
			out = append(out, clone(record))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, surveillance *models.Surveillance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[surveillance.ID]; !exists {
		return dErrors.New(dErrors.CodeNotFound, "surveillance not found")
	}
	s.records[surveillance.ID] = clone(surveillance)
	return nil
}

func (s *MemoryStore) SetLastChecked(_ context.Context, surveillanceID id.SurveillanceID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[surveillanceID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "surveillance not found")
	}
	record.LastCheckedAt = &at
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, surveillanceID id.SurveillanceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[surveillanceID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "surveillance not found")
	}
	delete(s.records, surveillanceID)
	return nil
}

func clone(s *models.Surveillance) *models.Surveillance {
	copied := *s
	copied.Criteria = slices.Clone(s.Criteria)
	if s.LastCheckedAt != nil {
		at := *s.LastCheckedAt
		copied.LastCheckedAt = &at
	}
	return &copied
}

func sortNewestFirst(records []*models.Surveillance) {
	slices.SortStableFunc(records, func(a, b *models.Surveillance) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
