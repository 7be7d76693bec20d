// Package snapshot persists immutable company projections. Append-only: no
// update or delete operation exists.
package snapshot

import (
	"context"
	"slices"
	"sync"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
)

// MemoryStore keeps snapshots in process memory for tests and dev.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[id.SurveillanceID][]models.Snapshot
}

// NewMemory constructs an empty in-memory snapshot store.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[id.SurveillanceID][]models.Snapshot)}
}

func (s *MemoryStore) Append(_ context.Context, snapshot models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot.Data = slices.Clone(snapshot.Data)
	s.records[snapshot.SurveillanceID] = append(s.records[snapshot.SurveillanceID], snapshot)
	return nil
}

func (s *MemoryStore) Latest(_ context.Context, surveillanceID id.SurveillanceID) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Snapshot
	for i := range s.records[surveillanceID] {
		snapshot := &s.records[surveillanceID][i]
		if latest == nil || snapshot.TakenAt.After(latest.TakenAt) {
			latest = snapshot
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	copied.Data = slices.Clone(latest.Data)
	return &copied, nil
}

func (s *MemoryStore) ListRefs(_ context.Context, surveillanceID id.SurveillanceID, limit int) ([]models.SnapshotRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := slices.Clone(s.records[surveillanceID])
	slices.SortStableFunc(snapshots, func(a, b models.Snapshot) int {
		return b.TakenAt.Compare(a.TakenAt)
	})

	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	refs := make([]models.SnapshotRef, 0, len(snapshots))
	for _, snapshot := range snapshots {
		refs = append(refs, models.SnapshotRef{ID: snapshot.ID, TakenAt: snapshot.TakenAt})
	}
	return refs, nil
}
