package company

import (
	"context"
	"sync"

	"vigie/internal/surveillance/models"
	dErrors "vigie/pkg/domain-errors"
)

// MemorySource is an in-memory projection source for development and tests.
type MemorySource struct {
	mu          sync.RWMutex
	projections map[string]models.Projection
}

func NewMemory() *MemorySource {
	return &MemorySource{projections: make(map[string]models.Projection)}
}

// Put stores or replaces the projection for its SIREN.
func (s *MemorySource) Put(projection models.Projection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projections[projection.SIREN] = projection
}

// FetchProjection returns a copy of the stored projection.
// Errors: CodeNotFound for an unknown SIREN.
func (s *MemorySource) FetchProjection(ctx context.Context, siren string) (*models.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projections[siren]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no company with siren %s", siren)
	}

	out := p
	out.Officers = append([]models.Officer(nil), p.Officers...)
	out.Documents = append([]models.Document(nil), p.Documents...)
	out.Proceedings = append([]models.Proceeding(nil), p.Proceedings...)
	return &out, nil
}
