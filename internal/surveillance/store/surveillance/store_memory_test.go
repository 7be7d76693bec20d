package surveillance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	now   time.Time
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) newSurveillance(owner id.UserID, siren string, createdAt time.Time) *models.Surveillance {
	return &models.Surveillance{
		ID:          id.SurveillanceID(uuid.New()),
		OwnerID:     owner,
		SIREN:       siren,
		CompanyName: "Acme Industries",
		WatchType:   models.WatchComplete,
		Criteria:    id.AllCriteria(),
		Cadence:     id.CadenceDaily,
		EmailAlerts: true,
		Active:      true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func (s *MemoryStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	record := s.newSurveillance(id.UserID(uuid.New()), "123456789", s.now)

	s.Require().NoError(s.store.Create(ctx, record))

	found, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record, found)

	// Mutating the returned copy must not leak into the store.
	found.CompanyName = "mutated"
	again, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal("Acme Industries", again.CompanyName)
}

func (s *MemoryStoreSuite) TestFindNotFound() {
	_, err := s.store.FindByID(context.Background(), id.SurveillanceID(uuid.New()))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *MemoryStoreSuite) TestCreateRejectsDuplicateID() {
	ctx := context.Background()
	record := s.newSurveillance(id.UserID(uuid.New()), "123456789", s.now)

	s.Require().NoError(s.store.Create(ctx, record))
	err := s.store.Create(ctx, record)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *MemoryStoreSuite) TestFindActiveDuplicate() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())

	active := s.newSurveillance(owner, "123456789", s.now)
	s.Require().NoError(s.store.Create(ctx, active))

	inactive := s.newSurveillance(owner, "987654321", s.now)
	inactive.Active = false
	s.Require().NoError(s.store.Create(ctx, inactive))

	s.Run("matches active record", func() {
		found, err := s.store.FindActiveDuplicate(ctx, owner, "123456789")
		s.Require().NoError(err)
		s.Require().NotNil(found)
		s.Equal(active.ID, found.ID)
	})

	s.Run("ignores inactive record", func() {
		found, err := s.store.FindActiveDuplicate(ctx, owner, "987654321")
		s.Require().NoError(err)
		s.Nil(found)
	})

	s.Run("ignores other owners", func() {
		found, err := s.store.FindActiveDuplicate(ctx, id.UserID(uuid.New()), "123456789")
		s.Require().NoError(err)
		s.Nil(found)
	})
}

func (s *MemoryStoreSuite) TestListByOwnerNewestFirst() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())

	older := s.newSurveillance(owner, "111111111", s.now.Add(-time.Hour))
	newer := s.newSurveillance(owner, "222222222", s.now)
	other := s.newSurveillance(id.UserID(uuid.New()), "333333333", s.now)

	s.Require().NoError(s.store.Create(ctx, older))
	s.Require().NoError(s.store.Create(ctx, newer))
	s.Require().NoError(s.store.Create(ctx, other))

	listed, err := s.store.ListByOwner(ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(newer.ID, listed[0].ID)
	s.Equal(older.ID, listed[1].ID)
}

func (s *MemoryStoreSuite) TestListActive() {
	ctx := context.Background()
	active := s.newSurveillance(id.UserID(uuid.New()), "111111111", s.now)
	paused := s.newSurveillance(id.UserID(uuid.New()), "222222222", s.now)
	paused.Active = false

	s.Require().NoError(s.store.Create(ctx, active))
	s.Require().NoError(s.store.Create(ctx, paused))

	listed, err := s.store.ListActive(ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(active.ID, listed[0].ID)
}

func (s *MemoryStoreSuite) TestUpdate() {
	ctx := context.Background()
	record := s.newSurveillance(id.UserID(uuid.New()), "123456789", s.now)
	s.Require().NoError(s.store.Create(ctx, record))

	record.Cadence = id.CadenceHourly
	record.Active = false
	s.Require().NoError(s.store.Update(ctx, record))

	found, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(id.CadenceHourly, found.Cadence)
	s.False(found.Active)
}

func (s *MemoryStoreSuite) TestUpdateMissing() {
	record := s.newSurveillance(id.UserID(uuid.New()), "123456789", s.now)
	err := s.store.Update(context.Background(), record)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *MemoryStoreSuite) TestSetLastChecked() {
	ctx := context.Background()
	record := s.newSurveillance(id.UserID(uuid.New()), "123456789", s.now)
	s.Require().NoError(s.store.Create(ctx, record))

	at := s.now.Add(time.Hour)
	s.Require().NoError(s.store.SetLastChecked(ctx, record.ID, at))

	found, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.LastCheckedAt)
	s.True(found.LastCheckedAt.Equal(at))
}

func (s *MemoryStoreSuite) TestDelete() {
	ctx := context.Background()
	record := s.newSurveillance(id.UserID(uuid.New()), "123456789", s.now)
	s.Require().NoError(s.store.Create(ctx, record))

	s.Require().NoError(s.store.Delete(ctx, record.ID))

	_, err := s.store.FindByID(ctx, record.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.store.Delete(ctx, record.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}
