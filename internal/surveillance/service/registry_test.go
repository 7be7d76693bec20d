package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

func testProjection() *models.Projection {
	return &models.Projection{
		SIREN:        "123456789",
		Name:         "Acme Industries",
		LegalForm:    "SAS",
		Status:       "active",
		ShareCapital: 50000,
		Address: models.Address{
			Line1:      "1 rue de la Paix",
			PostalCode: "75002",
			City:       "Paris",
		},
		Officers: []models.Officer{
			{LastName: "Doe", FirstName: "Jane", Role: "CEO"},
		},
	}
}

func (s *ServiceSuite) validCreateParams() CreateParams {
	return CreateParams{
		SIREN:       "123456789",
		WatchType:   models.WatchComplete,
		Cadence:     id.CadenceDaily,
		EmailAlerts: true,
	}
}

func (s *ServiceSuite) seedSurveillance(owner id.UserID) *models.Surveillance {
	ctx := context.Background()
	s.mockProjections.EXPECT().FetchProjection(ctx, "123456789").Return(testProjection(), nil)
	s.mockQuota.EXPECT().HasCapacity(ctx, owner, "surveillance").Return(true, nil)
	s.mockQuota.EXPECT().RecordUsage(ctx, owner, "surveillance").Return(nil)

	created, err := s.service.Create(ctx, owner, s.validCreateParams())
	s.Require().NoError(err)
	return created
}

func (s *ServiceSuite) TestCreate() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())

	s.Run("happy path captures the baseline snapshot", func() {
		created := s.seedSurveillance(owner)

		s.False(created.ID.IsNil())
		s.Equal("Acme Industries", created.CompanyName)
		s.Equal(id.AllCriteria(), created.Criteria)
		s.True(created.Active)
		s.Nil(created.LastCheckedAt)

		stored, err := s.surveillances.FindByID(ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.SIREN, stored.SIREN)

		baseline, err := s.snapshots.Latest(ctx, created.ID)
		s.Require().NoError(err)
		s.Require().NotNil(baseline)
		s.Equal("123456789", baseline.SIREN)
	})

	s.Run("rejects malformed siren", func() {
		params := s.validCreateParams()
		params.SIREN = "12AB"
		_, err := s.service.Create(ctx, owner, params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("custom watch type requires criteria", func() {
		params := s.validCreateParams()
		params.WatchType = models.WatchCustom
		_, err := s.service.Create(ctx, owner, params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects malformed webhook url", func() {
		params := s.validCreateParams()
		params.WebhookURL = "not-a-url"
		_, err := s.service.Create(ctx, owner, params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("both alert channels may be off", func() {
		freshOwner := id.UserID(uuid.New())
		s.mockProjections.EXPECT().FetchProjection(ctx, "123456789").Return(testProjection(), nil)
		s.mockQuota.EXPECT().HasCapacity(ctx, freshOwner, "surveillance").Return(true, nil)
		s.mockQuota.EXPECT().RecordUsage(ctx, freshOwner, "surveillance").Return(nil)

		params := s.validCreateParams()
		params.EmailAlerts = false
		params.WebhookURL = ""
		created, err := s.service.Create(ctx, freshOwner, params)
		s.Require().NoError(err)
		s.False(created.EmailAlerts)
		s.Empty(created.WebhookURL)
	})

	s.Run("unknown company is not found", func() {
		freshOwner := id.UserID(uuid.New())
		s.mockProjections.EXPECT().FetchProjection(ctx, "123456789").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "no such company"))

		_, err := s.service.Create(ctx, freshOwner, s.validCreateParams())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("active duplicate conflicts", func() {
		s.mockProjections.EXPECT().FetchProjection(ctx, "123456789").Return(testProjection(), nil)
		_, err := s.service.Create(ctx, owner, s.validCreateParams())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("exhausted quota is rejected before insert", func() {
		freshOwner := id.UserID(uuid.New())
		s.mockProjections.EXPECT().FetchProjection(ctx, "123456789").Return(testProjection(), nil)
		s.mockQuota.EXPECT().HasCapacity(ctx, freshOwner, "surveillance").Return(false, nil)

		_, err := s.service.Create(ctx, freshOwner, s.validCreateParams())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeQuotaExceeded))

		listed, listErr := s.surveillances.ListByOwner(ctx, freshOwner)
		s.Require().NoError(listErr)
		s.Empty(listed)
	})
}

func (s *ServiceSuite) TestGet() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	s.Run("returns detail with snapshot refs and health", func() {
		detail, err := s.service.Get(ctx, owner, created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, detail.Surveillance.ID)
		s.Len(detail.SnapshotRefs, 1)
		s.Empty(detail.RecentChanges)
		s.Empty(detail.ChangeStats)
		// Active, never checked: 100 - 50.
		s.Equal(50, detail.HealthScore)
	})

	s.Run("carries up to 20 changes and per-type stats", func() {
		batch := make([]models.Change, 0, 25)
		for i := 0; i < 25; i++ {
			batch = append(batch, models.Change{
				ID:             id.ChangeID(uuid.New()),
				SurveillanceID: created.ID,
				Type:           models.ChangeIdentity,
				Importance:     models.ImportanceHigh,
				DetectedAt:     s.now.Add(-time.Duration(i) * time.Minute),
			})
		}
		batch = append(batch, models.Change{
			ID:             id.ChangeID(uuid.New()),
			SurveillanceID: created.ID,
			Type:           models.ChangeCapital,
			Importance:     models.ImportanceMedium,
			DetectedAt:     s.now.Add(-time.Hour),
		})
		s.Require().NoError(s.changes.Append(ctx, batch))

		detail, err := s.service.Get(ctx, owner, created.ID)
		s.Require().NoError(err)
		s.Len(detail.RecentChanges, 20)
		s.Require().Len(detail.ChangeStats, 2)
		s.Equal(models.ChangeIdentity, detail.ChangeStats[0].Type)
		s.Equal(25, detail.ChangeStats[0].Count)
		s.Equal(models.ChangeCapital, detail.ChangeStats[1].Type)
		s.Equal(1, detail.ChangeStats[1].Count)
	})

	s.Run("conceals other owners' records", func() {
		_, err := s.service.Get(ctx, id.UserID(uuid.New()), created.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.Get(ctx, owner, id.SurveillanceID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestList() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	changes := []models.Change{
		{ID: id.ChangeID(uuid.New()), SurveillanceID: created.ID, Type: models.ChangeIdentity, Importance: models.ImportanceHigh, DetectedAt: s.now.Add(-time.Hour)},
		{ID: id.ChangeID(uuid.New()), SurveillanceID: created.ID, Type: models.ChangeCapital, Importance: models.ImportanceMedium, DetectedAt: s.now.Add(-40 * 24 * time.Hour)},
	}
	s.Require().NoError(s.changes.Append(ctx, changes))

	listed, err := s.service.List(ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)

	row := listed[0]
	s.Equal(created.ID, row.Surveillance.ID)
	s.Len(row.RecentChanges, 2)
	s.Equal(1, row.ChangeCount30d)
	s.Equal(50, row.HealthScore)
}

func (s *ServiceSuite) TestUpdate() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	s.Run("empty patch is a bad request", func() {
		_, err := s.service.Update(ctx, owner, created.ID, models.Patch{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("applies allow-listed fields", func() {
		cadence := id.CadenceHourly
		watchType := models.WatchOfficers
		updated, err := s.service.Update(ctx, owner, created.ID, models.Patch{
			WatchType: &watchType,
			Cadence:   &cadence,
		})
		s.Require().NoError(err)
		s.Equal(id.CadenceHourly, updated.Cadence)
		s.Equal(models.WatchOfficers, updated.WatchType)
		s.Equal([]id.Criterion{id.CriterionOfficers}, updated.Criteria)
	})

	s.Run("rejects invalid webhook url", func() {
		bad := "nope"
		_, err := s.service.Update(ctx, owner, created.ID, models.Patch{WebhookURL: &bad})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("both alert channels may be switched off", func() {
		off := false
		updated, err := s.service.Update(ctx, owner, created.ID, models.Patch{EmailAlerts: &off})
		s.Require().NoError(err)
		s.False(updated.EmailAlerts)
		s.Empty(updated.WebhookURL)
	})

	s.Run("other owner cannot update", func() {
		cadence := id.CadenceWeekly
		_, err := s.service.Update(ctx, id.UserID(uuid.New()), created.ID, models.Patch{Cadence: &cadence})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestToggle() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	toggled, err := s.service.Toggle(ctx, owner, created.ID)
	s.Require().NoError(err)
	s.False(toggled.Active)

	toggled, err = s.service.Toggle(ctx, owner, created.ID)
	s.Require().NoError(err)
	s.True(toggled.Active)
}

func (s *ServiceSuite) TestDelete() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	change := models.Change{ID: id.ChangeID(uuid.New()), SurveillanceID: created.ID, Type: models.ChangeIdentity, Importance: models.ImportanceHigh, DetectedAt: s.now}
	s.Require().NoError(s.changes.Append(ctx, []models.Change{change}))

	s.Require().NoError(s.service.Delete(ctx, owner, created.ID))

	_, err := s.surveillances.FindByID(ctx, created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	// History survives the delete for audit.
	remaining, err := s.changes.Recent(ctx, created.ID, 10)
	s.Require().NoError(err)
	s.Len(remaining, 1)
	snapshot, err := s.snapshots.Latest(ctx, created.ID)
	s.Require().NoError(err)
	s.NotNil(snapshot)
}

func (s *ServiceSuite) TestListChanges() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	var batch []models.Change
	for i := range 15 {
		batch = append(batch, models.Change{
			ID:             id.ChangeID(uuid.New()),
			SurveillanceID: created.ID,
			Type:           models.ChangeAddress,
			Importance:     models.ImportanceMedium,
			DetectedAt:     s.now.Add(-time.Duration(i) * time.Hour),
		})
	}
	s.Require().NoError(s.changes.Append(ctx, batch))

	page, err := s.service.ListChanges(ctx, owner, created.ID, models.ChangeFilter{}, models.PageRequest{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(15, page.Total)
	s.Equal(2, page.TotalPages)
	s.Len(page.Changes, 10)

	_, err = s.service.ListChanges(ctx, id.UserID(uuid.New()), created.ID, models.ChangeFilter{}, models.PageRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestStats() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	batch := []models.Change{
		{ID: id.ChangeID(uuid.New()), SurveillanceID: created.ID, Type: models.ChangeIdentity, Importance: models.ImportanceHigh, DetectedAt: s.now.Add(-time.Hour)},
		{ID: id.ChangeID(uuid.New()), SurveillanceID: created.ID, Type: models.ChangeProceedingAdded, Importance: models.ImportanceCritical, DetectedAt: s.now.Add(-2 * time.Hour)},
	}
	s.Require().NoError(s.changes.Append(ctx, batch))

	stats, err := s.service.Stats(ctx, owner)
	s.Require().NoError(err)
	s.Equal(1, stats.Total)
	s.Equal(1, stats.Active)
	s.Equal(0, stats.CheckedLast24h)
	s.Equal(1, stats.ByImportance[models.ImportanceHigh])
	s.Equal(1, stats.ByImportance[models.ImportanceCritical])
	s.Equal(1, stats.ByType[models.ChangeIdentity])
	s.Require().Len(stats.Daily, 1)
	s.Equal(2, stats.Daily[0].Count)

	s.Require().NoError(s.surveillances.SetLastChecked(ctx, created.ID, s.now.Add(-time.Hour)))
	stats, err = s.service.Stats(ctx, owner)
	s.Require().NoError(err)
	s.Equal(1, stats.CheckedLast24h)
}

func (s *ServiceSuite) TestStatsEmptyOwner() {
	stats, err := s.service.Stats(context.Background(), id.UserID(uuid.New()))
	s.Require().NoError(err)
	s.Equal(0, stats.Total)
	s.Empty(stats.ByImportance)
	s.Empty(stats.Daily)
}

func (s *ServiceSuite) TestWatchTypes() {
	types := s.service.WatchTypes()
	s.Require().Len(types, 5)
	s.Equal(models.WatchComplete, types[0].Type)
	s.Equal(models.WatchCustom, types[4].Type)
}
