package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"vigie/internal/surveillance/models"
	"vigie/internal/surveillance/ports"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

// storeSurveillance inserts a surveillance directly, bypassing Create, so
// checker tests control the exact starting state.
func (s *ServiceSuite) storeSurveillance(owner id.UserID, siren string) *models.Surveillance {
	surveillance := &models.Surveillance{
		ID:          id.SurveillanceID(uuid.New()),
		OwnerID:     owner,
		SIREN:       siren,
		WatchType:   models.WatchComplete,
		Criteria:    id.AllCriteria(),
		Cadence:     id.CadenceDaily,
		EmailAlerts: true,
		Active:      true,
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
	s.Require().NoError(s.surveillances.Create(context.Background(), surveillance))
	return surveillance
}

func (s *ServiceSuite) TestCheckOneFirstObservation() {
	ctx := context.Background()
	surveillance := s.storeSurveillance(id.UserID(uuid.New()), "987654321")

	projection := testProjection()
	projection.SIREN = "987654321"
	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "987654321").Return(projection, nil)

	result, err := s.service.CheckOne(ctx, surveillance, "manual")
	s.Require().NoError(err)
	s.True(result.FirstCapture)
	s.Empty(result.Changes)

	baseline, err := s.snapshots.Latest(ctx, surveillance.ID)
	s.Require().NoError(err)
	s.Require().NotNil(baseline)

	stored, err := s.surveillances.FindByID(ctx, surveillance.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.LastCheckedAt)
	s.True(stored.LastCheckedAt.Equal(s.now))
}

func (s *ServiceSuite) TestCheckOneUnchangedIsQuiet() {
	ctx := context.Background()
	created := s.seedSurveillance(id.UserID(uuid.New()))

	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "123456789").Return(testProjection(), nil).Times(2)

	for range 2 {
		result, err := s.service.CheckOne(ctx, created, "sweep")
		s.Require().NoError(err)
		s.Empty(result.Changes)
		s.False(result.FirstCapture)
	}
}

func (s *ServiceSuite) TestCheckOneDetectsAndDispatches() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	changed := testProjection()
	changed.Name = "Acme Holdings"
	changed.Officers = []models.Officer{{LastName: "Roe", FirstName: "Sam", Role: "CEO"}}
	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "123456789").Return(changed, nil)
	s.mockEmail.EXPECT().Send(gomock.Any(), owner, gomock.Any(), gomock.Any()).Return(nil)

	result, err := s.service.CheckOne(ctx, created, "sweep")
	s.Require().NoError(err)
	// name change + officer add + officer remove.
	s.Len(result.Changes, 3)
	s.True(result.AlertsSent)

	stored, err := s.changes.Recent(ctx, created.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(stored, 3)
	for _, c := range stored {
		s.True(c.Notified)
		s.NotNil(c.NotifiedAt)
	}

	// The fresh snapshot becomes the diff base: a re-check is quiet.
	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "123456789").Return(changed, nil)
	again, err := s.service.CheckOne(ctx, created, "sweep")
	s.Require().NoError(err)
	s.Empty(again.Changes)
}

func (s *ServiceSuite) TestCheckOneEmailFailureStillRecordsChanges() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	changed := testProjection()
	changed.Name = "Acme Holdings"
	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "123456789").Return(changed, nil)
	s.mockEmail.EXPECT().Send(gomock.Any(), owner, gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

	result, err := s.service.CheckOne(ctx, created, "sweep")
	s.Require().NoError(err)
	s.Len(result.Changes, 1)
	s.False(result.AlertsSent)

	stored, err := s.changes.Recent(ctx, created.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.False(stored[0].Notified)
}

func (s *ServiceSuite) TestCheckOneFetchFailure() {
	ctx := context.Background()
	created := s.seedSurveillance(id.UserID(uuid.New()))

	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "123456789").
		Return(nil, errors.New("registry down"))

	_, err := s.service.CheckOne(ctx, created, "sweep")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	// The failed cycle must not mark the surveillance as checked.
	stored, err := s.surveillances.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Nil(stored.LastCheckedAt)
}

func (s *ServiceSuite) TestManualCheck() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	s.Run("other owner is concealed", func() {
		_, err := s.service.ManualCheck(ctx, id.UserID(uuid.New()), created.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("owner triggers the check path", func() {
		s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "123456789").Return(testProjection(), nil)
		result, err := s.service.ManualCheck(ctx, owner, created.ID)
		s.Require().NoError(err)
		s.Empty(result.Changes)
	})
}

func (s *ServiceSuite) TestSweepAggregatesCounts() {
	ctx := context.Background()
	ownerA := id.UserID(uuid.New())
	ownerB := id.UserID(uuid.New())

	s.seedSurveillance(ownerA)
	s.storeSurveillance(ownerB, "987654321")

	s.mockQuota.EXPECT().BillingStatus(gomock.Any(), ownerA).Return(ports.BillingActive, nil)
	s.mockQuota.EXPECT().BillingStatus(gomock.Any(), ownerB).Return(ports.BillingActive, nil)

	changedA := testProjection()
	changedA.Name = "Acme Holdings"
	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "123456789").Return(changedA, nil)
	projectionB := testProjection()
	projectionB.SIREN = "987654321"
	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "987654321").Return(projectionB, nil)
	s.mockEmail.EXPECT().Send(gomock.Any(), ownerA, gomock.Any(), gomock.Any()).Return(nil)

	result, err := s.service.Sweep(ctx)
	s.Require().NoError(err)
	s.Equal(2, result.Checked)
	s.Equal(1, result.ChangesDetected)
	s.Equal(1, result.AlertsSent)
	s.Equal(0, result.Errors)
}

func (s *ServiceSuite) TestSweepSkipsNonBillableOwner() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)

	s.mockQuota.EXPECT().BillingStatus(gomock.Any(), owner).Return(ports.BillingSuspended, nil)

	result, err := s.service.Sweep(ctx)
	s.Require().NoError(err)
	s.Equal(0, result.Checked)

	stored, err := s.surveillances.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Nil(stored.LastCheckedAt)
}

func (s *ServiceSuite) TestSweepIsolatesFailures() {
	ctx := context.Background()
	s.seedSurveillance(id.UserID(uuid.New()))
	s.storeSurveillance(id.UserID(uuid.New()), "987654321")

	s.mockQuota.EXPECT().BillingStatus(gomock.Any(), gomock.Any()).Return(ports.BillingActive, nil).Times(2)
	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "123456789").Return(testProjection(), nil)
	s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "987654321").
		Return(nil, errors.New("registry down"))

	result, err := s.service.Sweep(ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Checked)
	s.Equal(1, result.Errors)
}

func (s *ServiceSuite) TestSweepClaims() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := s.seedSurveillance(owner)
	key := "sweep:claim:" + created.ID.String()

	mockClaimer := s.newClaimedService()

	s.Run("lost claim skips the surveillance silently", func() {
		s.mockQuota.EXPECT().BillingStatus(gomock.Any(), owner).Return(ports.BillingActive, nil)
		mockClaimer.claimer.EXPECT().Claim(gomock.Any(), key, gomock.Any()).Return(false, nil)

		result, err := mockClaimer.service.Sweep(ctx)
		s.Require().NoError(err)
		s.Equal(0, result.Checked)
		s.Equal(0, result.Errors)
	})

	s.Run("won claim is released after the check", func() {
		s.mockQuota.EXPECT().BillingStatus(gomock.Any(), owner).Return(ports.BillingActive, nil)
		mockClaimer.claimer.EXPECT().Claim(gomock.Any(), key, gomock.Any()).Return(true, nil)
		mockClaimer.claimer.EXPECT().Release(gomock.Any(), key).Return(nil)
		s.mockProjections.EXPECT().FetchProjection(gomock.Any(), "123456789").Return(testProjection(), nil)

		result, err := mockClaimer.service.Sweep(ctx)
		s.Require().NoError(err)
		s.Equal(1, result.Checked)
	})
}

func (s *ServiceSuite) TestSweepCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.seedSurveillance(id.UserID(uuid.New()))
	s.mockQuota.EXPECT().BillingStatus(gomock.Any(), gomock.Any()).Return(ports.BillingActive, nil).AnyTimes()

	result, err := s.service.Sweep(ctx)
	s.Require().NoError(err)
	s.Equal(0, result.Checked)
}
