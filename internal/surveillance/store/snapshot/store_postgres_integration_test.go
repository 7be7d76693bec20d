//go:build integration

package snapshot_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vigie/internal/surveillance/models"
	snapshotStore "vigie/internal/surveillance/store/snapshot"
	id "vigie/pkg/domain"
	"vigie/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *snapshotStore.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = snapshotStore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.Require().NoError(s.postgres.Terminate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "snapshots"))
}

func newTestSnapshot(surveillanceID id.SurveillanceID, takenAt time.Time) models.Snapshot {
	return models.Snapshot{
		ID:             id.SnapshotID(uuid.New()),
		SurveillanceID: surveillanceID,
		SIREN:          "123456789",
		TakenAt:        takenAt,
		Data:           json.RawMessage(`{"name":"Acme Industries"}`),
	}
}

func (s *PostgresStoreSuite) TestLatestOfEmptyIsNil() {
	latest, err := s.store.Latest(context.Background(), id.SurveillanceID(uuid.New()))
	s.Require().NoError(err)
	s.Nil(latest)
}

func (s *PostgresStoreSuite) TestAppendAndLatest() {
	ctx := context.Background()
	surveillanceID := id.SurveillanceID(uuid.New())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := newTestSnapshot(surveillanceID, base.Add(-time.Hour))
	second := newTestSnapshot(surveillanceID, base)
	second.Data = json.RawMessage(`{"name":"Acme Industries SA"}`)
	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, second))
	s.Require().NoError(s.store.Append(ctx, newTestSnapshot(id.SurveillanceID(uuid.New()), base)))

	latest, err := s.store.Latest(ctx, surveillanceID)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Equal(second.ID, latest.ID)
	s.Equal(surveillanceID, latest.SurveillanceID)
	s.Equal("123456789", latest.SIREN)
	s.True(latest.TakenAt.Equal(base))
	s.JSONEq(`{"name":"Acme Industries SA"}`, string(latest.Data))
}

func (s *PostgresStoreSuite) TestListRefs() {
	ctx := context.Background()
	surveillanceID := id.SurveillanceID(uuid.New())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var ids []id.SnapshotID
	for i := 0; i < 4; i++ {
		snap := newTestSnapshot(surveillanceID, base.Add(-time.Duration(i)*time.Hour))
		s.Require().NoError(s.store.Append(ctx, snap))
		ids = append(ids, snap.ID)
	}

	refs, err := s.store.ListRefs(ctx, surveillanceID, 3)
	s.Require().NoError(err)
	s.Require().Len(refs, 3)
	for i, ref := range refs {
		s.Equal(ids[i], ref.ID)
	}
	s.True(refs[0].TakenAt.After(refs[1].TakenAt))
}
