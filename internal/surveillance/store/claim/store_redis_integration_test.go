//go:build integration

package claim_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	claimStore "vigie/internal/surveillance/store/claim"
	"vigie/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *claimStore.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = claimStore.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) TearDownSuite() {
	s.Require().NoError(s.redis.Terminate(context.Background()))
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestClaimIsExclusive() {
	ctx := context.Background()

	won, err := s.store.Claim(ctx, "sweep:abc", time.Minute)
	s.Require().NoError(err)
	s.True(won)

	won, err = s.store.Claim(ctx, "sweep:abc", time.Minute)
	s.Require().NoError(err)
	s.False(won)

	won, err = s.store.Claim(ctx, "sweep:other", time.Minute)
	s.Require().NoError(err)
	s.True(won)
}

func (s *RedisStoreSuite) TestReleaseFreesKey() {
	ctx := context.Background()

	won, err := s.store.Claim(ctx, "sweep:abc", time.Minute)
	s.Require().NoError(err)
	s.True(won)

	s.Require().NoError(s.store.Release(ctx, "sweep:abc"))

	won, err = s.store.Claim(ctx, "sweep:abc", time.Minute)
	s.Require().NoError(err)
	s.True(won)
}

func (s *RedisStoreSuite) TestClaimExpires() {
	ctx := context.Background()

	won, err := s.store.Claim(ctx, "sweep:abc", 200*time.Millisecond)
	s.Require().NoError(err)
	s.True(won)

	s.Require().Eventually(func() bool {
		won, err := s.store.Claim(ctx, "sweep:abc", time.Minute)
		return err == nil && won
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisStoreSuite) TestReleaseMissingKeyIsHarmless() {
	s.Require().NoError(s.store.Release(context.Background(), "sweep:never-claimed"))
}
