//go:build integration

package dedupe_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"syncgate/internal/sync/models"
	"syncgate/internal/sync/store/dedupe"
	"syncgate/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *dedupe.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = dedupe.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestGetMissingIsNilNil() {
	got, err := s.store.Get(context.Background(), "req-missing")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *RedisStoreSuite) TestPutAndGetRoundTrip() {
	ctx := context.Background()

	stored := &models.ApplyResult{
		Applied: true,
		Record: &models.Record{
			Domain:    "task",
			RecordID:  "t-1",
			Status:    "INPROGRESS",
			Version:   4,
			UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	s.Require().NoError(s.store.Put(ctx, "req-1", stored, time.Minute))

	got, err := s.store.Get(ctx, "req-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.True(got.Applied)
	s.Require().NotNil(got.Record)
	s.Equal("INPROGRESS", got.Record.Status)
	s.Equal(int64(4), got.Record.Version)
}

func (s *RedisStoreSuite) TestDeniedOutcomeRoundTrips() {
	ctx := context.Background()

	stored := &models.ApplyResult{Applied: false}
	stored.Validation.Allowed = false
	stored.Validation.Reason = "CLOSED → OPEN not allowed"
	s.Require().NoError(s.store.Put(ctx, "req-denied", stored, time.Minute))

	got, err := s.store.Get(ctx, "req-denied")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.False(got.Applied)
	s.Equal("CLOSED → OPEN not allowed", got.Validation.Reason)
}

func (s *RedisStoreSuite) TestEntriesExpire() {
	ctx := context.Background()

	s.Require().NoError(s.store.Put(ctx, "req-ttl", &models.ApplyResult{Applied: true}, time.Second))

	got, err := s.store.Get(ctx, "req-ttl")
	s.Require().NoError(err)
	s.NotNil(got, "entry within TTL must be readable")

	time.Sleep(1500 * time.Millisecond)

	got, err = s.store.Get(ctx, "req-ttl")
	s.Require().NoError(err)
	s.Nil(got, "entry past TTL must be gone")
}

func (s *RedisStoreSuite) TestPutOverwrites() {
	ctx := context.Background()

	s.Require().NoError(s.store.Put(ctx, "req-1", &models.ApplyResult{Applied: false}, time.Minute))
	s.Require().NoError(s.store.Put(ctx, "req-1", &models.ApplyResult{Applied: true}, time.Minute))

	got, err := s.store.Get(ctx, "req-1")
	s.Require().NoError(err)
	s.True(got.Applied)
}
