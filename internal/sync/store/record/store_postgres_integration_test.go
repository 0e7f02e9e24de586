//go:build integration

package record_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"syncgate/internal/sync/models"
	"syncgate/internal/sync/store/record"
	"syncgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *record.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = record.NewPostgres(s.postgres.Pool)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "sync_records"))
}

func (s *PostgresStoreSuite) TestGetMissingIsNilNil() {
	got, err := s.store.Get(context.Background(), "task", "missing")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *PostgresStoreSuite) TestUpsertAndGetRoundTrip() {
	ctx := context.Background()
	updatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := s.store.Upsert(ctx, &models.Record{
		Domain:    "task",
		RecordID:  "t-1",
		Status:    "ASSIGNED",
		Version:   3,
		UpdatedAt: updatedAt,
	})
	s.Require().NoError(err)

	got, err := s.store.Get(ctx, "task", "t-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("task", got.Domain)
	s.Equal("t-1", got.RecordID)
	s.Equal("ASSIGNED", got.Status)
	s.Equal(int64(3), got.Version)
	s.True(got.UpdatedAt.Equal(updatedAt), "timestamps must round-trip: got %v", got.UpdatedAt)
}

func (s *PostgresStoreSuite) TestUpsertReplacesExistingRow() {
	ctx := context.Background()

	s.Require().NoError(s.store.Upsert(ctx, &models.Record{
		Domain: "task", RecordID: "t-1", Status: "ASSIGNED", Version: 1, UpdatedAt: time.Now(),
	}))
	s.Require().NoError(s.store.Upsert(ctx, &models.Record{
		Domain: "task", RecordID: "t-1", Status: "INPROGRESS", Version: 2, UpdatedAt: time.Now(),
	}))

	got, err := s.store.Get(ctx, "task", "t-1")
	s.Require().NoError(err)
	s.Equal("INPROGRESS", got.Status)
	s.Equal(int64(2), got.Version)
}

func (s *PostgresStoreSuite) TestListIsScopedAndOrdered() {
	ctx := context.Background()

	for _, r := range []*models.Record{
		{Domain: "task", RecordID: "t-2", Status: "ASSIGNED", Version: 1, UpdatedAt: time.Now()},
		{Domain: "task", RecordID: "t-1", Status: "INPROGRESS", Version: 2, UpdatedAt: time.Now()},
		{Domain: "ticket", RecordID: "tk-1", Status: "NEW", Version: 1, UpdatedAt: time.Now()},
	} {
		s.Require().NoError(s.store.Upsert(ctx, r))
	}

	got, err := s.store.List(ctx, "task")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("t-1", got[0].RecordID)
	s.Equal("t-2", got[1].RecordID)

	empty, err := s.store.List(ctx, "unknown")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *PostgresStoreSuite) TestConcurrentUpsertsDistinctRecords() {
	ctx := context.Background()
	const writers = 20

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- s.store.Upsert(ctx, &models.Record{
				Domain:    "task",
				RecordID:  fmt.Sprintf("t-%02d", n),
				Status:    "ASSIGNED",
				Version:   1,
				UpdatedAt: time.Now(),
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	got, err := s.store.List(ctx, "task")
	s.Require().NoError(err)
	s.Len(got, writers)
}
