//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"immo-scraper/models"
	"immo-scraper/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	store     *PostgresStore
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("immo_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	store, err := NewPostgresStore(s.ctx, connStr, utils.NewNopLogger())
	s.Require().NoError(err)
	s.store = store
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.store.db.ExecContext(s.ctx, "DELETE FROM listings")
	_, _ = s.store.db.ExecContext(s.ctx, "DELETE FROM scrape_errors")
	_, _ = s.store.db.ExecContext(s.ctx, "DELETE FROM scans")
}

func (s *PostgresIntegrationSuite) TestUpsertTwiceKeepsOneRow() {
	rooms := 4
	l := &models.Listing{
		Link: "https://a.fr/1", PropertyType: models.TypeHouse, Price: 200000, City: "Vitré",
		RoomCount: &rooms, SourceName: "Diard", Photos: []string{"https://a.fr/p.jpg"},
	}
	s.Require().NoError(s.store.Upsert(s.ctx, l))

	first, err := s.store.FetchAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(first, 1)

	time.Sleep(10 * time.Millisecond)
	l.Price = 189000
	l.RoomCount = nil
	s.Require().NoError(s.store.Upsert(s.ctx, l))

	second, err := s.store.FetchAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(second, 1)
	s.Equal(int64(189000), second[0].Price)
	s.Nil(second[0].RoomCount)
	s.True(first[0].CreatedAt.Equal(second[0].CreatedAt))
	s.True(second[0].LastScraped.After(first[0].LastScraped))
	s.Equal([]string{"https://a.fr/p.jpg"}, second[0].Photos)
}

func (s *PostgresIntegrationSuite) TestDeleteMissingAndScanRecord() {
	start := time.Now().Add(-time.Second)
	for _, link := range []string{"https://a.fr/1", "https://a.fr/2", "https://a.fr/3"} {
		s.Require().NoError(s.store.Upsert(s.ctx, &models.Listing{
			Link: link, PropertyType: models.TypeHouse, Price: 1, City: "Vitré", SourceName: "Diard",
		}))
	}
	s.Require().NoError(s.store.RecordError(s.ctx, "Diard", "https://a.fr/4", "Données incomplètes"))

	n, err := s.store.DeleteMissing(s.ctx, "Diard", []string{})
	s.Require().NoError(err)
	s.Zero(n)

	n, err = s.store.DeleteMissing(s.ctx, "Diard", []string{"https://a.fr/1"})
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	rec, err := s.store.RecordScan(s.ctx, "Diard", start, models.ScanSuccess)
	s.Require().NoError(err)
	s.Equal(1, rec.ListingsCount)
	s.Equal(1, rec.ErrorsCount)

	scans, err := s.store.ListScans(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(scans, 1)
	s.Equal(models.ScanSuccess, scans[0].Status)
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}
