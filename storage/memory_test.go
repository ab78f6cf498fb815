package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immo-scraper/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestMemoryStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.SetClock(clock.now)

	require.NoError(t, s.Upsert(ctx, &models.Listing{Link: "https://a.fr/1", Price: 100000, SourceName: "Diard"}))
	first := s.Listings("Diard")[0]

	clock.advance(time.Hour)
	require.NoError(t, s.Upsert(ctx, &models.Listing{Link: "https://a.fr/1", Price: 95000, SourceName: "Diard"}))

	got := s.Listings("Diard")
	require.Len(t, got, 1)
	assert.Equal(t, int64(95000), got[0].Price)
	assert.Equal(t, first.CreatedAt, got[0].CreatedAt)
	assert.True(t, got[0].LastScraped.After(first.LastScraped))
	assert.Equal(t, first.ID, got[0].ID)
}

func TestMemoryStoreDeleteMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, l := range []*models.Listing{
		{Link: "https://a.fr/1", SourceName: "Diard"},
		{Link: "https://a.fr/2", SourceName: "Diard"},
		{Link: "https://b.fr/1", SourceName: "Carnot"},
	} {
		require.NoError(t, s.Upsert(ctx, l))
	}

	n, err := s.DeleteMissing(ctx, "Diard", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, s.Listings("Diard"), 2)

	n, err = s.DeleteMissing(ctx, "Diard", []string{"https://a.fr/2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, s.Listings("Diard"), 1)
	assert.Len(t, s.Listings("Carnot"), 1)
}

func TestMemoryStoreRecordScan(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.SetClock(clock.now)

	require.NoError(t, s.Upsert(ctx, &models.Listing{Link: "https://old.fr/1", SourceName: "Diard"}))
	clock.advance(time.Minute)
	start := clock.t

	require.NoError(t, s.Upsert(ctx, &models.Listing{Link: "https://a.fr/1", SourceName: "Diard"}))
	require.NoError(t, s.Upsert(ctx, &models.Listing{Link: "https://b.fr/1", SourceName: "Carnot"}))
	require.NoError(t, s.RecordError(ctx, "Diard", "https://a.fr/broken", "Données incomplètes"))
	clock.advance(1500 * time.Millisecond)

	rec, err := s.RecordScan(ctx, "Diard", start, models.ScanSuccess)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ListingsCount)
	assert.Equal(t, 1, rec.ErrorsCount)
	assert.Equal(t, int64(1500), rec.DurationMs)

	all, err := s.RecordScan(ctx, models.AllSources, start, models.ScanSuccess)
	require.NoError(t, err)
	assert.Equal(t, 2, all.ListingsCount)

	scans, err := s.ListScans(ctx)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, models.AllSources, scans[0].SourceName)
}
