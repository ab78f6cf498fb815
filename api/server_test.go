package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"immo-scraper/config"
	"immo-scraper/metrics"
	"immo-scraper/models"
	"immo-scraper/scraper"
	"immo-scraper/storage"
	"immo-scraper/storage/mocks"
	"immo-scraper/utils"
)

type fakeScanner struct {
	err     error
	panics  bool
	started []string
	status  scraper.StatusReport
}

func (f *fakeScanner) Start(name string) (*scraper.Trigger, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	f.started = append(f.started, name)
	return &scraper.Trigger{RunID: "run-1", Sources: []string{"Bien'ici"}}, nil
}

func (f *fakeScanner) Status() scraper.StatusReport { return f.status }

func memoryOpener(store *storage.MemoryStore) ReaderOpener {
	return func(context.Context) (storage.Reader, error) { return store, nil }
}

func serve(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
	}
	return rec, body
}

func newTestServer(scanner Scanner, store *storage.MemoryStore) *Server {
	return NewServer(scanner, memoryOpener(store), metrics.New(), utils.NewNopLogger())
}

func TestHealth(t *testing.T) {
	rec, body := serve(t, newTestServer(&fakeScanner{}, storage.NewMemoryStore()), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRunScrapersStarted(t *testing.T) {
	scanner := &fakeScanner{}
	rec, body := serve(t, newTestServer(scanner, storage.NewMemoryStore()), "/run-scrapers?scraper=bienici")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "started", body["status"])
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, []string{"bienici"}, scanner.started)
}

func TestRunScrapersAlreadyRunning(t *testing.T) {
	scanner := &fakeScanner{err: scraper.ErrAlreadyRunning}
	rec, body := serve(t, newTestServer(scanner, storage.NewMemoryStore()), "/run-scrapers")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_running", body["status"])
}

func TestRunScrapersErrorIsOK(t *testing.T) {
	scanner := &fakeScanner{err: config.ErrMissingDatabaseURL}
	rec, body := serve(t, newTestServer(scanner, storage.NewMemoryStore()), "/run-scrapers")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "DATABASE_URL")
}

func TestPanicIsRecovered(t *testing.T) {
	rec, body := serve(t, newTestServer(&fakeScanner{panics: true}, storage.NewMemoryStore()), "/run-scrapers")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "boom", body["message"])
}

func TestStatus(t *testing.T) {
	scanner := &fakeScanner{status: scraper.StatusReport{Status: "running", RunID: "run-1", Sources: []string{"Century 21"}}}
	rec, body := serve(t, newTestServer(scanner, storage.NewMemoryStore()), "/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, []any{"Century 21"}, body["sources"])
}

func TestScansAndInsights(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, &models.Listing{
		Link: "https://a.fr/1", PropertyType: models.TypeHouse, Price: 200000, City: "Vitré", SourceName: "Bien'ici",
	}))
	require.NoError(t, store.Upsert(ctx, &models.Listing{
		Link: "https://a.fr/2", PropertyType: models.TypeBuilding, Price: 300000, City: "Châteaugiron", SourceName: "Bien'ici",
	}))
	_, err := store.RecordScan(ctx, "Bien'ici", store.Listings("Bien'ici")[0].CreatedAt, models.ScanSuccess)
	require.NoError(t, err)

	s := newTestServer(&fakeScanner{}, store)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var scans []models.ScanRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scans))
	require.Len(t, scans, 1)
	assert.Equal(t, "Bien'ici", scans[0].SourceName)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/insights", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var report models.InsightReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.TotalListings)
	assert.Equal(t, 1, report.Houses)
	assert.Equal(t, 1, report.Buildings)
}

func TestScansStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockReader(ctrl)
	reader.EXPECT().ListScans(gomock.Any()).Return(nil, errors.New("relation \"scans\" does not exist"))
	reader.EXPECT().Close().Return(nil)

	s := NewServer(&fakeScanner{}, func(context.Context) (storage.Reader, error) { return reader, nil },
		nil, utils.NewNopLogger())
	rec, body := serve(t, s, "/scans")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ScanFinished("Bien'ici", models.ScanSuccess, 0)
	s := NewServer(&fakeScanner{}, memoryOpener(storage.NewMemoryStore()), m, utils.NewNopLogger())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "immo_scraper_scans_total")
}
