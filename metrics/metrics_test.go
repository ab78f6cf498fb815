package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New()
	m.Page("Diard", "detail", "ok")
	m.Page("Diard", "detail", "ok")
	m.Upserted("Diard")
	m.Pruned("Diard", 3)
	m.Pruned("Diard", 0)
	m.ScanFinished("Diard", "success", 2*time.Second)
	m.SetRunning(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesTotal.WithLabelValues("Diard", "detail", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingsUpserted.WithLabelValues("Diard")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ListingsPruned.WithLabelValues("Diard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("Diard", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScanRunning))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Page("x", "list", "ok")
	m.Upserted("x")
	m.Pruned("x", 1)
	m.ScanFinished("x", "failed", time.Second)
	m.SetRunning(true)
	assert.Nil(t, m.Registry())
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.Upserted("Century 21")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `immo_scraper_listings_upserted_total{source="Century 21"} 1`))
}
