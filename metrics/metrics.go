// Package metrics exposes Prometheus collectors for scans and crawled pages.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "immo_scraper"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal       *prometheus.CounterVec
	ScanDuration     *prometheus.HistogramVec
	ScanRunning      prometheus.Gauge
	PagesTotal       *prometheus.CounterVec
	ListingsUpserted *prometheus.CounterVec
	ListingsPruned   *prometheus.CounterVec
}

// New creates the collectors on a dedicated registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Finished source scans by outcome",
		}, []string{"source", "status"}),
		ScanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of source scans",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 2400},
		}, []string{"source"}),
		ScanRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_running",
			Help:      "1 while a scan is in flight",
		}),
		PagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Crawled pages by type and outcome",
		}, []string{"source", "type", "outcome"}),
		ListingsUpserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_upserted_total",
			Help:      "Listings written to the store",
		}, []string{"source"}),
		ListingsPruned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_pruned_total",
			Help:      "Listings removed because they disappeared from their source",
		}, []string{"source"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Page(source, pageType, outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(source, pageType, outcome).Inc()
}

func (m *Metrics) Upserted(source string) {
	if m == nil {
		return
	}
	m.ListingsUpserted.WithLabelValues(source).Inc()
}

func (m *Metrics) Pruned(source string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ListingsPruned.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) ScanFinished(source, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(source, status).Inc()
	m.ScanDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.ScanRunning.Set(1)
		return
	}
	m.ScanRunning.Set(0)
}
