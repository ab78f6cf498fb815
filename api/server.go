// Package api exposes the scan trigger and read-only views over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"immo-scraper/metrics"
	"immo-scraper/scraper"
	"immo-scraper/services"
	"immo-scraper/storage"
	"immo-scraper/utils"
)

// Scanner starts background scans and reports on them.
type Scanner interface {
	Start(name string) (*scraper.Trigger, error)
	Status() scraper.StatusReport
}

// ReaderOpener opens the store for a read-only request.
type ReaderOpener func(ctx context.Context) (storage.Reader, error)

// Server exposes scan triggering and the stored results over HTTP.
type Server struct {
	router   *mux.Router
	scanner  Scanner
	open     ReaderOpener
	insights *services.InsightService
	metrics  *metrics.Metrics
	logger   *utils.Logger
}

// NewServer builds the router. open is called per request for the read
// endpoints; the store it returns is closed when the request is done.
func NewServer(scanner Scanner, open ReaderOpener, m *metrics.Metrics, logger *utils.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		scanner:  scanner,
		open:     open,
		insights: services.NewInsightService(logger),
		metrics:  m,
		logger:   logger,
	}

	s.router.Use(s.recoverer, s.logRequests)
	s.router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/run-scrapers", s.handleRunScrapers).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/scans", s.handleScans).Methods(http.MethodGet)
	s.router.HandleFunc("/insights", s.handleInsights).Methods(http.MethodGet)
	s.router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	return s
}

// Handler returns the routed handler, for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[api] Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("[api] Shutting down")
	return srv.Shutdown(shutdownCtx)
}
