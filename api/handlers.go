package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"immo-scraper/scraper"
)

// response is the body of the health and trigger endpoints.
type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Status: "ok", Message: "Scraper API en ligne"})
}

// handleRunScrapers starts a scan of ?scraper=<name>, or of every source
// when the name is missing or unknown. Failures other than a running scan
// answer 200 with status "error", which existing callers rely on.
func (s *Server) handleRunScrapers(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("scraper")

	trigger, err := s.scanner.Start(name)
	switch {
	case errors.Is(err, scraper.ErrAlreadyRunning):
		writeJSON(w, http.StatusConflict, response{
			Status:  "already_running",
			Message: "Un scraping est déjà en cours. Réessayez plus tard.",
		})
		return
	case err != nil:
		s.logger.Error("[api] /run-scrapers: %v", err)
		writeJSON(w, http.StatusOK, response{Status: "error", Message: err.Error()})
		return
	}

	s.logger.Info("[api] Scan %s started for %d source(s)", trigger.RunID, len(trigger.Sources))
	writeJSON(w, http.StatusOK, response{
		Status:  "started",
		Message: fmt.Sprintf("Scrapers démarrés en arrière-plan (séquentiel) : %d source(s).", len(trigger.Sources)),
		RunID:   trigger.RunID,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scanner.Status())
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	reader, err := s.open(r.Context())
	if err != nil {
		s.logger.Error("[api] /scans: %v", err)
		writeJSON(w, http.StatusOK, response{Status: "error", Message: err.Error()})
		return
	}
	defer reader.Close()

	scans, err := reader.ListScans(r.Context())
	if err != nil {
		s.logger.Error("[api] /scans: %v", err)
		writeJSON(w, http.StatusOK, response{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	reader, err := s.open(r.Context())
	if err != nil {
		s.logger.Error("[api] /insights: %v", err)
		writeJSON(w, http.StatusOK, response{Status: "error", Message: err.Error()})
		return
	}
	defer reader.Close()

	listings, err := reader.FetchAll(r.Context())
	if err != nil {
		s.logger.Error("[api] /insights: %v", err)
		writeJSON(w, http.StatusOK, response{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.insights.Generate(listings))
}

// recoverer turns a handler panic into the usual error body.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("[api] panic on %s: %v", r.URL.Path, rec)
				writeJSON(w, http.StatusOK, response{Status: "error", Message: fmt.Sprint(rec)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("[api] %s %s (%v)", r.Method, r.URL.RequestURI(), time.Since(start).Round(time.Millisecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
