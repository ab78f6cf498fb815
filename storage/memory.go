package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"immo-scraper/models"
)

// MemoryStore keeps everything in process. It backs dry runs and tests and
// follows the same semantics as PostgresStore.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	listings map[string]*models.Listing
	errors   []*models.ErrorRecord
	scans    map[string]*models.ScanRecord
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]*models.Listing),
		scans:    make(map[string]*models.ScanRecord),
		now:      time.Now,
	}
}

// SetClock replaces the time source; tests use it to control timestamps.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) Upsert(_ context.Context, l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *l
	cp.Photos = append([]string(nil), l.Photos...)
	cp.LastScraped = m.now()

	if prev, ok := m.listings[l.Link]; ok {
		cp.ID = prev.ID
		cp.CreatedAt = prev.CreatedAt
	} else {
		m.nextID++
		cp.ID = m.nextID
		cp.CreatedAt = cp.LastScraped
	}
	m.listings[l.Link] = &cp
	return nil
}

func (m *MemoryStore) DeleteMissing(_ context.Context, source string, links []string) (int64, error) {
	if len(links) == 0 {
		return 0, nil
	}

	keep := make(map[string]struct{}, len(links))
	for _, l := range links {
		keep[l] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for link, l := range m.listings {
		if l.SourceName != source {
			continue
		}
		if _, ok := keep[link]; !ok {
			delete(m.listings, link)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) RecordError(_ context.Context, source, url, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors = append(m.errors, &models.ErrorRecord{
		ID:         int64(len(m.errors) + 1),
		SourceName: source,
		URL:        url,
		Message:    message,
		CreatedAt:  m.now(),
	})
	return nil
}

func (m *MemoryStore) RecordScan(_ context.Context, source string, start time.Time, status string) (*models.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := source == models.AllSources
	rec := &models.ScanRecord{SourceName: source, Status: status}
	for _, l := range m.listings {
		if (all || l.SourceName == source) && !l.LastScraped.Before(start) {
			rec.ListingsCount++
		}
	}
	for _, e := range m.errors {
		if (all || e.SourceName == source) && !e.CreatedAt.Before(start) {
			rec.ErrorsCount++
		}
	}
	rec.LastScan = m.now()
	rec.DurationMs = rec.LastScan.Sub(start).Milliseconds()

	m.scans[source] = rec
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) FetchAll(_ context.Context) ([]*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ListScans(_ context.Context) ([]*models.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ScanRecord, 0, len(m.scans))
	for _, s := range m.scans {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceName < out[j].SourceName })
	return out, nil
}

// Listings returns the stored listings of source.
func (m *MemoryStore) Listings(source string) []*models.Listing {
	all, _ := m.FetchAll(context.Background())
	out := all[:0]
	for _, l := range all {
		if l.SourceName == source {
			out = append(out, l)
		}
	}
	return out
}

// Errors returns every recorded error, oldest first.
func (m *MemoryStore) Errors() []*models.ErrorRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*models.ErrorRecord(nil), m.errors...)
}

// Scan returns the stored scan record of source, or nil.
func (m *MemoryStore) Scan(source string) *models.ScanRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.scans[source]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// Close is a no-op; a MemoryStore survives across scans.
func (m *MemoryStore) Close() error { return nil }
