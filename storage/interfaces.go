package storage

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"immo-scraper/models"
)

// Store is the write side used by a scan: listings, error records and scan records.
type Store interface {
	// Upsert inserts l or, when its link exists, updates every mutable field
	// and bumps last_scraped. created_at is never touched.
	Upsert(ctx context.Context, l *models.Listing) error
	// DeleteMissing removes listings of source whose link is not in links.
	// An empty links slice deletes nothing.
	DeleteMissing(ctx context.Context, source string, links []string) (int64, error)
	RecordError(ctx context.Context, source, url, message string) error
	// RecordScan counts listings and errors recorded since start for source
	// (every source for models.AllSources) and stores the scan outcome.
	RecordScan(ctx context.Context, source string, start time.Time, status string) (*models.ScanRecord, error)
	Close() error
}

// Reader is the read side used by the HTTP surface and the CLI.
type Reader interface {
	FetchAll(ctx context.Context) ([]*models.Listing, error)
	ListScans(ctx context.Context) ([]*models.ScanRecord, error)
	Close() error
}

// RawListingWriter persists unprocessed field bags for auditing.
type RawListingWriter interface {
	WriteRaw(l *models.RawListing) error
	Close() error
}
