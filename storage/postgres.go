package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"immo-scraper/models"
	"immo-scraper/utils"
)

// PostgresStore persists listings, scrape errors and scan records to PostgreSQL.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := NewPostgresStoreFromDB(db)
	if err := ps.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

// NewPostgresStoreFromDB wraps an already opened database without migrating it.
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate creates the tables when they do not exist yet.
func (ps *PostgresStore) Migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id              BIGSERIAL PRIMARY KEY,
			link            TEXT UNIQUE NOT NULL,
			property_type   VARCHAR(20)  NOT NULL,
			price           BIGINT       NOT NULL DEFAULT 0,
			city            VARCHAR(100) NOT NULL DEFAULT '',
			room_count      INTEGER,
			surface_area    DOUBLE PRECISION,
			description     TEXT         NOT NULL DEFAULT '',
			photos          JSONB        NOT NULL DEFAULT '[]',
			source_name     VARCHAR(100) NOT NULL,
			energy_rating   VARCHAR(1)   NOT NULL DEFAULT '',
			emission_rating VARCHAR(1)   NOT NULL DEFAULT '',
			t1              INTEGER      NOT NULL DEFAULT 0,
			t2              INTEGER      NOT NULL DEFAULT 0,
			t3              INTEGER      NOT NULL DEFAULT 0,
			t4              INTEGER      NOT NULL DEFAULT 0,
			t5              INTEGER      NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			last_scraped    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_source       ON listings(source_name);
		CREATE INDEX IF NOT EXISTS idx_listings_city         ON listings(city);
		CREATE INDEX IF NOT EXISTS idx_listings_last_scraped ON listings(last_scraped);

		CREATE TABLE IF NOT EXISTS scrape_errors (
			id          BIGSERIAL PRIMARY KEY,
			source_name VARCHAR(100) NOT NULL,
			url         TEXT         NOT NULL,
			message     TEXT         NOT NULL,
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_scrape_errors_source ON scrape_errors(source_name, created_at);

		CREATE TABLE IF NOT EXISTS scans (
			source_name    VARCHAR(100) PRIMARY KEY,
			status         VARCHAR(20)  NOT NULL,
			listings_count INTEGER      NOT NULL DEFAULT 0,
			errors_count   INTEGER      NOT NULL DEFAULT 0,
			duration_ms    BIGINT       NOT NULL DEFAULT 0,
			last_scan      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

const upsertListingSQL = `
	INSERT INTO listings (
		link, property_type, price, city, room_count, surface_area, description, photos,
		source_name, energy_rating, emission_rating, t1, t2, t3, t4, t5, created_at, last_scraped
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
	ON CONFLICT (link) DO UPDATE SET
		property_type   = EXCLUDED.property_type,
		price           = EXCLUDED.price,
		city            = EXCLUDED.city,
		room_count      = EXCLUDED.room_count,
		surface_area    = EXCLUDED.surface_area,
		description     = EXCLUDED.description,
		photos          = EXCLUDED.photos,
		source_name     = EXCLUDED.source_name,
		energy_rating   = EXCLUDED.energy_rating,
		emission_rating = EXCLUDED.emission_rating,
		t1              = EXCLUDED.t1,
		t2              = EXCLUDED.t2,
		t3              = EXCLUDED.t3,
		t4              = EXCLUDED.t4,
		t5              = EXCLUDED.t5,
		last_scraped    = EXCLUDED.last_scraped
`

// Upsert inserts or updates one listing keyed by its link.
func (ps *PostgresStore) Upsert(ctx context.Context, l *models.Listing) error {
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	photosJSON, err := json.Marshal(photos)
	if err != nil {
		return fmt.Errorf("postgres: encode photos: %w", err)
	}

	_, err = ps.db.ExecContext(ctx, upsertListingSQL,
		l.Link, l.PropertyType, l.Price, l.City, nullInt(l.RoomCount), nullFloat(l.SurfaceArea),
		l.Description, string(photosJSON), l.SourceName, l.EnergyRating, l.EmissionRating,
		l.Units.T1, l.Units.T2, l.Units.T3, l.Units.T4, l.Units.T5, ps.now(),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert %s: %w", l.Link, err)
	}
	return nil
}

// DeleteMissing prunes listings of source that were not seen in the current run.
func (ps *PostgresStore) DeleteMissing(ctx context.Context, source string, links []string) (int64, error) {
	if len(links) == 0 {
		return 0, nil
	}

	res, err := ps.db.ExecContext(ctx,
		`DELETE FROM listings WHERE source_name = $1 AND link <> ALL($2)`,
		source, pq.Array(links))
	if err != nil {
		return 0, fmt.Errorf("postgres: delete missing for %s: %w", source, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: delete missing rows affected: %w", err)
	}
	return n, nil
}

func (ps *PostgresStore) RecordError(ctx context.Context, source, url, message string) error {
	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO scrape_errors (source_name, url, message, created_at) VALUES ($1, $2, $3, $4)`,
		source, url, message, ps.now())
	if err != nil {
		return fmt.Errorf("postgres: record error: %w", err)
	}
	return nil
}

func (ps *PostgresStore) RecordScan(ctx context.Context, source string, start time.Time, status string) (*models.ScanRecord, error) {
	listingsQuery := `SELECT COUNT(*) FROM listings WHERE last_scraped >= $1 AND source_name = $2`
	errorsQuery := `SELECT COUNT(*) FROM scrape_errors WHERE created_at >= $1 AND source_name = $2`
	args := []any{start, source}
	if source == models.AllSources {
		listingsQuery = `SELECT COUNT(*) FROM listings WHERE last_scraped >= $1`
		errorsQuery = `SELECT COUNT(*) FROM scrape_errors WHERE created_at >= $1`
		args = args[:1]
	}

	rec := &models.ScanRecord{SourceName: source, Status: status}
	if err := ps.db.GetContext(ctx, &rec.ListingsCount, listingsQuery, args...); err != nil {
		return nil, fmt.Errorf("postgres: count listings: %w", err)
	}
	if err := ps.db.GetContext(ctx, &rec.ErrorsCount, errorsQuery, args...); err != nil {
		return nil, fmt.Errorf("postgres: count errors: %w", err)
	}

	rec.LastScan = ps.now()
	rec.DurationMs = rec.LastScan.Sub(start).Milliseconds()

	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO scans (source_name, status, listings_count, errors_count, duration_ms, last_scan)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_name) DO UPDATE SET
			status         = EXCLUDED.status,
			listings_count = EXCLUDED.listings_count,
			errors_count   = EXCLUDED.errors_count,
			duration_ms    = EXCLUDED.duration_ms,
			last_scan      = EXCLUDED.last_scan
	`, rec.SourceName, rec.Status, rec.ListingsCount, rec.ErrorsCount, rec.DurationMs, rec.LastScan)
	if err != nil {
		return nil, fmt.Errorf("postgres: record scan: %w", err)
	}
	return rec, nil
}

// listingRow adds the columns that do not map one to one onto models.Listing.
type listingRow struct {
	models.Listing
	PhotosJSON []byte `db:"photos"`
	T1         int    `db:"t1"`
	T2         int    `db:"t2"`
	T3         int    `db:"t3"`
	T4         int    `db:"t4"`
	T5         int    `db:"t5"`
}

// FetchAll retrieves all stored listings, used by the insight service.
func (ps *PostgresStore) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	var rows []listingRow
	err := ps.db.SelectContext(ctx, &rows, `
		SELECT id, link, property_type, price, city, room_count, surface_area, description, photos,
		       source_name, energy_rating, emission_rating, t1, t2, t3, t4, t5, created_at, last_scraped
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}

	listings := make([]*models.Listing, 0, len(rows))
	for i := range rows {
		l := rows[i].Listing
		l.Units = models.UnitBreakdown{T1: rows[i].T1, T2: rows[i].T2, T3: rows[i].T3, T4: rows[i].T4, T5: rows[i].T5}
		if len(rows[i].PhotosJSON) > 0 {
			if err := json.Unmarshal(rows[i].PhotosJSON, &l.Photos); err != nil {
				return nil, fmt.Errorf("postgres: decode photos of %s: %w", l.Link, err)
			}
		}
		listings = append(listings, &l)
	}
	return listings, nil
}

func (ps *PostgresStore) ListScans(ctx context.Context) ([]*models.ScanRecord, error) {
	var scans []*models.ScanRecord
	err := ps.db.SelectContext(ctx, &scans, `
		SELECT source_name, status, listings_count, errors_count, duration_ms, last_scan
		FROM scans
		ORDER BY source_name
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list scans: %w", err)
	}
	return scans, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
