package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"immo-scraper/models"
)

var rawHeader = []string{
	"source", "link", "title", "type", "price", "city", "rooms", "bedrooms",
	"surface", "energy", "emission", "photos", "description", "scraped_at",
}

// CSVWriter appends raw (uncleaned) field bags to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens the CSV file at path for appending and writes the header
// row when the file is new. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(rawHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends one raw listing.
func (c *CSVWriter) WriteRaw(l *models.RawListing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := []string{
		l.Source,
		l.Link,
		l.Title,
		l.Type,
		l.Price,
		l.City,
		l.Rooms,
		l.Bedrooms,
		l.Surface,
		l.Energy,
		l.Emission,
		strings.Join(l.Photos, " "),
		l.Description,
		l.ScrapedAt.Format(time.RFC3339),
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
