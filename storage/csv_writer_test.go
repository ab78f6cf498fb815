package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immo-scraper/models"
)

func TestCSVWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "raw.csv")
	raw := &models.RawListing{
		Source: "Diard", Link: "https://a.fr/1", Title: "Maison", Price: "200 000 €",
		Photos: []string{"p1.jpg", "p2.jpg"}, ScrapedAt: time.Now(),
	}

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRaw(raw))
	require.NoError(t, w.Close())

	// reopening must not repeat the header
	w, err = NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRaw(raw))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, rawHeader, records[0])
	assert.Equal(t, "Diard", records[1][0])
	assert.Equal(t, "p1.jpg p2.jpg", records[2][11])
}
