package services

import (
	"errors"
	"testing"
	"time"

	"immo-scraper/models"
	"immo-scraper/utils"
)

func newTestCleaner() *Cleaner {
	c := NewCleaner(utils.NewNopLogger())
	c.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestCleanerHouse(t *testing.T) {
	c := newTestCleaner()
	raw := &models.RawListing{
		Link:        "https://www.kermarrec-habitation.fr/achat/maison-vitre-1234/",
		Title:       "Maison 5 pièces, jardin",
		Price:       "285 000 €",
		City:        "VITRE (35500)",
		Surface:     "112,5 m²",
		Description: "  Belle   maison\nfamiliale  ",
		Photos:      []string{"/img/1.jpg", "/img/1.jpg", "", "https://cdn.example.fr/2.jpg"},
		Energy:      "D",
		Emission:    "12",
		Source:      "Kermarrec Habitation",
	}

	l, err := c.Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if l.PropertyType != models.TypeHouse {
		t.Errorf("PropertyType = %q; want %q", l.PropertyType, models.TypeHouse)
	}
	if l.City != CityVitre {
		t.Errorf("City = %q; want %q", l.City, CityVitre)
	}
	if l.Price != 285000 {
		t.Errorf("Price = %d; want 285000", l.Price)
	}
	if l.RoomCount == nil || *l.RoomCount != 5 {
		t.Errorf("RoomCount = %v; want 5", l.RoomCount)
	}
	if l.SurfaceArea == nil || *l.SurfaceArea != 112.5 {
		t.Errorf("SurfaceArea = %v; want 112.5", l.SurfaceArea)
	}
	if l.Description != "Belle maison familiale" {
		t.Errorf("Description = %q", l.Description)
	}
	wantPhotos := []string{"https://www.kermarrec-habitation.fr/img/1.jpg", "https://cdn.example.fr/2.jpg"}
	if len(l.Photos) != len(wantPhotos) || l.Photos[0] != wantPhotos[0] || l.Photos[1] != wantPhotos[1] {
		t.Errorf("Photos = %v; want %v", l.Photos, wantPhotos)
	}
	if l.EnergyRating != "D" || l.EmissionRating != "C" {
		t.Errorf("ratings = %q/%q; want D/C", l.EnergyRating, l.EmissionRating)
	}
	if l.SourceName != "Kermarrec Habitation" {
		t.Errorf("SourceName = %q", l.SourceName)
	}
}

func TestCleanerStructuredRoomsWin(t *testing.T) {
	c := newTestCleaner()
	l, err := c.Clean(&models.RawListing{
		Link: "https://a.fr/1", Type: "Maison", Title: "Maison 7 pièces",
		Price: "200000", City: "Vitré", Rooms: "4",
	})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if l.RoomCount == nil || *l.RoomCount != 4 {
		t.Errorf("RoomCount = %v; want 4", l.RoomCount)
	}

	l, err = c.Clean(&models.RawListing{
		Link: "https://a.fr/2", Type: "Maison", Price: "200000", City: "Vitré", Bedrooms: "3",
	})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if l.RoomCount == nil || *l.RoomCount != 4 {
		t.Errorf("RoomCount from bedrooms = %v; want 4", l.RoomCount)
	}
}

func TestCleanerBuildingUnits(t *testing.T) {
	c := newTestCleaner()
	l, err := c.Clean(&models.RawListing{
		Link:        "https://a.fr/immeuble",
		Type:        "Immeuble",
		Price:       "390 000 €",
		City:        "Châteaugiron",
		Description: "Immeuble comprenant deux T2 et un studio",
	})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !l.IsBuilding() {
		t.Fatalf("PropertyType = %q; want building", l.PropertyType)
	}
	if want := (models.UnitBreakdown{T1: 1, T2: 2}); l.Units != want {
		t.Errorf("Units = %+v; want %+v", l.Units, want)
	}
	if l.RoomCount != nil {
		t.Errorf("RoomCount = %d; want nil for a building", *l.RoomCount)
	}
}

func TestCleanerIncomplete(t *testing.T) {
	c := newTestCleaner()
	tests := []*models.RawListing{
		{Link: "https://a.fr/1", Title: "Maison", Price: "", City: "Vitré"},
		{Link: "https://a.fr/2", Title: "", Price: "100000", City: "Vitré"},
		{Link: "", Title: "Maison", Price: "100000", City: "Vitré"},
	}

	for _, raw := range tests {
		if _, err := c.Clean(raw); !errors.Is(err, ErrIncomplete) {
			t.Errorf("Clean(%+v) error = %v; want ErrIncomplete", raw, err)
		}
	}
}

func TestCleanerUnsupported(t *testing.T) {
	c := newTestCleaner()
	tests := []*models.RawListing{
		{Link: "https://a.fr/1", Title: "Maison", Price: "100000", City: "Rennes"},
		{Link: "https://a.fr/2", Title: "Appartement T3", Price: "100000", City: "Vitré"},
	}

	for _, raw := range tests {
		if _, err := c.Clean(raw); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Clean(%+v) error = %v; want ErrUnsupported", raw, err)
		}
	}
}

func TestCleanerTypeFallsBackToTitle(t *testing.T) {
	c := newTestCleaner()
	l, err := c.Clean(&models.RawListing{
		Link: "https://a.fr/1", Type: "Vente", Title: "Villa contemporaine",
		Price: "399000", City: "vitre",
	})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if l.PropertyType != models.TypeHouse {
		t.Errorf("PropertyType = %q; want %q", l.PropertyType, models.TypeHouse)
	}
}
