package models

import "time"

const (
	TypeHouse    = "Maison"
	TypeBuilding = "Immeuble"
)

// RawListing holds the unprocessed field bag pulled off a detail page.
// Every value is the text as the site renders it; the cleaner decides what it means.
type RawListing struct {
	Link        string
	Title       string
	Type        string
	Price       string
	City        string
	Rooms       string
	Bedrooms    string
	Surface     string
	Description string
	Photos      []string
	Energy      string
	Emission    string
	Source      string
	ScrapedAt   time.Time
}

// UnitBreakdown counts apartments per size class inside a building.
// T5 also holds T6 and larger.
type UnitBreakdown struct {
	T1 int `json:"t1" db:"t1"`
	T2 int `json:"t2" db:"t2"`
	T3 int `json:"t3" db:"t3"`
	T4 int `json:"t4" db:"t4"`
	T5 int `json:"t5" db:"t5"`
}

// Add increments the class for size n (1 for studio/T1, 6+ folds into T5).
func (u *UnitBreakdown) Add(size, qty int) {
	switch {
	case size <= 1:
		u.T1 += qty
	case size == 2:
		u.T2 += qty
	case size == 3:
		u.T3 += qty
	case size == 4:
		u.T4 += qty
	default:
		u.T5 += qty
	}
}

// Total returns the number of units across every class.
func (u UnitBreakdown) Total() int {
	return u.T1 + u.T2 + u.T3 + u.T4 + u.T5
}

// Listing is the canonical, normalized record stored per link.
type Listing struct {
	ID             int64         `json:"id" db:"id"`
	Link           string        `json:"link" db:"link"`
	PropertyType   string        `json:"property_type" db:"property_type"`
	Price          int64         `json:"price" db:"price"`
	City           string        `json:"city" db:"city"`
	RoomCount      *int          `json:"room_count,omitempty" db:"room_count"`
	SurfaceArea    *float64      `json:"surface_area,omitempty" db:"surface_area"`
	Description    string        `json:"description" db:"description"`
	Photos         []string      `json:"photos" db:"-"`
	SourceName     string        `json:"source_name" db:"source_name"`
	EnergyRating   string        `json:"energy_rating,omitempty" db:"energy_rating"`
	EmissionRating string        `json:"emission_rating,omitempty" db:"emission_rating"`
	Units          UnitBreakdown `json:"units" db:"-"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	LastScraped    time.Time     `json:"last_scraped" db:"last_scraped"`
}

// IsBuilding reports whether the listing is a multi-unit building.
func (l *Listing) IsBuilding() bool {
	return l.PropertyType == TypeBuilding
}

// ErrorRecord is one append-only scrape failure.
type ErrorRecord struct {
	ID         int64     `json:"id" db:"id"`
	SourceName string    `json:"source_name" db:"source_name"`
	URL        string    `json:"url" db:"url"`
	Message    string    `json:"message" db:"message"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

const (
	ScanSuccess = "success"
	ScanPartial = "partial"
	ScanFailed  = "failed"

	// AllSources is the source name of the aggregate scan record.
	AllSources = "All"
)

// ScanRecord is the latest scan result of one source (or of AllSources).
type ScanRecord struct {
	SourceName    string    `json:"source_name" db:"source_name"`
	Status        string    `json:"status" db:"status"`
	ListingsCount int       `json:"listings_count" db:"listings_count"`
	ErrorsCount   int       `json:"errors_count" db:"errors_count"`
	DurationMs    int64     `json:"duration_ms" db:"duration_ms"`
	LastScan      time.Time `json:"last_scan" db:"last_scan"`
}

// InsightReport holds analytics computed over stored listings.
type InsightReport struct {
	TotalListings     int            `json:"total_listings"`
	Houses            int            `json:"houses"`
	Buildings         int            `json:"buildings"`
	AveragePrice      float64        `json:"average_price"`
	MinPrice          int64          `json:"min_price"`
	MaxPrice          int64          `json:"max_price"`
	AveragePricePerM2 float64        `json:"average_price_per_m2"`
	MostExpensive     *Listing       `json:"most_expensive,omitempty"`
	Cheapest          []*Listing     `json:"cheapest"`
	ListingsByCity    map[string]int `json:"listings_by_city"`
	ListingsBySource  map[string]int `json:"listings_by_source"`
	UnitsTotal        UnitBreakdown  `json:"units_total"`
}
