package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"immo-scraper/models"
	"immo-scraper/utils"
)

var (
	// ErrIncomplete marks a detail page missing its type/title or price.
	ErrIncomplete = errors.New("Données incomplètes")
	// ErrUnsupported marks a listing outside the supported cities or types.
	ErrUnsupported = errors.New("unsupported listing")
)

// Cleaner turns the raw field bag of a detail page into a canonical Listing.
type Cleaner struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, now: time.Now}
}

// Clean validates and normalizes r. It returns ErrIncomplete when required
// fields are missing and ErrUnsupported (wrapped) when the city or the type
// is not one we track.
func (c *Cleaner) Clean(r *models.RawListing) (*models.Listing, error) {
	link := strings.TrimSpace(r.Link)
	typeText := normaliseText(r.Type)
	if typeText == "" {
		typeText = normaliseText(r.Title)
	}
	price := ParsePrice(r.Price)

	if link == "" || typeText == "" || price <= 0 {
		return nil, ErrIncomplete
	}

	propertyType := ResolveType(typeText)
	if propertyType == Unsupported && r.Title != "" {
		propertyType = ResolveType(r.Title)
	}
	if propertyType == Unsupported {
		return nil, fmt.Errorf("%w: type %q", ErrUnsupported, typeText)
	}

	city := ResolveCity(r.City)
	if city == Unsupported {
		return nil, fmt.Errorf("%w: city %q", ErrUnsupported, r.City)
	}

	description := normaliseText(r.Description)
	now := c.now()
	listing := &models.Listing{
		Link:           link,
		PropertyType:   propertyType,
		Price:          price,
		City:           city,
		SurfaceArea:    ParseSurface(r.Surface),
		Description:    description,
		Photos:         cleanPhotos(link, r.Photos),
		SourceName:     r.Source,
		EnergyRating:   ParseEnergyRating(r.Energy),
		EmissionRating: ParseEmissionRating(r.Emission),
		CreatedAt:      now,
		LastScraped:    now,
	}

	listing.RoomCount = c.roomCount(r, propertyType, description)
	if propertyType == models.TypeBuilding {
		listing.Units = ExtractUnits(description)
	}

	c.logger.Debug("[cleaner] %s -> %s %s %d€", link, listing.PropertyType, listing.City, listing.Price)
	return listing, nil
}

// roomCount prefers the structured counts and falls back to text inference
// for houses only.
func (c *Cleaner) roomCount(r *models.RawListing, propertyType, description string) *int {
	if n := ParseInt(r.Rooms); n > 0 {
		return &n
	}
	if n := ParseInt(r.Bedrooms); n > 0 {
		n++
		return &n
	}
	if propertyType != models.TypeHouse {
		return nil
	}
	return InferRoomCount(normaliseText(r.Title) + " " + description)
}

// cleanPhotos resolves relative URLs against link and drops empties and
// duplicates, keeping order.
func cleanPhotos(link string, photos []string) []string {
	base, _ := url.Parse(link)
	seen := make(map[string]struct{}, len(photos))
	out := make([]string, 0, len(photos))

	for _, p := range photos {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "data:") {
			continue
		}
		if base != nil {
			if ref, err := url.Parse(p); err == nil {
				p = base.ResolveReference(ref).String()
			}
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
