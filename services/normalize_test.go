package services

import (
	"testing"

	"immo-scraper/models"
)

func TestResolveCity(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Vitré", CityVitre},
		{"vitre", CityVitre},
		{"VITRE", CityVitre},
		{"Vitré (35500)", CityVitre},
		{"35500 Vitré", CityVitre},
		{"  vitré  ", CityVitre},
		{"Châteaugiron", CityChateaugiron},
		{"CHATEAUGIRON (35410)", CityChateaugiron},
		{"Chateau-Giron", CityChateaugiron},
		{"Rennes", Unsupported},
		{"Vitry-sur-Seine", Unsupported},
		{"35500", Unsupported},
		{"", Unsupported},
	}

	for _, tt := range tests {
		if got := ResolveCity(tt.raw); got != tt.want {
			t.Errorf("ResolveCity(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestResolveType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"maison", models.TypeHouse},
		{"Villa", models.TypeHouse},
		{"propriété", models.TypeHouse},
		{"PROPRIETE", models.TypeHouse},
		{"Longère rénovée", models.TypeHouse},
		{"Vente maison 6 pièces", models.TypeHouse},
		{"immeuble", models.TypeBuilding},
		{"IMMEUBLE DE RAPPORT", models.TypeBuilding},
		{"Appartement", Unsupported},
		{"Terrain constructible", Unsupported},
		{"", Unsupported},
	}

	for _, tt := range tests {
		if got := ResolveType(tt.raw); got != tt.want {
			t.Errorf("ResolveType(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"350 000 €", 350000},
		{"350 000 €", 350000},
		{"Prix : 199000€ FAI", 199000},
		{"250 000 € (dont 5% honoraires)", 250000},
		{"Honoraires 4,5% inclus, soit 313 500 €", 313500},
		{"1\u202f250\u202f000,00 €", 1250000},
		{"Réf. 12\n199 000 €", 199000},
		{"350.000 €", 350000},
		{"", 0},
		{"Nous consulter", 0},
	}

	for _, tt := range tests {
		if got := ParsePrice(tt.raw); got != tt.want {
			t.Errorf("ParsePrice(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParseSurface(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		nil  bool
	}{
		{"120 m²", 120, false},
		{"98,5 m²", 98.5, false},
		{"1 250 m²", 1250, false},
		{"1\u202f250 m²", 1250, false},
		{"1\u00a0250 m²", 1250, false},
		{"", 0, true},
		{"non renseignée", 0, true},
	}

	for _, tt := range tests {
		got := ParseSurface(tt.raw)
		if tt.nil {
			if got != nil {
				t.Errorf("ParseSurface(%q) = %v; want nil", tt.raw, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ParseSurface(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseRatings(t *testing.T) {
	tests := []struct {
		raw      string
		energy   string
		emission string
	}{
		{"C", "C", "C"},
		{"d", "D", "D"},
		{"H", "", ""},
		{"", "", ""},
		{"65", "A", "E"},
		{"245 kWh/m².an", "D", "G"},
		{"5", "A", "A"},
		{"500", "G", "G"},
		{"25 kgCO2/m².an", "A", "C"},
	}

	for _, tt := range tests {
		if got := ParseEnergyRating(tt.raw); got != tt.energy {
			t.Errorf("ParseEnergyRating(%q) = %q; want %q", tt.raw, got, tt.energy)
		}
		if got := ParseEmissionRating(tt.raw); got != tt.emission {
			t.Errorf("ParseEmissionRating(%q) = %q; want %q", tt.raw, got, tt.emission)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("Châteaugiron Propriété Gîte"); got != "chateaugiron propriete gite" {
		t.Errorf("Fold() = %q", got)
	}
}
