package services

import (
	"testing"

	"immo-scraper/models"
)

func TestInferRoomCount(t *testing.T) {
	tests := []struct {
		text string
		want int // 0 means nil
	}{
		{"Maison 5 pièces, jardin", 5},
		{"3 chambres, salon", 4},
		{"Belle maison T4 proche centre", 4},
		{"Pavillon type F3", 3},
		{"Maison de ville offrant six pièces lumineuses", 6},
		{"Maison de caractère avec jardin", 0},
		{"", 0},
	}

	for _, tt := range tests {
		got := InferRoomCount(tt.text)
		switch {
		case tt.want == 0 && got != nil:
			t.Errorf("InferRoomCount(%q) = %d; want nil", tt.text, *got)
		case tt.want != 0 && (got == nil || *got != tt.want):
			t.Errorf("InferRoomCount(%q) = %v; want %d", tt.text, got, tt.want)
		}
	}
}

func TestInferRoomCountOrder(t *testing.T) {
	// "N pièces" wins over the chambres rule.
	got := InferRoomCount("Maison 6 pièces dont 4 chambres")
	if got == nil || *got != 6 {
		t.Errorf("InferRoomCount() = %v; want 6", got)
	}
}

func TestExtractUnits(t *testing.T) {
	tests := []struct {
		text string
		want models.UnitBreakdown
	}{
		{"comprenant deux T2 et un studio", models.UnitBreakdown{T1: 1, T2: 2}},
		{"T3 lumineux", models.UnitBreakdown{T3: 1}},
		{"Immeuble de 3 appartements de type T2", models.UnitBreakdown{T2: 3}},
		{"un appartement de type T3 et une maison", models.UnitBreakdown{T3: 1}},
		{"trois F2, un F4 et un T6 en duplex", models.UnitBreakdown{T2: 3, T4: 1, T5: 1}},
		{"deux studios et quatre logements T1", models.UnitBreakdown{T1: 6}},
		{"Immeuble de rapport entièrement loué", models.UnitBreakdown{}},
		{"Immeuble au 35500 t2", models.UnitBreakdown{T2: 1}},
		{"Immeuble 35500 Vitré, 12 T2 et 10 T3", models.UnitBreakdown{T2: 1, T3: 10}},
	}

	for _, tt := range tests {
		if got := ExtractUnits(tt.text); got != tt.want {
			t.Errorf("ExtractUnits(%q) = %+v; want %+v", tt.text, got, tt.want)
		}
	}
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"trois", 3},
		{"10", 10},
		{"11", 0},
		{"35500", 0},
	}

	for _, tt := range tests {
		if got := quantity(tt.word); got != tt.want {
			t.Errorf("quantity(%q) = %d; want %d", tt.word, got, tt.want)
		}
	}
}

func TestExtractUnitsCountsMentionOnce(t *testing.T) {
	got := ExtractUnits("deux T2 rénovés")
	if got.T2 != 2 {
		t.Errorf("T2 = %d; want 2", got.T2)
	}
	if got.Total() != 2 {
		t.Errorf("Total() = %d; want 2", got.Total())
	}
}
