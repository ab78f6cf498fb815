package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"immo-scraper/models"
	"immo-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates an InsightService with the given logger.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the report over listings. An empty slice yields an
// empty report.
func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByCity:   make(map[string]int),
		ListingsBySource: make(map[string]int),
		Cheapest:         []*models.Listing{},
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var priced []*models.Listing
	var perM2Total float64
	var perM2Count int

	for _, l := range listings {
		switch l.PropertyType {
		case models.TypeHouse:
			report.Houses++
		case models.TypeBuilding:
			report.Buildings++
			report.UnitsTotal.T1 += l.Units.T1
			report.UnitsTotal.T2 += l.Units.T2
			report.UnitsTotal.T3 += l.Units.T3
			report.UnitsTotal.T4 += l.Units.T4
			report.UnitsTotal.T5 += l.Units.T5
		}
		if l.City != "" {
			report.ListingsByCity[l.City]++
		}
		if l.SourceName != "" {
			report.ListingsBySource[l.SourceName]++
		}
		if l.Price > 0 {
			priced = append(priced, l)
			if l.SurfaceArea != nil && *l.SurfaceArea > 0 {
				perM2Total += float64(l.Price) / *l.SurfaceArea
				perM2Count++
			}
		}
	}

	if len(priced) > 0 {
		report.MinPrice = priced[0].Price
		report.MaxPrice = priced[0].Price
		report.MostExpensive = priced[0]
		var total int64
		for _, l := range priced {
			total += l.Price
			if l.Price < report.MinPrice {
				report.MinPrice = l.Price
			}
			if l.Price > report.MaxPrice {
				report.MaxPrice = l.Price
				report.MostExpensive = l
			}
		}
		report.AveragePrice = round2(float64(total) / float64(len(priced)))
	}
	if perM2Count > 0 {
		report.AveragePricePerM2 = round2(perM2Total / float64(perM2Count))
	}

	// 5 cheapest
	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].Price < priced[j].Price
	})
	if len(priced) > 5 {
		priced = priced[:5]
	}
	report.Cheapest = priced

	s.logger.Debug("[insights] %d listings, %d houses, %d buildings",
		report.TotalListings, report.Houses, report.Buildings)
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  LISTINGS INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Stored listings : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Houses          : \033[1m%d\033[0m\n", r.Houses)
	fmt.Fprintf(w, "  Buildings       : \033[1m%d\033[0m (units T1-T5: %d/%d/%d/%d/%d)\n",
		r.Buildings, r.UnitsTotal.T1, r.UnitsTotal.T2, r.UnitsTotal.T3, r.UnitsTotal.T4, r.UnitsTotal.T5)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Prices\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m%.0f €\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m%d €\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m%d €\033[0m\n", r.MaxPrice)
		if r.AveragePricePerM2 > 0 {
			fmt.Fprintf(w, "  Average €/m²  : \033[1;32m%.0f €\033[0m\n", r.AveragePricePerM2)
		}
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Cheapest Listings\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Cheapest) == 0 {
		fmt.Fprintf(w, "  No listings found\n")
	}
	for i, l := range r.Cheapest {
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-10s %-14s \033[1;32m%d €\033[0m\n",
			i+1, l.PropertyType, truncate(l.City, 14), l.Price)
	}
	fmt.Fprintln(w)

	printCounts(w, "Listings by City", r.ListingsByCity, thin)
	printCounts(w, "Listings by Source", r.ListingsBySource, thin)

	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(w io.Writer, title string, counts map[string]int, thin string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(counts) == 0 {
		fmt.Fprintf(w, "  No data\n\n")
		return
	}

	type keyCount struct {
		key   string
		count int
	}
	var rows []keyCount
	for k, n := range counts {
		rows = append(rows, keyCount{k, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	for _, row := range rows {
		bar := strings.Repeat("█", row.count)
		fmt.Fprintf(w, "  %-28s %s (%d)\n", truncate(row.key, 26), bar, row.count)
	}
	fmt.Fprintln(w)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
