package sites

import (
	"regexp"
	"time"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

var (
	bieniciSurface = regexp.MustCompile(`(\d+(?:[,.]\d+)?)\s*m²`)
	bieniciRooms   = regexp.MustCompile(`(\d+)\s*pièces?`)
)

// Bien'ici loads its results lazily; the next page is the link right after
// the current page marker.
type bienici struct{ base }

func newBienici() *bienici {
	return &bienici{base{
		key:  "bienici",
		name: "Bien'ici",
		seeds: []string{
			"https://www.bienici.com/recherche/achat/vitre-35500,chateaugiron-35410/maisonvilla,batiment?prix-max=400000",
		},
		cookie:     didomiAgree,
		listWait:   ".ads-search-results__search-results-container",
		detailWait: ".ad-price__the-price",
		scroll:     true,
		settle:     time.Second,
	}}
}

func (s *bienici) ListLinks(p *scraper.Page) []string {
	return p.Links("article.search-results-list__ad-overview a.detailedSheetLink[href]")
}

func (s *bienici) NextPage(p *scraper.Page) string {
	href, _ := p.Doc.Find(".pagination__current-page").First().NextFiltered("a").Attr("href")
	return p.Abs(href)
}

func (s *bienici) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, ".ad-overview-details__ad-title"); err != nil {
		return nil, err
	}
	// "Maison 5 pièces 120 m²"
	title := p.Text(".ad-overview-details__ad-title")
	raw := &models.RawListing{
		Link:        p.URL,
		Title:       title,
		Type:        firstWord(title),
		Price:       p.Text(".ad-price__the-price"),
		City:        p.Text(".ad-overview-details__address-title"),
		Description: p.Text(".ad-overview-description"),
		Photos:      p.Images(".ad-overview-photo__image img"),
	}
	if m := bieniciSurface.FindStringSubmatch(title); m != nil {
		raw.Surface = m[1]
	}
	if m := bieniciRooms.FindStringSubmatch(title); m != nil {
		raw.Rooms = m[1]
	}
	return raw, nil
}
