package sites

import (
	"strings"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

type era struct{ base }

func newEra() *era {
	return &era{base{
		key:  "era",
		name: "ERA Immobilier",
		seeds: []string{
			"https://www.eraimmobilier.com/acheter/Chateaugiron-c15629,Vitre-c27606?page=1&prix_to=400000&type_bien=maison,immeuble&display=list",
		},
		cookie:     didomiAgree,
		listWait:   "app-annonce-card",
		detailWait: "app-annonce-title",
	}}
}

func (s *era) ListLinks(p *scraper.Page) []string {
	return p.Links("app-annonce-card a[href^='/annonces/']")
}

// NextPage follows the arrow link; the last page has none.
func (s *era) NextPage(p *scraper.Page) string {
	return p.Abs(p.Attr("a.nav:has(.icon-arrow-right)", "href"))
}

func (s *era) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, "app-annonce-title"); err != nil {
		return nil, err
	}
	title := p.Text("h1 .display-h1")

	// the feature row also repeats the price, marked with € or *
	var features []string
	for _, f := range p.Texts(".display-text-18px span:not(.icon-location)") {
		if !strings.ContainsAny(f, "€*") {
			features = append(features, f)
		}
	}

	return &models.RawListing{
		Link:        p.URL,
		Title:       title,
		Type:        strings.TrimSpace(strings.Replace(title, "Vente", "", 1)),
		Price:       p.Text(".title-price-number"),
		City:        p.Text(".city"),
		Surface:     featureWith(features, "m²"),
		Rooms:       firstNumber(featureWith(features, "Pièces")),
		Bedrooms:    firstNumber(featureWith(features, "chambres")),
		Description: p.Text(".description p.whitespace-pre-wrap"),
		Photos:      p.Images(`.block-image-item-img:not([src*="logo"]):not([src*="icon"])`),
	}, nil
}
