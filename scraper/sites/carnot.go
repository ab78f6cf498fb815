package sites

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

// Carnot Immobilier publishes DPE and GES as numeric values and states the
// property type in the first words of the description.
type carnot struct{ base }

func newCarnot() *carnot {
	return &carnot{base{
		key:  "carnot",
		name: "Carnot Immobilier",
		seeds: []string{
			"https://www.carnotimmo.com/recherche-de-bien/?status=vente&type%5B%5D=maison&location=vitre-35500",
		},
		cookie:     "button" + didomiAgree,
		listWait:   ".rh_page__listing .rh_list_card",
		detailWait: ".rh_page__title",
	}}
}

func (s *carnot) ListLinks(p *scraper.Page) []string {
	return p.Links(".rh_list_card__wrap h3 a[href]")
}

func (s *carnot) NextPage(p *scraper.Page) string {
	return p.Abs(p.Attr("a.rh_pagination__next", "href"))
}

func (s *carnot) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, ".rh_page__title"); err != nil {
		return nil, err
	}
	description := p.Text(".rh_property__content .rh_content")
	firstLine := strings.SplitN(strings.TrimSpace(p.Doc.Find(".rh_property__content .rh_content").First().Text()), "\n", 2)[0]

	return &models.RawListing{
		Link:        p.URL,
		Title:       p.Text(".rh_page__title"),
		Type:        firstWord(firstLine),
		Price:       p.Text(".rh_page__property_price .price"),
		City:        p.Text(".rh_page__property_address"),
		Bedrooms:    firstNumber(p.Text(".prop_bedrooms .figure")),
		Surface:     s.surface(p),
		Description: description,
		Photos:      p.Attrs(`.inspiry_property_masonry_style a[data-fancybox="gallery"]`, "href"),
		Energy:      p.Text("#bloc-energies #dpe .details-dpe .detail-infos strong"),
		Emission:    p.Text("#bloc-energies #ges .details-ges .detail-infos strong"),
	}, nil
}

func (s *carnot) surface(p *scraper.Page) string {
	var out string
	p.Doc.Find(".rh_property__meta_wrap .rh_meta_titles").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if !strings.Contains(t.Text(), "Surface") {
			return true
		}
		out = strings.TrimSpace(t.Parent().Find(".figure").First().Text())
		return false
	})
	return out
}
