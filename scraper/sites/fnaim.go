package sites

import (
	"regexp"
	"strings"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

// FNAIM carries the whole search in the seed URL and paginates with a next
// link.
type fnaim struct{ base }

func newFnaim() *fnaim {
	return &fnaim{base{
		key:  "fnaim",
		name: "FNAIM",
		seeds: []string{
			"https://www.fnaim.fr/17-acheter.htm?localites=%5B%7B%22id%22%3A%2220583%22%2C%22label%22%3A%22VITRE+%2835500%29%22%2C%22type%22%3A%223%22%2C%22code%22%3A%2235500%22%2C%22insee%22%3A%2235360%22%2C%22value%22%3A%22VITRE+%2835500%29%22%7D%2C%7B%22id%22%3A%2231189%22%2C%22label%22%3A%22CHATEAUGIRON+%2835410%29%22%2C%22type%22%3A%223%22%2C%22code%22%3A%2235410%22%2C%22insee%22%3A%2235069%22%2C%22value%22%3A%22CHATEAUGIRON+%2835410%29%22%7D%5D&PRIX_MAX=400000&TYPE%5B%5D=2&TYPE%5B%5D=9&idtf=17&TRANSACTION=1&submit=Rechercher",
		},
		listWait:   ".liste .item",
		detailWait: ".annonce_price",
	}}
}

var (
	parenthesised = regexp.MustCompile(`\s*\([^)]*\)`)
	achatPrefix   = regexp.MustCompile(`(?i)^achat\s+`)
)

func (s *fnaim) ListLinks(p *scraper.Page) []string {
	return p.Links(`.liste .item a.linkAnnonce[href^="/annonce-immobiliere/"]`)
}

func (s *fnaim) NextPage(p *scraper.Page) string {
	return p.Abs(p.Attr(".regletteNavigation .next a", "href"))
}

func (s *fnaim) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, ".annonce_price"); err != nil {
		return nil, err
	}

	// "VITRE (35500)"
	city := parenthesised.ReplaceAllString(p.Text(`div[itemprop="address"] span:first-child`), "")
	// second breadcrumb: "ACHAT MAISON"
	kind := achatPrefix.ReplaceAllString(p.Text(`.ariane span:nth-child(2) span[itemprop="title"]`), "")

	return &models.RawListing{
		Link:        p.URL,
		Title:       kind,
		Type:        kind,
		Price:       p.Text(`.annonce_price span[itemprop="price"]`),
		City:        strings.TrimSpace(city),
		Surface:     featureWith(p.Texts(".caracteristique li"), "Surface totale"),
		Description: p.Text(`#description p[itemprop="description"]`),
		Photos:      withoutQueries(p.Links(`a.imageAnnonce[href*="imagesv2.fnaim.fr"]`)),
	}, nil
}
