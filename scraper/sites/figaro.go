package sites

import (
	"regexp"
	"strings"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

var (
	figaroLocation = regexp.MustCompile(`à\s+(.+?)\s*\(`)
	figaroPhoto    = regexp.MustCompile(`(?:https:)?//[^"\s\\]*googleusercontent\.com/[^"\s\\]+`)
)

// Figaro Immobilier keeps the gallery in the Nuxt state script rather than in
// the markup.
type figaro struct{ base }

func newFigaro() *figaro {
	return &figaro{base{
		key:  "figaro",
		name: "Figaro Immobilier",
		seeds: []string{
			"http://immobilier.lefigaro.fr/annonces/immobilier-vente-maison-vitre+35500.html?types=maison%2Bneuve,atelier,chalet,chambre%2Bd%2Bhote,manoir,moulin,propriete,ferme,gite,villa,immeuble&priceMax=400000&location=chateaugiron%2B35410",
		},
		listWait:   "ul.list-annonce article.classified-card",
		detailWait: ".classified-main-infos-title h1",
	}}
}

func (s *figaro) ListLinks(p *scraper.Page) []string {
	return p.Links("ul.list-annonce article.classified-card a.content__link[href]")
}

func (s *figaro) NextPage(p *scraper.Page) string {
	return p.Abs(p.Attr(`a.btn-pagination[rel="next"]:not(.disabled)`, "href"))
}

func (s *figaro) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, ".classified-main-infos-title h1"); err != nil {
		return nil, err
	}
	title := p.Text(".classified-main-infos-title h1")

	var city string
	if m := figaroLocation.FindStringSubmatch(p.Text("h1#classified-main-infos span")); m != nil {
		city = m[1]
	}

	return &models.RawListing{
		Link:        p.URL,
		Title:       title,
		Type:        firstWord(title),
		Price:       p.Text(".classified-price__detail .classified-price-per-m2 strong"),
		City:        city,
		Rooms:       firstNumber(s.feature(p, ".ic-room")),
		Bedrooms:    firstNumber(s.feature(p, ".ic-bedroom")),
		Surface:     s.feature(p, ".ic-area"),
		Description: p.Text(".truncated-description span span"),
		Photos:      s.photos(p),
	}, nil
}

// feature reads the value next to a features-list icon.
func (s *figaro) feature(p *scraper.Page, icon string) string {
	sel := p.Doc.Find(".features-list " + icon).First().Parent().Find(".feature").First()
	return strings.Join(strings.Fields(sel.Text()), " ")
}

func (s *figaro) photos(p *scraper.Page) []string {
	state := p.Doc.Find("script#__NUXT_DATA__").First().Text()
	seen := make(map[string]struct{})
	var out []string
	for _, u := range figaroPhoto.FindAllString(state, -1) {
		u = scraper.StripQuery(u)
		if strings.HasPrefix(u, "//") {
			u = "https:" + u
		}
		if strings.Contains(u, "logo") || strings.Contains(u, "icon") {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
