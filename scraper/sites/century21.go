package sites

import (
	"strings"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

// Century 21 lists every matching ad on a single page.
type century21 struct{ base }

func newCentury21() *century21 {
	return &century21{base{
		key:  "century21",
		name: "Century 21",
		seeds: []string{
			"https://www.century21.fr/annonces/f/achat-maison-immeuble-ancien/v-chateaugiron/cpv-35500_vitre/s-0-/st-0-/b-0-400000/?cible=cpv-35500_vitre",
		},
		cookie:     didomiAgree,
		listWait:   ".js-the-list-of-properties-list-property",
		detailWait: ".c-the-property-abstract__price",
	}}
}

func (s *century21) ListLinks(p *scraper.Page) []string {
	return withoutQueries(p.Links(".js-the-list-of-properties-list-property a[href]"))
}

func (s *century21) NextPage(*scraper.Page) string { return "" }

func (s *century21) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, "h1"); err != nil {
		return nil, err
	}
	title := p.Text("h1 > span:first-child")

	// "Vitré 35500": the postcode is the last five characters
	city := p.Text("h1 > span:nth-child(3)")
	if r := []rune(city); len(r) > 5 {
		city = strings.TrimSpace(string(r[:len(r)-5]))
	}

	features := p.Texts(".field--name-field-realty-features .field__item")
	return &models.RawListing{
		Link:        p.URL,
		Title:       title,
		Type:        firstWord(title),
		Price:       p.Text(".c-the-property-abstract__price"),
		City:        city,
		Rooms:       firstNumber(featureWith(features, "Pièce(s)")),
		Bedrooms:    firstNumber(featureWith(features, "Chambre(s)")),
		Surface:     labelledValue(p, ".list-container .item", ".name", ".value", "Surface habitable"),
		Description: p.Text(".c-the-property-detail-description .has-formated-text"),
		Photos:      p.Images(".c-the-detail-images__items-container img"),
	}, nil
}
