package sites

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

var ratingLetter = regexp.MustCompile(`^[A-G]$`)

// Cabinet Diard draws its energy labels as SVG: the current class is the
// first letter after the stroked path.
type diard struct{ base }

func newDiard() *diard {
	return &diard{base{
		key:  "diard",
		name: "Cabinet Diard",
		seeds: []string{
			"https://www.cabinet-diard-immobilier.fr/acheter-louer?maisons=1&immeubles=1&ref=&budget_min=&budget_max=400000&surface=&ville=vitr%C3%A9&op=Rechercher&geolocalisation_rayon_data=&latitude=&longitude=&form_build_id=form-BF7c8Zw2ucBnppSkmqJnGo0iQU8NRfhQ-_5uY2ldI9o&form_id=b2iimmo_realty_search",
		},
		listWait:   ".node--type-realty",
		detailWait: ".container-price",
	}}
}

func (s *diard) ListLinks(p *scraper.Page) []string {
	return p.Links("article.node--type-realty a.full-link[href]")
}

func (s *diard) NextPage(p *scraper.Page) string {
	return p.Abs(p.Attr(`a.page-link[rel="next"]`, "href"))
}

func (s *diard) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, ".container-price"); err != nil {
		return nil, err
	}
	propertyType := p.Text(".field--name-field-realty-type")

	// "Ville Vitré"
	city := p.Text(".content-container p strong")
	if r := []rune(city); len(r) > 6 {
		city = string(r[6:])
	} else {
		city = ""
	}

	title := propertyType
	if propertyType != "" && city != "" {
		title = propertyType + " à " + city
	}

	features := p.Texts(".field--name-field-realty-features .field__item")
	bedrooms := firstNumber(featureWith(features, "Chambre(s)"))
	if bedrooms == "" {
		bedrooms = firstNumber(p.Text(".field--name-field-realty-rooms .field__item"))
	}

	return &models.RawListing{
		Link:        p.URL,
		Title:       title,
		Type:        propertyType,
		Price:       p.Text(".container-price .price"),
		City:        city,
		Rooms:       firstNumber(featureWith(features, "Pièce(s)")),
		Bedrooms:    bedrooms,
		Surface:     labelledValue(p, ".list-container .item", ".name", ".value", "Surface"),
		Description: p.Text(".field--name-field-realty-comment"),
		Photos:      p.Links(`.popup-galerie a.image-galerie[href*="/sites/default/files/"]`),
		Energy:      svgRating(p, "#dpe svg"),
		Emission:    svgRating(p, "#ges svg"),
	}, nil
}

// svgRating returns the first A-G text element following the stroked path of
// the chart under sel.
func svgRating(p *scraper.Page, sel string) string {
	var letter string
	p.Doc.Find(sel).First().Children().Filter("path[stroke]").First().NextAll().
		EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if goquery.NodeName(el) != "text" {
				return true
			}
			if t := strings.TrimSpace(el.Text()); ratingLetter.MatchString(t) {
				letter = t
				return false
			}
			return true
		})
	return letter
}
