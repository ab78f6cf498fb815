package sites

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

var refLine = regexp.MustCompile(`(?i)^r[ée]f\.?\s*[a-z0-9-]+`)

// Ouest-France Immo: ad links carry tracking queries, and the next link is
// sometimes missing while the numbered pagination is present.
type ouestFrance struct{ base }

func newOuestFrance() *ouestFrance {
	return &ouestFrance{base{
		key:  "ouestfrance",
		name: "Ouest-France Immo",
		seeds: []string{
			"https://www.ouestfrance-immo.com/acheter/?prix=0_400000&types=maison,immeuble&lieux=15942,15645",
		},
		cookie:     didomiAgree,
		listWait:   "article.card-annonce",
		detailWait: "h2.detail-page__title",
	}}
}

func (s *ouestFrance) ListLinks(p *scraper.Page) []string {
	return withoutQueries(p.Links("article.card-annonce a[href*='/immobilier/vente/'], article.card-annonce a[href*='/vente-maison/']"))
}

func (s *ouestFrance) NextPage(p *scraper.Page) string {
	if next := p.Abs(p.Attr(`a[data-t="page-suivante"]:not([disabled])`, "href")); next != "" {
		return next
	}
	if !p.Exists(".pagination") || p.Exists(`a[data-t="page-suivante"][disabled]`) {
		return ""
	}
	current, err := strconv.Atoi(p.Text(".pagination__center__nb-link--active"))
	if err != nil || current < 1 {
		current = 1
	}
	return scraper.WithPage(p.URL, current+1)
}

func (s *ouestFrance) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, "h2.detail-page__title"); err != nil {
		return nil, err
	}
	// "Maison Vitré"
	title := p.Text("h2.detail-page__title")
	propertyType, city, _ := strings.Cut(title, " ")

	var parts []string
	for _, t := range p.Texts(".detail-description .detail-description__text-part") {
		if strings.Contains(t, "www.georisques.gouv.fr") || refLine.MatchString(t) {
			continue
		}
		parts = append(parts, t)
	}

	price, _, _ := strings.Cut(s.info(p, "Prix"), "€")
	return &models.RawListing{
		Link:        scraper.StripQuery(p.URL),
		Title:       title,
		Type:        propertyType,
		Price:       price,
		City:        city,
		Rooms:       firstNumber(s.info(p, "Pièces")),
		Bedrooms:    firstNumber(s.info(p, "Chambres")),
		Surface:     s.info(p, "Surface habitable"),
		Description: strings.Join(parts, "\n"),
		Photos:      largestSources(p, ".detail-slider-annonce__photo img[srcset]"),
	}, nil
}

// info returns the value of the detail-info block whose label contains label.
func (s *ouestFrance) info(p *scraper.Page, label string) string {
	var out string
	p.Doc.Find(".detail-info__label span").EachWithBreak(func(_ int, l *goquery.Selection) bool {
		if !strings.Contains(l.Text(), label) {
			return true
		}
		out = strings.Join(strings.Fields(l.Closest(".detail-info").Find(".detail-info__value").First().Text()), " ")
		return false
	})
	return out
}

// largestSources picks the widest candidate of every srcset, skipping maps
// and logos.
func largestSources(p *scraper.Page, sel string) []string {
	var out []string
	for _, srcset := range p.Attrs(sel, "srcset") {
		best, bestWidth := "", -1
		for _, candidate := range strings.Split(srcset, ",") {
			f := strings.Fields(candidate)
			if len(f) < 2 {
				continue
			}
			w, _ := strconv.Atoi(strings.TrimRight(f[1], "wx"))
			if w > bestWidth {
				best, bestWidth = f[0], w
			}
		}
		if best == "" || strings.Contains(best, "map-") || strings.Contains(best, "logo") {
			continue
		}
		out = append(out, p.Abs(best))
	}
	return out
}
