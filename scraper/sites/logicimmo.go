package sites

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

// Logic-immo hides ad URLs in encoded data attributes of the card buttons and
// paginates with a page query parameter. Houses and buildings are two
// separate searches.
type logicImmo struct{ base }

func newLogicImmo() *logicImmo {
	return &logicImmo{base{
		key:  "logicimmo",
		name: "Logic-immo",
		seeds: []string{
			"https://www.logic-immo.com/classified-search?distributionTypes=Buy&estateTypes=House&locations=AD08FR14276,AD08FR13990&priceMax=400000",
			"https://www.logic-immo.com/classified-search?distributionTypes=Buy&estateTypes=Building&locations=AD08FR14276,AD08FR13990&priceMax=400000",
		},
		cookie:     didomiAgree,
		listWait:   "div[data-testid^='serp-core-classified-card-testid']",
		detailWait: `h1[data-testid="cdp-seo-wrapper"]`,
	}}
}

func (s *logicImmo) ListLinks(p *scraper.Page) []string {
	seen := make(map[string]struct{})
	var out []string
	p.Doc.Find("div[data-testid^='serp-core-classified-card-testid'] button[data-base]").
		Each(func(_ int, b *goquery.Selection) {
			link := decodeAttr(b, "data-base") + decodeAttr(b, "data-plus")
			if link = p.Abs(link); link == "" {
				return
			}
			if _, dup := seen[link]; dup {
				return
			}
			seen[link] = struct{}{}
			out = append(out, link)
		})
	return out
}

func (s *logicImmo) NextPage(p *scraper.Page) string {
	if !p.Exists(`button[aria-label="page suivante"]`) {
		return ""
	}
	current := 1
	if u, err := url.Parse(p.URL); err == nil {
		if n, err := strconv.Atoi(u.Query().Get("page")); err == nil && n > 0 {
			current = n
		}
	}
	return scraper.WithPage(p.URL, current+1)
}

func (s *logicImmo) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, `h1[data-testid="cdp-seo-wrapper"]`); err != nil {
		return nil, err
	}
	title := p.Text(`h1[data-testid="cdp-seo-wrapper"] .css-1nxshv1`)
	raw := &models.RawListing{
		Link:        p.URL,
		Title:       title,
		Type:        firstWord(title),
		Price:       p.Text(".css-13l2ek9"),
		City:        p.Text(`button[data-testid="cdp-location-address"] .css-15nnadp`),
		Surface:     p.Text(".css-7tj8u span:last-child"),
		Description: p.Text("#description + .DescriptionTexts"),
		Photos:      p.Attrs(`img[src*="mms.logic-immo.com"]`, "src"),
	}
	for _, f := range p.Texts(".css-74uxa4") {
		switch {
		case strings.Contains(f, "m² de terrain"):
		case strings.Contains(f, "chambre"):
			raw.Bedrooms = firstNumber(f)
		case strings.Contains(f, "pièce"):
			raw.Rooms = firstNumber(f)
		}
	}
	return raw, nil
}

func decodeAttr(s *goquery.Selection, name string) string {
	v, ok := s.Attr(name)
	if !ok {
		return ""
	}
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}
