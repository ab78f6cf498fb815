package sites

import (
	"net/url"
	"strconv"

	"github.com/chromedp/chromedp"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

// Blot Immobilier only exposes results behind its search form, paginated in
// place. Page n is addressed as ?page=n on the search URL and reached by
// replaying the form then clicking "next" n-1 times.
type blot struct{ base }

func newBlot() *blot {
	return &blot{base{
		key:        "blot",
		name:       "Blot Immobilier",
		seeds:      []string{"https://www.blot-immobilier.fr/page-recherche-avancee/"},
		cookie:     didomiAgree,
		listWait:   "form",
		detailWait: ".property-title",
	}}
}

func (s *blot) ListRequest(pageURL string, seed bool) scraper.FetchRequest {
	req := s.base.ListRequest(pageURL, seed)
	req.Actions = append(req.Actions, s.searchActions()...)
	for i := 1; i < blotPage(pageURL); i++ {
		req.Actions = append(req.Actions,
			scraper.ClickIfPresent("li.paginationjs-next.J-paginationjs-next:not(.disabled)", 2*clickPause))
	}
	return req
}

func (s *blot) searchActions() []chromedp.Action {
	return []chromedp.Action{
		scraper.ClickIfPresent(`label[for="vente"]`, 0),
		scraper.ClickIfPresent(`label[for="maison"]`, 0),
		scraper.ClickIfPresent(`label[for="immeuble"]`, 0),
		scraper.Fill("input#city", "Vitré", clickPause),
		scraper.ClickText(".ui-menu-item", "VITRE (35500)", clickPause),
		scraper.Fill("input#city", "Chateaugiron", clickPause),
		scraper.ClickText(".ui-menu-item", "CHATEAUGIRON (35410)", clickPause),
		scraper.Fill("input#budget", "400000", clickPause),
		scraper.ClickIfPresent("button#submit-search", 3*clickPause),
	}
}

func (s *blot) ListLinks(p *scraper.Page) []string {
	return p.Links(".search-results__item .estate-card__top a[href]")
}

func (s *blot) NextPage(p *scraper.Page) string {
	if !p.Exists("li.paginationjs-next.J-paginationjs-next:not(.disabled)") {
		return ""
	}
	return scraper.WithPage(p.URL, blotPage(p.URL)+1)
}

func (s *blot) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, ".property-title"); err != nil {
		return nil, err
	}
	title := p.Text(".property-title")
	return &models.RawListing{
		Link:        p.URL,
		Title:       title,
		Type:        firstWord(title),
		Price:       p.Text(".property-price"),
		City:        p.Text(".property-location"),
		Description: p.Text(".property-description"),
		Photos:      p.Images(".property-gallery img"),
	}, nil
}

func blotPage(pageURL string) int {
	u, err := url.Parse(pageURL)
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
