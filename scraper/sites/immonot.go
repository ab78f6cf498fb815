package sites

import (
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"immo-scraper/models"
	"immo-scraper/scraper"
)

// Immonot opens on a nationwide search. The seed drives the search box once;
// the result pages it leads to keep the filters in their links.
type immonot struct{ base }

func newImmonot() *immonot {
	return &immonot{base{
		key:        "immonot",
		name:       "Immonot",
		seeds:      []string{"https://www.immonot.com/immobilier.do"},
		listWait:   "#js-search",
		detailWait: ".id-title-type",
	}}
}

const immonotCity = `#js-search input[placeholder^="Ville"]`

func (s *immonot) ListRequest(pageURL string, seed bool) scraper.FetchRequest {
	req := s.base.ListRequest(pageURL, seed)
	req.Actions = append(req.Actions, scraper.ClickText("button", "Accepter", clickPause))
	if seed {
		req.Actions = append(req.Actions, s.searchActions()...)
	}
	return req
}

func (s *immonot) searchActions() []chromedp.Action {
	return []chromedp.Action{
		scraper.ClickTextIn("#js-search", "Toute la France", 0, clickPause),
		scraper.Fill(immonotCity, "Vitré", clickPause),
		scraper.ClickText(`li[data-type="commune"]`, "Vitré", clickPause),
		scraper.Fill(immonotCity, "Chateaugiron", clickPause),
		scraper.ClickText(`li[data-type="commune"]`, "Châteaugiron", clickPause),
		scraper.ClickTextIn("body", "Aucune sélection", 3, 0),
		scraper.ClickTextIn("#js-search", "Achat", 0, 0),
		scraper.ClickTextIn("#js-search", "Aucune sélection", 0, 0),
		scraper.ClickTextIn("#js-search", "Maisons", 0, 0),
		scraper.ClickTextIn("#js-search", "Afficher plus", 0, 0),
		scraper.ClickTextIn("#js-search", "Immeubles", 0, 0),
		scraper.ClickIfPresent(`span.il-search-item-resume[data-rel="prix"]`, clickPause),
		scraper.Fill(`.il-search-box.visible .x-form-slider[data-rel="prix"] input.js-max[type="number"]`,
			"400000"+kb.Enter, clickPause),
		scraper.ClickIfPresent("button.il-search-btn.js-search-update", 3*clickPause),
	}
}

func (s *immonot) ListLinks(p *scraper.Page) []string {
	return p.Links(".il-card a.js-mirror-link")
}

func (s *immonot) NextPage(p *scraper.Page) string {
	return p.Abs(p.Attr("a.page-link[rel='next']", "href"))
}

func (s *immonot) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, ".id-title-type"); err != nil {
		return nil, err
	}
	title := p.Text(".id-title-type")
	return &models.RawListing{
		Link:        p.URL,
		Title:       title,
		Type:        title,
		Price:       p.Text(".id-price-amount"),
		City:        p.Text(".id-title-location"),
		Description: p.Text(".id-desc-body"),
		Photos:      p.Links("#js-lightgallery a"),
	}, nil
}
