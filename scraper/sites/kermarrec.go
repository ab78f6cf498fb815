package sites

import (
	"immo-scraper/models"
	"immo-scraper/scraper"
)

// Kermarrec Habitation renders the same entry-* fields on cards and on the
// ad page; pagination is a classic "next" link.
type kermarrec struct{ base }

func newKermarrec() *kermarrec {
	return &kermarrec{base{
		key:  "kermarrec",
		name: "Kermarrec Habitation",
		seeds: []string{
			"https://www.kermarrec-habitation.fr/achat/?post_type=achat&false-select=on&1d04ea34=chateaugiron&ville%5B%5D=vitre-35500&ville%5B%5D=chateaugiron-35410&typebien%5B%5D=immeuble&typebien%5B%5D=maison&budget_max=400000&reference=&rayon=0&avec_carte=false&tri=pertinence",
		},
		cookie:     didomiAgree,
		listWait:   "article.list-bien",
		detailWait: "#description",
	}}
}

func (s *kermarrec) ListLinks(p *scraper.Page) []string {
	return p.Links("article.list-bien a.link-full[href]")
}

func (s *kermarrec) NextPage(p *scraper.Page) string {
	return p.Abs(p.Attr("a.next.page-numbers", "href"))
}

func (s *kermarrec) Detail(p *scraper.Page) (*models.RawListing, error) {
	if err := s.require(p, "#description"); err != nil {
		return nil, err
	}
	return &models.RawListing{
		Link:        p.URL,
		Title:       p.Text("h1"),
		Type:        p.Text("span.entry-bien"),
		Price:       p.Text("span.entry-price"),
		City:        p.Text("span.entry-ville"),
		Rooms:       firstNumber(p.Text("span.entry-pieces")),
		Surface:     p.Text("span.entry-surface"),
		Description: paragraphs(p, "#description p"),
		Photos:      p.Images(".entry-medias img"),
	}, nil
}
