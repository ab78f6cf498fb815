package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a rendered HTML snapshot of one URL. Extractors read it through
// goquery and never touch the browser.
type Page struct {
	URL string
	Doc *goquery.Document
}

// NewPage parses html as the content of pageURL.
func NewPage(pageURL, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("page: parse %s: %w", pageURL, err)
	}
	if u, err := url.Parse(pageURL); err == nil {
		doc.Url = u
	}
	return &Page{URL: pageURL, Doc: doc}, nil
}

// Exists reports whether sel matches at least one element.
func (p *Page) Exists(sel string) bool {
	return p.Doc.Find(sel).Length() > 0
}

// Text returns the collapsed text of the first element matching sel.
func (p *Page) Text(sel string) string {
	return clean(p.Doc.Find(sel).First().Text())
}

// Texts returns the collapsed text of every element matching sel, skipping empty ones.
func (p *Page) Texts(sel string) []string {
	var out []string
	p.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if t := clean(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Attr returns attribute attr of the first element matching sel.
func (p *Page) Attr(sel, attr string) string {
	v, _ := p.Doc.Find(sel).First().Attr(attr)
	return strings.TrimSpace(v)
}

// Attrs returns attribute attr of every element matching sel that has it.
func (p *Page) Attrs(sel, attr string) []string {
	var out []string
	p.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	})
	return out
}

// Links returns the absolute href of every element matching sel, in page order
// and without duplicates.
func (p *Page) Links(sel string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, href := range p.Attrs(sel, "href") {
		abs := p.Abs(href)
		if abs == "" {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

// Images returns the source of every img matching sel, preferring lazy-load attributes.
func (p *Page) Images(sel string) []string {
	var out []string
	p.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"data-src", "data-lazy-src", "src"} {
			if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "data:") {
				out = append(out, p.Abs(v))
				return
			}
		}
	})
	return out
}

// Abs resolves href against the page URL. Javascript and mailto links yield "".
func (p *Page) Abs(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if p.Doc.Url == nil {
		return ref.String()
	}
	return p.Doc.Url.ResolveReference(ref).String()
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
