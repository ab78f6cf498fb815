// Package sites holds the page extractors of every supported listing site.
package sites

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"immo-scraper/scraper"
)

const (
	didomiAgree = "#didomi-notice-agree-button"
	clickPause  = 800 * time.Millisecond
)

// base carries what every site shares: identity, seeds and how pages are
// loaded. Sites embed it and add their own extraction.
type base struct {
	key        string
	name       string
	seeds      []string
	cookie     string
	listWait   string
	detailWait string
	scroll     bool
	settle     time.Duration
}

func (b *base) Name() string { return b.name }

// Key is the short name used in the sources file and on the HTTP API.
func (b *base) Key() string { return b.key }

func (b *base) Seeds() []string {
	return append([]string(nil), b.seeds...)
}

// OverrideSeeds replaces the built-in seeds; an empty list keeps them.
func (b *base) OverrideSeeds(seeds []string) {
	if len(seeds) == 0 {
		return
	}
	b.seeds = append([]string(nil), seeds...)
}

func (b *base) ListRequest(url string, _ bool) scraper.FetchRequest {
	return scraper.FetchRequest{
		URL:          url,
		WaitSelector: b.listWait,
		Actions:      b.cookieActions(),
		Scroll:       b.scroll,
		Settle:       b.settle,
	}
}

func (b *base) DetailRequest(url string) scraper.FetchRequest {
	return scraper.FetchRequest{
		URL:          url,
		WaitSelector: b.detailWait,
		Actions:      b.cookieActions(),
		Settle:       b.settle,
	}
}

func (b *base) cookieActions() []chromedp.Action {
	if b.cookie == "" {
		return nil
	}
	return []chromedp.Action{scraper.ClickIfPresent(b.cookie, clickPause)}
}

// ErrNoContent is returned when a detail page lacks the block that holds the
// listing, e.g. a removed ad redirected to a search page.
var ErrNoContent = errors.New("no listing content on page")

// require fails with ErrNoContent when sel is absent from p.
func (b *base) require(p *scraper.Page, sel string) error {
	if p.Exists(sel) {
		return nil
	}
	return fmt.Errorf("%s: %s: %w", b.name, sel, ErrNoContent)
}

var leadingNumber = regexp.MustCompile(`\d+`)

// firstNumber returns the first run of digits in s, or "".
func firstNumber(s string) string {
	return leadingNumber.FindString(s)
}

// firstWord returns the first whitespace separated word of s.
func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// featureWith returns the first text in texts containing marker.
func featureWith(texts []string, marker string) string {
	for _, t := range texts {
		if strings.Contains(t, marker) {
			return t
		}
	}
	return ""
}

// labelledValue finds the item under itemSel whose nameSel text equals label
// and returns the text of its valueSel.
func labelledValue(p *scraper.Page, itemSel, nameSel, valueSel, label string) string {
	var out string
	p.Doc.Find(itemSel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Find(nameSel).First().Text()) != label {
			return true
		}
		out = strings.Join(strings.Fields(s.Find(valueSel).First().Text()), " ")
		return false
	})
	return out
}

// withoutQueries strips the query of every link and drops the duplicates
// this creates, keeping order.
func withoutQueries(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	var out []string
	for _, link := range links {
		link = scraper.StripQuery(link)
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}

// paragraphs joins the text of every element matching sel with newlines.
func paragraphs(p *scraper.Page, sel string) string {
	return strings.Join(p.Texts(sel), "\n")
}
