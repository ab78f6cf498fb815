package scraper

import (
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"immo-scraper/models"
	"immo-scraper/services"
)

// FetchRequest tells the browser how to load and settle one page.
type FetchRequest struct {
	URL string
	// WaitSelector must be visible before the snapshot; empty waits for body.
	WaitSelector string
	// Actions run after the page is ready, e.g. dismissing a cookie banner or
	// filling a search form.
	Actions []chromedp.Action
	// Scroll triggers lazy loading before the snapshot.
	Scroll bool
	Settle time.Duration
}

// Site is the page extractor of one source. Implementations are pure
// functions of the page snapshot; the crawler drives navigation.
type Site interface {
	Name() string
	Seeds() []string
	// ListRequest describes how to load a list page. seed is true for a seed
	// URL, where one-time search filters apply.
	ListRequest(url string, seed bool) FetchRequest
	DetailRequest(url string) FetchRequest
	ListLinks(p *Page) []string
	// NextPage returns the URL of the following list page, or "".
	NextPage(p *Page) string
	Detail(p *Page) (*models.RawListing, error)
}

// SeedOverrider is implemented by sites whose seeds can be replaced from the
// sources file.
type SeedOverrider interface {
	OverrideSeeds(seeds []string)
}

// Keyed is implemented by sites that carry a short name for the API and the
// sources file.
type Keyed interface {
	Key() string
}

// SiteKey returns the short name of s, derived from its display name when s
// has none.
func SiteKey(s Site) string {
	if k, ok := s.(Keyed); ok && k.Key() != "" {
		return k.Key()
	}
	return slug(s.Name())
}

// Matches reports whether name designates s, by key or display name.
func Matches(s Site, name string) bool {
	n := slug(name)
	return n != "" && (n == SiteKey(s) || n == slug(s.Name()))
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range services.Fold(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
