package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// trackingParams never change page content and are dropped from dedup keys.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"gclsrc":       {},
	"dclid":        {},
	"msclkid":      {},
	"xtor":         {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var errMissingSchemeOrHost = errors.New("normalize url: missing scheme or host")

// NormalizeURL returns the dedup key of rawURL: lower-case scheme and host,
// no default port, no fragment, no tracking parameters, sorted query and no
// trailing slash.
func NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("normalize url: empty input")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errMissingSchemeOrHost
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != defaultPorts[u.Scheme] {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		if _, tracked := trackingParams[strings.ToLower(k)]; tracked {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := q[k]
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	u.RawQuery = strings.Join(parts, "&")

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}

	return u.String(), nil
}

// StripQuery removes the query string and fragment of rawURL.
func StripQuery(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// WithPage returns rawURL with its page query parameter set to n.
func WithPage(rawURL string, n int) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("page", fmt.Sprint(n))
	u.RawQuery = q.Encode()
	return u.String()
}
