package scraper

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.Bienici.com/annonce/1", "https://www.bienici.com/annonce/1"},
		{"HTTPS://www.bienici.com:443/annonce/1/", "https://www.bienici.com/annonce/1"},
		{"https://a.fr/x?utm_source=mail&b=2&a=1#photos", "https://a.fr/x?a=1&b=2"},
		{"https://a.fr/x?fbclid=abc", "https://a.fr/x"},
		{"http://a.fr:8080/", "http://a.fr:8080/"},
	}

	for _, tt := range tests {
		got, err := NormalizeURL(tt.raw)
		if err != nil {
			t.Errorf("NormalizeURL(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeURLRejects(t *testing.T) {
	for _, raw := range []string{"", "/relative/path", "not a url"} {
		if _, err := NormalizeURL(raw); err == nil {
			t.Errorf("NormalizeURL(%q) expected error", raw)
		}
	}
}

func TestStripQuery(t *testing.T) {
	if got := StripQuery("https://a.fr/annonce/1?from=list#top"); got != "https://a.fr/annonce/1" {
		t.Errorf("StripQuery() = %q", got)
	}
	if got := StripQuery("https://a.fr/annonce/1"); got != "https://a.fr/annonce/1" {
		t.Errorf("StripQuery() = %q", got)
	}
}

func TestWithPage(t *testing.T) {
	got := WithPage("https://www.ouestfrance-immo.com/acheter/?prix=0_400000", 3)
	want := "https://www.ouestfrance-immo.com/acheter/?page=3&prix=0_400000"
	if got != want {
		t.Errorf("WithPage() = %q; want %q", got, want)
	}
}
