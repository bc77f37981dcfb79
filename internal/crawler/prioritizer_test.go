package crawler

import (
	"slices"
	"testing"
)

// TestPrioritizerScore tests the cumulative rule table.
func TestPrioritizerScore(t *testing.T) {
	t.Parallel()

	p := NewPrioritizer()
	tests := []struct {
		name    string
		url     string
		snippet string
		want    int
	}{
		{"plain page", "https://acme.com/blog", "", 0},
		{"contact path", "https://acme.com/contact", "", 3},
		{"about path uppercase", "https://acme.com/About-Us", "", 3},
		{"team path", "https://acme.com/our-team/", "", 3},
		{"support path", "https://acme.com/support", "", 2},
		{"help path", "https://acme.com/help/faq", "", 2},
		{"both path groups", "https://acme.com/contact/support", "", 5},
		{"contact us text", "https://acme.com/x", "Contact Us", 2},
		{"get in touch text", "https://acme.com/x", "get in touch today", 2},
		{"at sign text", "https://acme.com/x", "mail me @ home", 1},
		{"everything", "https://acme.com/contact-support", "Get in touch: info@acme.com", 8},
		{"host is not path", "https://contact.acme.com/", "", 0},
		{"query is not path", "https://acme.com/?page=contact", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := p.Score(tt.url, tt.snippet); got != tt.want {
				t.Errorf("Score(%q, %q) = %d, want %d", tt.url, tt.snippet, got, tt.want)
			}
		})
	}
}

// TestPrioritizerCustomRules tests that rules can be replaced.
func TestPrioritizerCustomRules(t *testing.T) {
	t.Parallel()

	p := NewPrioritizer(WithRules([]ScoreRule{
		{Target: TargetPath, Keywords: []string{"impressum"}, Weight: 5},
	}))
	if got := p.Score("https://acme.de/impressum", ""); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if got := p.Score("https://acme.de/contact", ""); got != 0 {
		t.Errorf("default rules must be replaced, got %d", got)
	}
}

// TestPrioritizerRank tests ordering, dedup and stability.
func TestPrioritizerRank(t *testing.T) {
	t.Parallel()

	p := NewPrioritizer()
	links := []Link{
		{URL: "https://acme.com/blog"},
		{URL: "https://acme.com/help"},
		{URL: "https://acme.com/about"},
		{URL: "https://acme.com/news"},
		{URL: "https://acme.com/help#faq", Text: "Contact us"},
		{URL: "https://acme.com/team"},
	}

	got := p.Rank(links)
	want := []ScoredLink{
		{URL: "https://acme.com/help", Score: 4},
		{URL: "https://acme.com/about", Score: 3},
		{URL: "https://acme.com/team", Score: 3},
		{URL: "https://acme.com/blog", Score: 0},
		{URL: "https://acme.com/news", Score: 0},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Rank mismatch\n got: %v\nwant: %v", got, want)
	}
}

// TestTop tests the limit and the positive-score cut.
func TestTop(t *testing.T) {
	t.Parallel()

	ranked := []ScoredLink{
		{URL: "a", Score: 5}, {URL: "b", Score: 3}, {URL: "c", Score: 2},
		{URL: "d", Score: 1}, {URL: "e", Score: 0},
	}

	tests := []struct {
		name string
		in   []ScoredLink
		n    int
		want []string
	}{
		{"top three", ranked, 3, []string{"a", "b", "c"}},
		{"zero scores pruned", ranked[3:], 3, []string{"d"}},
		{"all zero", ranked[4:], 3, []string{}},
		{"empty", nil, 3, []string{}},
		{"non-positive limit", ranked, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := make([]string, 0)
			for _, l := range Top(tt.in, tt.n) {
				got = append(got, l.URL)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Top = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestPrioritizerSelect tests that only eligible links are ever returned.
func TestPrioritizerSelect(t *testing.T) {
	t.Parallel()

	p := NewPrioritizer()
	root := "https://www.acme.com/"
	visited := map[string]bool{"https://www.acme.com/about": true}

	links := []Link{
		{URL: "https://www.acme.com/about"},
		{URL: "https://evil.com/contact"},
		{URL: "https://acme.com.evil.com/contact"},
		{URL: "ftp://www.acme.com/contact"},
		{URL: "/contact"},
		{URL: "https://shop.acme.com/contact"},
		{URL: "http://www.acme.com/team"},
		{URL: "https://www.acme.com/support"},
		{URL: "https://www.acme.com/help"},
	}

	got := p.Select(root, links, func(u string) bool { return visited[u] })
	want := []ScoredLink{
		{URL: "https://shop.acme.com/contact", Score: 3},
		{URL: "http://www.acme.com/team", Score: 3},
		{URL: "https://www.acme.com/support", Score: 2},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Select mismatch\n got: %v\nwant: %v", got, want)
	}

	for _, l := range got {
		if !SameSite(root, l.URL) {
			t.Errorf("returned off-site link %q", l.URL)
		}
		if visited[l.URL] {
			t.Errorf("returned visited link %q", l.URL)
		}
	}
}

// TestSameSite tests registrable-domain comparison.
func TestSameSite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"https://acme.com/", "https://acme.com/contact", true},
		{"https://www.acme.com/", "https://shop.acme.com/", true},
		{"https://acme.com/", "http://ACME.com:8080/x", true},
		{"https://acme.co.uk/", "https://www.acme.co.uk/", true},
		{"https://acme.co.uk/", "https://other.co.uk/", false},
		{"https://acme.com/", "https://acme.org/", false},
		{"https://acme.com/", "https://acme.com.evil.net/", false},
		{"http://127.0.0.1:8080/", "http://127.0.0.1:9090/a", true},
		{"http://127.0.0.1/", "http://127.0.0.2/", false},
		{"http://localhost:1/", "http://localhost:2/", true},
		{"https://acme.com/", "/relative", false},
		{"https://acme.com/", "http://[::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+" "+tt.b, func(t *testing.T) {
			t.Parallel()
			if got := SameSite(tt.a, tt.b); got != tt.want {
				t.Errorf("SameSite(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// TestNormalizeURL tests URL normalization for the visited set.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"https://Acme.com", "https://acme.com/"},
		{"HTTPS://acme.com/Contact#form", "https://acme.com/Contact"},
		{"https://acme.com/a?b=1", "https://acme.com/a?b=1"},
	}
	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := ensureScheme("acme.com/about"); got != "https://acme.com/about" {
		t.Errorf("ensureScheme = %q", got)
	}
	if got := ensureScheme("http://acme.com"); got != "http://acme.com" {
		t.Errorf("ensureScheme must keep schemes, got %q", got)
	}
	if got := NormalizeRoot("Acme.com"); got != "https://acme.com/" {
		t.Errorf("NormalizeRoot = %q", got)
	}
}

// TestMatchPattern tests glob pattern matching.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"prefix match", "/shop/*", "/shop/item", true},
		{"prefix exact", "/shop/*", "/shop", true},
		{"prefix no match", "/shop/*", "/blog/post", false},
		{"prefix partial no match", "/shop/*", "/shopping", false},
		{"nested prefix", "/shop/*", "/shop/a/b/c", true},
		{"pdf extension", "*.pdf", "/docs/menu.pdf", true},
		{"pdf extension case", "*.pdf", "/docs/MENU.PDF", true},
		{"pdf extension no match", "*.pdf", "/docs/menu.txt", false},
		{"exact match", "/logout", "/logout", true},
		{"exact no match", "/logout", "/login", false},
		{"single char", "/news/20??", "/news/2024", true},
		{"single char no match", "/news/20??", "/news/202", false},
		{"filename glob", "print-*", "/menu/print-version", true},
		{"root", "/", "/", true},
		{"bad pattern", "[", "/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}
