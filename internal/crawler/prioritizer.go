package crawler

import (
	"cmp"
	"net/url"
	"slices"
	"strings"
)

// DefaultLinkLimit is how many links per page are expanded.
const DefaultLinkLimit = 3

// RuleTarget selects what a ScoreRule inspects.
type RuleTarget int

const (
	// TargetPath matches keywords against the lowercased URL path.
	TargetPath RuleTarget = iota
	// TargetText matches keywords against the lowercased context text.
	TargetText
)

// ScoreRule adds Weight to a link's score when any keyword occurs in the
// rule's target. Rules are cumulative.
type ScoreRule struct {
	Target   RuleTarget
	Keywords []string
	Weight   int
}

// DefaultRules ranks links by how likely they lead to contact details.
var DefaultRules = []ScoreRule{
	{Target: TargetPath, Keywords: []string{"contact", "about", "team"}, Weight: 3},
	{Target: TargetPath, Keywords: []string{"support", "help", "reach"}, Weight: 2},
	{Target: TargetText, Keywords: []string{"contact us", "get in touch"}, Weight: 2},
	{Target: TargetText, Keywords: []string{"@"}, Weight: 1},
}

// ScoredLink is a candidate link with its relevance score.
type ScoredLink struct {
	URL   string
	Score int
}

// Link is an outbound link together with the text that describes it,
// usually its anchor text.
type Link struct {
	URL  string
	Text string
}

// Prioritizer scores and ranks outbound links.
//
// Design decision: Scoring is a table of (target, keywords, weight) rules
// evaluated uniformly, so tuning the heuristics never touches control flow.
type Prioritizer struct {
	rules []ScoreRule
}

// PrioritizerOption configures a Prioritizer.
type PrioritizerOption func(*Prioritizer)

// WithRules replaces DefaultRules.
func WithRules(rules []ScoreRule) PrioritizerOption {
	return func(p *Prioritizer) {
		p.rules = rules
	}
}

// NewPrioritizer creates a Prioritizer using DefaultRules.
func NewPrioritizer(opts ...PrioritizerOption) *Prioritizer {
	p := &Prioritizer{
		rules: DefaultRules,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Score returns the cumulative weight of every rule matching rawURL's path
// or the snippet. An unparsable URL is scored on the snippet only.
func (p *Prioritizer) Score(rawURL, snippet string) int {
	var path string
	if u, err := url.Parse(rawURL); err == nil {
		path = strings.ToLower(u.Path)
	}
	text := strings.ToLower(snippet)

	score := 0
	for _, rule := range p.rules {
		subject := path
		if rule.Target == TargetText {
			subject = text
		}
		if subject == "" {
			continue
		}
		if containsAny(subject, rule.Keywords) {
			score += rule.Weight
		}
	}
	return score
}

// Rank scores every link and orders them by score, highest first. Links that
// normalize to the same URL are merged, keeping the best score. Equal scores
// keep their order of first appearance.
func (p *Prioritizer) Rank(links []Link) []ScoredLink {
	ranked := make([]ScoredLink, 0, len(links))
	index := make(map[string]int, len(links))

	for _, l := range links {
		key := normalizeURL(l.URL)
		score := p.Score(key, l.Text)
		if i, ok := index[key]; ok {
			ranked[i].Score = max(ranked[i].Score, score)
			continue
		}
		index[key] = len(ranked)
		ranked = append(ranked, ScoredLink{URL: key, Score: score})
	}

	slices.SortStableFunc(ranked, func(a, b ScoredLink) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

// Eligible reports whether rawURL may be crawled from root: it must be an
// absolute http(s) URL on the same registrable domain and not yet visited.
// visited may be nil.
func (p *Prioritizer) Eligible(root, rawURL string, visited func(string) bool) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !isHTTPURL(u) {
		return false
	}
	if !SameSite(root, rawURL) {
		return false
	}
	return visited == nil || !visited(normalizeURL(rawURL))
}

// Select filters links to the eligible ones, ranks them and returns at most
// DefaultLinkLimit links, dropping links that score zero.
func (p *Prioritizer) Select(root string, links []Link, visited func(string) bool) []ScoredLink {
	eligible := make([]Link, 0, len(links))
	for _, l := range links {
		if p.Eligible(root, l.URL, visited) {
			eligible = append(eligible, l)
		}
	}
	return Top(p.Rank(eligible), DefaultLinkLimit)
}

// Top returns the first n ranked links with a positive score.
func Top(ranked []ScoredLink, n int) []ScoredLink {
	if n <= 0 {
		return []ScoredLink{}
	}
	out := make([]ScoredLink, 0, min(n, len(ranked)))
	for _, l := range ranked {
		if len(out) >= n {
			break
		}
		if l.Score <= 0 {
			// ranked is sorted, nothing positive follows
			break
		}
		out = append(out, l)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
