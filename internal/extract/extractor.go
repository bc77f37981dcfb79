package extract

import (
	"html"
	"slices"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
)

// PageContacts is what one page yielded.
type PageContacts struct {
	// Emails holds validated addresses in order of appearance.
	Emails []model.Email

	// Social maps each platform to the first profile link on the page.
	Social map[model.SocialPlatform]string
}

// Addresses returns the bare email addresses.
func (p PageContacts) Addresses() []string {
	out := make([]string, 0, len(p.Emails))
	for _, e := range p.Emails {
		out = append(out, e.Address)
	}
	return out
}

// Empty reports whether nothing was found.
func (p PageContacts) Empty() bool {
	return len(p.Emails) == 0 && len(p.Social) == 0
}

// Extractor applies the email and social rules to page content.
// The zero value is not usable; create one with New.
type Extractor struct {
	blacklist []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithExtraBlacklist adds disqualifying substrings on top of DefaultBlacklist.
// Entries are matched case-insensitively; empty entries are ignored.
func WithExtraBlacklist(words ...string) Option {
	return func(e *Extractor) {
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" && !slices.Contains(e.blacklist, w) {
				e.blacklist = append(e.blacklist, w)
			}
		}
	}
}

// New creates an Extractor using DefaultBlacklist.
func New(opts ...Option) *Extractor {
	e := &Extractor{blacklist: slices.Clone(DefaultBlacklist)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract scans content fetched from pageURL. HTML character references
// are decoded first so that addresses written as "info&#64;acme.com" are
// found. Each email is scored with pageURL as its context.
func (e *Extractor) Extract(content, pageURL string) PageContacts {
	text := content
	if strings.Contains(text, "&") {
		text = html.UnescapeString(text)
	}

	addrs := findEmails(text, e.blacklist)
	emails := make([]model.Email, 0, len(addrs))
	for _, a := range addrs {
		emails = append(emails, model.Email{
			Address:    a,
			Category:   CategorizeEmail(a),
			Confidence: ConfidenceScore(a, pageURL),
		})
	}

	return PageContacts{
		Emails: emails,
		Social: FindSocialLinks(text),
	}
}
