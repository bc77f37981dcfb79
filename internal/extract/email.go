package extract

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
)

const (
	// maxLocalPartLength is the RFC 5321 limit for the part before '@'.
	maxLocalPartLength = 64
	// maxAddressLength is the RFC 5321 limit for a whole forward path.
	maxAddressLength = 254
)

// emailPattern finds address candidates in free text. It is deliberately
// looser than RFC 5322; ValidateEmail does the strict check.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// DefaultBlacklist lists substrings that disqualify an address.
// They mark automated senders, site operators and placeholder data rather
// than a business contact.
var DefaultBlacklist = []string{
	"noreply",
	"no-reply",
	"admin",
	"test",
	"example",
	"dummy",
	"webmaster",
}

// categoryRule maps an address prefix to a category.
type categoryRule struct {
	prefix   string
	category model.EmailCategory
}

// categoryRules is evaluated top to bottom; the first matching prefix wins.
// Anything else containing '@' is general.
var categoryRules = []categoryRule{
	{prefix: "info@", category: model.EmailCategoryInfo},
	{prefix: "contact@", category: model.EmailCategoryContact},
	{prefix: "sales@", category: model.EmailCategorySales},
	{prefix: "support@", category: model.EmailCategorySupport},
	{prefix: "hello@", category: model.EmailCategoryHello},
}

// ValidateEmail reports whether addr is a well-formed address that does not
// contain any DefaultBlacklist substring (case-insensitive).
func ValidateEmail(addr string) bool {
	return validateEmail(addr, DefaultBlacklist)
}

func validateEmail(addr string, blacklist []string) bool {
	if !wellFormed(addr) {
		return false
	}
	lower := strings.ToLower(addr)
	for _, bad := range blacklist {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	return true
}

// wellFormed checks addr as a bare RFC 5322 addr-spec with a DNS-style domain.
//
// Design decision: We parse with net/mail and require the parsed address to
// equal the input. That rejects display names, comments and quoted local
// parts, none of which a page-scraped address should contain.
func wellFormed(addr string) bool {
	if len(addr) > maxAddressLength {
		return false
	}

	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || parsed.Name != "" {
		return false
	}

	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at > maxLocalPartLength {
		return false
	}
	return validDomain(addr[at+1:])
}

// validDomain requires at least two non-empty labels, none starting or
// ending with '-', and an alphabetic top-level label.
func validDomain(domain string) bool {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	tld := labels[len(labels)-1]
	for _, r := range tld {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(tld) >= 2
}

// CategorizeEmail classifies addr by its local part.
// Named role prefixes are checked in order, then any address with an '@' is
// general; a string without '@' is other.
func CategorizeEmail(addr string) model.EmailCategory {
	lower := strings.ToLower(addr)
	for _, rule := range categoryRules {
		if strings.HasPrefix(lower, rule.prefix) {
			return rule.category
		}
	}
	if strings.Contains(lower, "@") {
		return model.EmailCategoryGeneral
	}
	return model.EmailCategoryOther
}

// ConfidenceScore estimates how likely addr is a real business contact.
//
// The score starts at 0.5. Addresses mentioning contact or info gain 0.3;
// otherwise addresses mentioning sales or hello gain 0.2. A context that
// mentions contact (typically the URL of a contact page) adds another 0.2.
// The result never exceeds 1.0.
func ConfidenceScore(addr, context string) float64 {
	lower := strings.ToLower(addr)
	score := 0.5

	switch {
	case strings.Contains(lower, "contact"), strings.Contains(lower, "info"):
		score += 0.3
	case strings.Contains(lower, "sales"), strings.Contains(lower, "hello"):
		score += 0.2
	}

	if strings.Contains(strings.ToLower(context), "contact") {
		score += 0.2
	}

	return min(score, 1.0)
}

// findEmails returns every candidate in text that passes validation against
// blacklist, in order of appearance, without case-insensitive duplicates.
func findEmails(text string, blacklist []string) []string {
	candidates := emailPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))

	for _, c := range candidates {
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		if !validateEmail(c, blacklist) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
