package crawler

import (
	"net"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize URLs because:
//  1. Same page can have different URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. Trailing slashes may or may not be significant
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// http://example.com and http://example.com/ are the same page.
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// isHTTPURL reports whether u is an absolute http or https URL with a host.
func isHTTPURL(u *url.URL) bool {
	if u == nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// siteKey returns the registrable domain (eTLD+1) for host.
// IP addresses, localhost and other single-label hosts have no registrable
// domain and are returned as they are. The port is ignored.
func siteKey(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	if host == "" || net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return host
	}
	if key, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return key
	}
	return host
}

// SameSite reports whether two URLs belong to the same registrable domain,
// so www.acme.com and shop.acme.com match while acme.com and acme.org do not.
func SameSite(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	if ua.Host == "" || ub.Host == "" {
		return false
	}
	return siteKey(ua.Host) == siteKey(ub.Host)
}

// ensureScheme prefixes bare hosts such as "acme.com/about" with https://.
func ensureScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}

// NormalizeRoot returns the form a root URL takes in crawl results and the
// session store, so "Acme.com" and "https://acme.com/" compare equal.
func NormalizeRoot(raw string) string {
	return normalizeURL(ensureScheme(raw))
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/shop/*" matches "/shop/item/1", "/shop"
//   - "*.pdf" matches "/docs/menu.pdf"
//   - "/news/20??" matches "/news/2024"
func matchPattern(pattern, path string) bool {
	// "/shop/*" matches anything below /shop as well as /shop itself.
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(strings.ToLower(path), strings.ToLower(ext)) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Patterns without a slash also match the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}

// ignored reports whether the path of target matches any pattern.
func ignored(patterns []string, target *url.URL) bool {
	if len(patterns) == 0 {
		return false
	}
	path := target.Path
	if path == "" {
		path = "/"
	}
	for _, p := range patterns {
		if matchPattern(p, path) {
			return true
		}
	}
	return false
}
