package config

import (
	"maps"
	"strings"
)

// SiteConfig holds site-specific configuration for a single host.
// This allows customizing crawl behavior per website, e.g. sites that only
// answer with a consent cookie set or behind basic auth.
type SiteConfig struct {
	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global page budget for this site.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"max_pages,omitempty"`

	// IgnorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/shop/*", "*.pdf").
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`
}

// File represents the structure of the .contactscan configuration file.
type File struct {
	// Sites maps host names to their site-specific configurations.
	// Keys are host names without scheme (e.g., "acme.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Proxies are appended to the proxies given on the command line.
	Proxies []string `yaml:"proxies,omitempty"`

	// LowQualityDomains replaces the built-in site-builder list when set.
	LowQualityDomains []string `yaml:"low_quality_domains,omitempty"`

	// EmailBlacklist adds substrings that disqualify an email address, on
	// top of the built-in placeholder and no-reply list.
	EmailBlacklist []string `yaml:"email_blacklist,omitempty"`
}

// GetSiteConfig returns the configuration for a host. Lookups ignore a
// leading "www." so one entry covers both spellings. The site-specific
// configuration is merged over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(result.Headers) > 0 {
		result.Headers = maps.Clone(result.Headers)
	}

	host = strings.ToLower(host)
	siteConfig, ok := cf.Sites[host]
	if !ok {
		siteConfig, ok = cf.Sites[strings.TrimPrefix(host, "www.")]
	}
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}

	return result
}
