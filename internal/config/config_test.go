package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Tests fail if defaults change unexpectedly, so changes to defaults are intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 15 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 15*time.Second {
			t.Errorf("expected Timeout to be 15s, got %v", cfg.Timeout)
		}
	})

	t.Run("default retry policy is 3 attempts with 2s base delay", func(t *testing.T) {
		t.Parallel()
		if cfg.Retries != 3 {
			t.Errorf("expected Retries to be 3, got %d", cfg.Retries)
		}
		if cfg.BaseDelay != 2*time.Second {
			t.Errorf("expected BaseDelay to be 2s, got %v", cfg.BaseDelay)
		}
	})

	t.Run("default retry pass is 3 workers with 30s timeout", func(t *testing.T) {
		t.Parallel()
		if cfg.RetryWorkers != 3 {
			t.Errorf("expected RetryWorkers to be 3, got %d", cfg.RetryWorkers)
		}
		if cfg.RetryTimeout != 30*time.Second {
			t.Errorf("expected RetryTimeout to be 30s, got %v", cfg.RetryTimeout)
		}
		if cfg.RetryMaxPages != 3 {
			t.Errorf("expected RetryMaxPages to be 3, got %d", cfg.RetryMaxPages)
		}
	})

	t.Run("TLS verification is skipped by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.InsecureSkipVerify {
			t.Error("expected InsecureSkipVerify to be true")
		}
	})

	t.Run("default session store lives in the data dir", func(t *testing.T) {
		t.Parallel()
		if filepath.Dir(cfg.SessionPath) != XDGDataDir() {
			t.Errorf("unexpected session path %q", cfg.SessionPath)
		}
	})

	t.Run("default low-quality domains", func(t *testing.T) {
		t.Parallel()
		if !slices.Contains(cfg.LowQualityDomains, "wixsite.com") || len(cfg.LowQualityDomains) != 7 {
			t.Errorf("unexpected low-quality domains %v", cfg.LowQualityDomains)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "valid config returns nil", modify: func(*Config) {}, want: nil},
		{name: "input file alone is valid", modify: func(c *Config) { c.Targets = nil; c.InputFile = "leads.csv" }, want: nil},
		{name: "no targets returns ErrNoTarget", modify: func(c *Config) { c.Targets = nil }, want: ErrNoTarget},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "zero max pages is valid", modify: func(c *Config) { c.MaxPages = 0 }, want: nil},
		{name: "negative max pages", modify: func(c *Config) { c.MaxPages = -1 }, want: ErrInvalidMaxPages},
		{name: "zero retries", modify: func(c *Config) { c.Retries = 0 }, want: ErrInvalidRetries},
		{name: "negative base delay", modify: func(c *Config) { c.BaseDelay = -time.Second }, want: ErrInvalidBaseDelay},
		{name: "zero retry workers", modify: func(c *Config) { c.RetryWorkers = 0 }, want: ErrInvalidRetryWorkers},
		{name: "zero retry timeout", modify: func(c *Config) { c.RetryTimeout = 0 }, want: ErrInvalidRetryTimeout},
		{name: "json and markdown", modify: func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, want: ErrConflictingReportFormats},
		{name: "negative crawl delay", modify: func(c *Config) { c.CrawlDelay = -1 }, want: ErrInvalidCrawlDelay},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, want: ErrInvalidMaxBodySize},
		{name: "latitude out of range", modify: func(c *Config) { c.Reference = &Reference{Lat: 91} }, want: ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.Targets = []string{"https://acme.com"}
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("expected nil, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestFileGetSiteConfig tests site configuration merging.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Cookie:   "consent=yes",
			Headers:  map[string]string{"Accept-Language": "en-US"},
			MaxPages: 4,
		},
		Sites: map[string]SiteConfig{
			"acme.com": {
				Headers:        map[string]string{"Authorization": "Basic abc"},
				MaxPages:       8,
				IgnorePatterns: []string{"/shop/*"},
			},
		},
	}

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()
		got := cf.GetSiteConfig("other.com")
		if got.Cookie != "consent=yes" || got.MaxPages != 4 {
			t.Errorf("unexpected config %+v", got)
		}
	})

	t.Run("merges site over defaults", func(t *testing.T) {
		t.Parallel()
		got := cf.GetSiteConfig("acme.com")
		if got.MaxPages != 8 {
			t.Errorf("expected max pages 8, got %d", got.MaxPages)
		}
		if got.Cookie != "consent=yes" {
			t.Errorf("expected default cookie to survive, got %q", got.Cookie)
		}
		if len(got.Headers) != 2 {
			t.Errorf("expected merged headers, got %v", got.Headers)
		}
		if len(got.IgnorePatterns) != 1 {
			t.Errorf("expected 1 ignore pattern, got %v", got.IgnorePatterns)
		}
	})

	t.Run("www prefix falls back to bare host", func(t *testing.T) {
		t.Parallel()
		if got := cf.GetSiteConfig("WWW.acme.com"); got.MaxPages != 8 {
			t.Errorf("expected www lookup to find acme.com, got %+v", got)
		}
	})

	t.Run("merging does not modify defaults", func(t *testing.T) {
		t.Parallel()
		_ = cf.GetSiteConfig("acme.com")
		if len(cf.Defaults.Headers) != 1 {
			t.Errorf("defaults were modified: %v", cf.Defaults.Headers)
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.contactscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".contactscan")
		content := `defaults:
  max_pages: 4
sites:
  acme.com:
    cookie: "session=xyz"
    headers:
      Authorization: "Bearer token"
    ignore_patterns:
      - "/shop/*"
proxies:
  - "http://10.0.0.1:8080"
  - "socks5://127.0.0.1:1080"
low_quality_domains:
  - "example-builder.com"
email_blacklist:
  - "careers"
  - "jobs"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Defaults.MaxPages != 4 {
			t.Errorf("expected default max pages 4, got %d", cf.Defaults.MaxPages)
		}
		site, ok := cf.Sites["acme.com"]
		if !ok {
			t.Fatal("expected acme.com in sites")
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Error("expected Authorization header")
		}
		if len(cf.Proxies) != 2 {
			t.Errorf("expected 2 proxies, got %v", cf.Proxies)
		}

		cfg := NewConfig()
		cfg.Proxies = []string{"http://10.0.0.9:3128"}
		cfg.Apply(cf)
		if len(cfg.Proxies) != 3 {
			t.Errorf("expected file proxies to be appended, got %v", cfg.Proxies)
		}
		if !slices.Equal(cfg.LowQualityDomains, []string{"example-builder.com"}) {
			t.Errorf("expected low-quality list to be replaced, got %v", cfg.LowQualityDomains)
		}
		if !slices.Equal(cfg.EmailBlacklist, []string{"careers", "jobs"}) {
			t.Errorf("expected the email blacklist from the file, got %v", cfg.EmailBlacklist)
		}
		if got := cfg.SiteConfigFor("acme.com"); got.Cookie != "session=xyz" {
			t.Errorf("unexpected site config %+v", got)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".contactscan")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".contactscan")
		if err := os.WriteFile(configPath, []byte("defaults:\n  max_pages: 2\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestSiteConfigForWithoutFile tests the zero value fallback.
func TestSiteConfigForWithoutFile(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if got := cfg.SiteConfigFor("acme.com"); got.Cookie != "" || got.MaxPages != 0 {
		t.Errorf("expected zero site config, got %+v", got)
	}
	cfg.Apply(nil)
	if cfg.SiteConfigs != nil {
		t.Error("expected Apply(nil) to be a no-op")
	}
}
