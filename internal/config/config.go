package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Network values follow what works for small business websites on shared
// hosting: short timeouts, a handful of retries, and a small page budget
// because contact details almost always sit within two clicks of the home page.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "contactscan"

	// DefaultTimeout is the per-request timeout. Sites that cannot answer
	// within 15 seconds are retried rather than waited on.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxPages is the page budget of a primary crawl.
	DefaultMaxPages = 5

	// DefaultRetries is the number of attempts per fetch, including the first.
	DefaultRetries = 3

	// DefaultBaseDelay is the unit of the exponential backoff between attempts.
	DefaultBaseDelay = 2 * time.Second

	// DefaultRetryWorkers is the number of failed sites re-crawled concurrently.
	DefaultRetryWorkers = 3

	// DefaultRetryTimeout bounds a single site re-crawl during the retry pass.
	DefaultRetryTimeout = 30 * time.Second

	// DefaultRetryMaxPages is the page budget of a retry crawl. It is smaller
	// than the primary budget so the whole retry pass stays short.
	DefaultRetryMaxPages = 3

	// DefaultCrawlDelay is the minimum interval between requests to one host.
	// Zero disables the politeness limiter.
	DefaultCrawlDelay = time.Duration(0)

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap when --tor is used.
	DefaultTorStartupTimeout = 3 * time.Minute

	// SessionFileName is the default session store file inside the data directory.
	SessionFileName = "session.db"
)

// DefaultLowQualityDomains are hosted site-builder domains. Listings whose
// website lives on one of them rarely publish a real contact address, so
// they are scored without crawling.
var DefaultLowQualityDomains = []string{
	"wixsite.com",
	"weebly.com",
	"wordpress.com",
	"blogspot.com",
	"squarespace.com",
	"godaddysites.com",
	"site123.me",
}

// Config holds all configuration options for contactscan.
// This struct is populated from CLI flags and the optional config file and
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, RetryConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Timeout is the timeout of a single HTTP request attempt.
	Timeout time.Duration

	// MaxPages is the page budget of a primary crawl. The root page is
	// always fetched; 0 and 1 both mean "root page only".
	MaxPages int

	// Retries is the number of fetch attempts per URL, including the first.
	Retries int

	// BaseDelay is the backoff unit between fetch attempts.
	BaseDelay time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	// It defaults to true because many small business sites serve expired or
	// mismatched certificates and would otherwise be unreachable.
	// Use --strict-tls to turn verification on.
	InsecureSkipVerify bool

	// Proxies lists proxy endpoints in scheme://[user:pass@]host:port form.
	// Requests rotate through them round-robin. Empty means direct connections.
	Proxies []string

	// UseTor starts an embedded Tor daemon and adds its SOCKS5 endpoint
	// to the proxy rotation.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor daemon.
	TorStartupTimeout time.Duration

	// CrawlDelay is the minimum interval between requests to the same host.
	CrawlDelay time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// RetryWorkers is the concurrency of the retry pass.
	RetryWorkers int

	// RetryTimeout bounds each site re-crawl in the retry pass.
	RetryTimeout time.Duration

	// RetryMaxPages is the page budget of each site re-crawl.
	RetryMaxPages int

	// SkipRetry disables the retry pass after a batch.
	SkipRetry bool

	// SessionPath is the session store location. A ".json" suffix selects
	// the JSON file backend; anything else uses SQLite.
	SessionPath string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .contactscan in the current directory,
	// the user's home directory and the XDG config directory.
	ConfigFilePath string

	// SiteConfigs holds the configuration file contents.
	SiteConfigs *File

	// LowQualityDomains are site-builder domains scored without crawling.
	LowQualityDomains []string

	// EmailBlacklist holds extra substrings that disqualify an address.
	EmailBlacklist []string

	// Reference is the point distances are measured from. Nil disables
	// distance calculation.
	Reference *Reference

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable format.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// CSVFile, ExcelFile and SQLiteFile are optional export destinations.
	CSVFile    string
	ExcelFile  string
	SQLiteFile string

	// MetricsFile is where crawl metrics are written in Prometheus text
	// format when the run ends. Empty disables the dump.
	MetricsFile string

	// InputFile is the lead file (CSV or YAML) read by the enrich command.
	InputFile string

	// Targets are root URLs given directly on the command line.
	Targets []string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool
}

// Reference is a named point used for distance calculation.
type Reference struct {
	Lat float64
	Lng float64
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (timeouts, retry counts,
// and the TLS policy). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:            DefaultTimeout,
		MaxPages:           DefaultMaxPages,
		Retries:            DefaultRetries,
		BaseDelay:          DefaultBaseDelay,
		InsecureSkipVerify: true,
		TorStartupTimeout:  DefaultTorStartupTimeout,
		CrawlDelay:         DefaultCrawlDelay,
		MaxBodySize:        DefaultMaxBodySize,
		RetryWorkers:       DefaultRetryWorkers,
		RetryTimeout:       DefaultRetryTimeout,
		RetryMaxPages:      DefaultRetryMaxPages,
		SessionPath:        filepath.Join(XDGDataDir(), SessionFileName),
		LowQualityDomains:  append([]string(nil), DefaultLowQualityDomains...),
	}
}

// XDGDataDir returns the XDG data directory for contactscan.
// On Linux: ~/.local/share/contactscan
// On macOS: ~/Library/Application Support/contactscan
// On Windows: %LOCALAPPDATA%\contactscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for contactscan.
// On Linux: ~/.config/contactscan
// On macOS: ~/Library/Application Support/contactscan
// On Windows: %APPDATA%\contactscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 && c.InputFile == "" {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxPages < 0 || c.RetryMaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.Retries < 1 {
		return ErrInvalidRetries
	}

	if c.BaseDelay < 0 {
		return ErrInvalidBaseDelay
	}

	if c.RetryWorkers <= 0 {
		return ErrInvalidRetryWorkers
	}

	if c.RetryTimeout <= 0 {
		return ErrInvalidRetryTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Reference != nil {
		if c.Reference.Lat < -90 || c.Reference.Lat > 90 || c.Reference.Lng < -180 || c.Reference.Lng > 180 {
			return ErrInvalidReference
		}
	}

	return nil
}
