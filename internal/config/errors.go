package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when neither a URL nor a lead file is given.
	ErrNoTarget = errors.New("no target specified: provide one or more URLs or use --input")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when a page budget is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidRetries is returned when fewer than one attempt is configured.
	ErrInvalidRetries = errors.New("invalid retries: at least one attempt is required")

	// ErrInvalidBaseDelay is returned when the backoff unit is negative.
	ErrInvalidBaseDelay = errors.New("invalid base delay: must be non-negative")

	// ErrInvalidRetryWorkers is returned when the retry concurrency is not positive.
	ErrInvalidRetryWorkers = errors.New("invalid retry workers: must be positive")

	// ErrInvalidRetryTimeout is returned when the per-site retry timeout is not positive.
	ErrInvalidRetryTimeout = errors.New("invalid retry timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidReference is returned when the reference point is outside
	// the valid latitude/longitude range.
	ErrInvalidReference = errors.New("invalid reference point: latitude must be in [-90,90] and longitude in [-180,180]")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
