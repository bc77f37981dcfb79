package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/log"
	"github.com/spf13/cobra"
)

// addCrawlFlags registers the flags shared by every command that fetches pages.
func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	// Fetch behavior
	f.DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request attempt")
	f.IntP("max-pages", "p", config.DefaultMaxPages,
		"Page budget per website (the home page is always fetched)")
	f.IntP("retries", "r", config.DefaultRetries,
		"Fetch attempts per page, including the first")
	f.Duration("base-delay", config.DefaultBaseDelay,
		"Base delay of the exponential backoff between attempts")
	f.Duration("crawl-delay", config.DefaultCrawlDelay,
		"Minimum interval between requests to the same host")
	f.Bool("strict-tls", false,
		"Verify TLS certificates (off by default because many small business sites have broken ones)")

	// Proxies
	f.StringSlice("proxy", nil,
		"Proxy endpoint scheme://[user:pass@]host:port; repeat for rotation")
	f.Bool("tor", false,
		"Start an embedded Tor daemon and add it to the proxy rotation")
	f.DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Files
	f.StringP("config", "c", "",
		"Configuration file path (default: .contactscan in current or home directory)")
	f.StringP("session", "s", "",
		"Session store path; a .json suffix selects the JSON backend (default: XDG data directory)")
	f.String("metrics-file", "",
		"Write crawl metrics in Prometheus text format to this file when the run ends")
}

// addRetryFlags registers the retry pass flags.
func addRetryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("retry-workers", config.DefaultRetryWorkers,
		"Number of failed sites re-crawled concurrently")
	f.Duration("retry-timeout", config.DefaultRetryTimeout,
		"Time limit of a single site re-crawl")
	f.Int("retry-max-pages", config.DefaultRetryMaxPages,
		"Page budget of a site re-crawl")
}

// addReportFlags registers the report and export flags.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	f.String("csv", "",
		"Export results to a CSV file")
	f.String("excel", "",
		"Export results to an Excel workbook")
	f.String("sqlite", "",
		"Append results to the businesses table of a SQLite database")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the secure logger for the --log-format flag, writing to
// the command's error stream.
func newLogger(cmd *cobra.Command, verbose bool) (*slog.Logger, error) {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format, err = cmd.Root().PersistentFlags().GetString("log-format")
		if err != nil {
			format = log.FormatText
		}
	}
	return log.New(cmd.ErrOrStderr(), format, verbose)
}

// hasFlag reports whether cmd defines the named flag.
func hasFlag(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Lookup(name) != nil
}

// buildConfig creates a Config from cobra command flags and the
// configuration file. Flags a command does not define keep their defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	f := cmd.Flags()

	var err error

	cfg.Timeout, err = f.GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = f.GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Retries, err = f.GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.BaseDelay, err = f.GetDuration("base-delay")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = f.GetDuration("crawl-delay")
	if err != nil {
		return nil, err
	}

	strictTLS, err := f.GetBool("strict-tls")
	if err != nil {
		return nil, err
	}
	cfg.InsecureSkipVerify = !strictTLS

	cfg.Proxies, err = f.GetStringSlice("proxy")
	if err != nil {
		return nil, err
	}

	cfg.UseTor, err = f.GetBool("tor")
	if err != nil {
		return nil, err
	}

	cfg.TorStartupTimeout, err = f.GetDuration("tor-timeout")
	if err != nil {
		return nil, err
	}

	sessionPath, err := f.GetString("session")
	if err != nil {
		return nil, err
	}
	if sessionPath != "" {
		cfg.SessionPath = sessionPath
	}

	cfg.MetricsFile, err = f.GetString("metrics-file")
	if err != nil {
		return nil, err
	}

	if hasFlag(cmd, "retry-workers") {
		if err := readRetryFlags(cmd, cfg); err != nil {
			return nil, err
		}
	}

	if hasFlag(cmd, "json") {
		if err := readReportFlags(cmd, cfg); err != nil {
			return nil, err
		}
	}

	if hasFlag(cmd, "reference-lat") {
		cfg.Reference, err = readReference(cmd)
		if err != nil {
			return nil, err
		}
	}

	if hasFlag(cmd, "no-retry") {
		cfg.SkipRetry, err = f.GetBool("no-retry")
		if err != nil {
			return nil, err
		}
	}

	if hasFlag(cmd, "input") {
		cfg.InputFile, err = f.GetString("input")
		if err != nil {
			return nil, err
		}
	}

	cfg.ConfigFilePath, err = f.GetString("config")
	if err != nil {
		return nil, err
	}
	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// loadConfigFile applies the configuration file to cfg.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise a missing file means "no site-specific configuration".
func loadConfigFile(cfg *config.Config) error {
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(cf)
	case explicitConfigPath:
		return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}
	return nil
}

// readRetryFlags copies the retry pass flags into cfg.
func readRetryFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error

	cfg.RetryWorkers, err = f.GetInt("retry-workers")
	if err != nil {
		return err
	}

	cfg.RetryTimeout, err = f.GetDuration("retry-timeout")
	if err != nil {
		return err
	}

	cfg.RetryMaxPages, err = f.GetInt("retry-max-pages")
	return err
}

// readReportFlags copies the report and export flags into cfg.
func readReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error

	cfg.JSONReport, err = f.GetBool("json")
	if err != nil {
		return err
	}

	cfg.MarkdownReport, err = f.GetBool("markdown")
	if err != nil {
		return err
	}

	cfg.ReportFile, err = f.GetString("output")
	if err != nil {
		return err
	}

	cfg.CSVFile, err = f.GetString("csv")
	if err != nil {
		return err
	}

	cfg.ExcelFile, err = f.GetString("excel")
	if err != nil {
		return err
	}

	cfg.SQLiteFile, err = f.GetString("sqlite")
	return err
}

// errPartialReference is returned when only one reference coordinate is given.
var errPartialReference = errors.New("--reference-lat and --reference-lng must be given together")

// readReference returns the distance reference point, or nil when neither
// coordinate was given.
func readReference(cmd *cobra.Command) (*config.Reference, error) {
	f := cmd.Flags()
	latSet, lngSet := f.Changed("reference-lat"), f.Changed("reference-lng")
	if !latSet && !lngSet {
		return nil, nil
	}
	if latSet != lngSet {
		return nil, errPartialReference
	}

	lat, err := f.GetFloat64("reference-lat")
	if err != nil {
		return nil, err
	}
	lng, err := f.GetFloat64("reference-lng")
	if err != nil {
		return nil, err
	}
	return &config.Reference{Lat: lat, Lng: lng}, nil
}
