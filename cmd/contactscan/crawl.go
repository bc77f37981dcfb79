package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/contactscan/internal/config"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]...",
		Short: "Harvest contact details from one or more websites",
		Long: `Crawl harvests email addresses and social media profiles from websites.

Each site is crawled from its home page, following at most three of the
links most likely to lead to contact details (contact, about, team...)
on every page, within the page budget. Sites completed by an earlier run
are not crawled again; sites that fail are retried at the end of the run.

Examples:
  # Crawl a single website
  contactscan crawl https://acme.com

  # Crawl several websites, scheme optional
  contactscan crawl acme.com example.org

  # Rotate requests through proxies
  contactscan crawl --proxy http://10.0.0.1:8080 --proxy socks5://10.0.0.2:1080 acme.com

  # Add an embedded Tor daemon to the proxy rotation
  contactscan crawl --tor acme.com

  # Output a Markdown report and export a spreadsheet
  contactscan crawl -m -o report.md --excel contacts.xlsx acme.com

Configuration file (.contactscan) example:
  sites:
    acme.com:
      cookie: "consent=yes"
      max_pages: 8
      ignore_patterns:
        - "/shop/*"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)
	addRetryFlags(cmd)
	addReportFlags(cmd)
	cmd.Flags().Bool("no-retry", false, "Skip the retry pass over failed sites")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	return withApp(cmd, cfg, func(ctx context.Context, a *app) error {
		return a.enrich(ctx, recordsFromURLs(cfg.Targets))
	})
}

// withApp runs fn with a fully set up app and a context that is cancelled
// on SIGINT or SIGTERM. The app is closed when fn returns.
func withApp(cmd *cobra.Command, cfg *config.Config, fn func(ctx context.Context, a *app) error) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	err = fn(ctx, a)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("run cancelled by signal")
	}
	return err
}
