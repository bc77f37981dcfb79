package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRetryCmd creates the retry command.
func NewRetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry [url]...",
		Short: "Re-crawl sites that failed in earlier runs",
		Long: `Retry re-crawls the sites recorded as failed in the session store, plus
any URLs given as arguments.

Sites are retried concurrently (--retry-workers) with a time limit per
site (--retry-timeout) and a smaller page budget (--retry-max-pages).
A site counts as recovered when its home page is fetched in time.
Recovered contacts are merged into the site's earlier result, whose
status becomes "Retry successful".

Examples:
  # Retry everything that failed before
  contactscan retry

  # Retry with more workers and a longer time limit
  contactscan retry --retry-workers 8 --retry-timeout 1m

  # Retry through the embedded Tor daemon
  contactscan retry --tor`,
		Args: cobra.ArbitraryArgs,
		RunE: runRetryCmd,
	}

	addCrawlFlags(cmd)
	addRetryFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runRetryCmd executes the retry command.
func runRetryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	return withApp(cmd, cfg, func(ctx context.Context, a *app) error {
		urls := append(append([]string{}, args...), a.store.FailedURLs()...)
		if len(urls) == 0 {
			fmt.Fprintln(a.out, "No failed sites to retry.")
			return nil
		}

		cfg.Targets = urls
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		return a.retry(ctx, urls)
	})
}
