package main

import (
	"context"
	"fmt"

	"github.com/nao1215/contactscan/internal/discovery"
	"github.com/spf13/cobra"
)

// NewEnrichCmd creates the enrich command.
func NewEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich --input <file>",
		Short: "Add contact details to a list of business leads",
		Long: `Enrich reads business leads from a CSV, YAML or Excel file and harvests
contact details from each lead's website.

Leads without a website are marked "No website". Leads hosted on a site
builder (wixsite.com, weebly.com, ...) are marked "Low-quality website"
and not crawled. Every other website is crawled and the lead gets a
status and confidence score from the outcome.

Lead files need a name column; website, address, phone, rating, reviews,
hours, price, category, lat and lng columns are used when present.

Examples:
  # Enrich leads and print a summary
  contactscan enrich --input leads.csv

  # Compute distances from a reference point and export everything
  contactscan enrich -i leads.yaml --reference-lat 48.8566 --reference-lng 2.3522 \
    --csv out/contacts.csv --excel out/contacts.xlsx --sqlite out/contacts.db

  # JSON report with per-run metrics for the node_exporter textfile collector
  contactscan enrich -i leads.xlsx -j -o report.json --metrics-file contactscan.prom`,
		Args: cobra.ArbitraryArgs,
		RunE: runEnrichCmd,
	}

	addCrawlFlags(cmd)
	addRetryFlags(cmd)
	addReportFlags(cmd)
	cmd.Flags().StringP("input", "i", "", "Lead file (.csv, .yaml, .yml or .xlsx)")
	cmd.Flags().Float64("reference-lat", 0, "Reference latitude for distance calculation")
	cmd.Flags().Float64("reference-lng", 0, "Reference longitude for distance calculation")
	cmd.Flags().Bool("no-retry", false, "Skip the retry pass over failed sites")

	return cmd
}

// runEnrichCmd executes the enrich command. URLs given as arguments are
// enriched along with the leads from the input file.
func runEnrichCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	return withApp(cmd, cfg, func(ctx context.Context, a *app) error {
		records := recordsFromURLs(cfg.Targets)
		if cfg.InputFile != "" {
			source := discovery.NewFileSource(cfg.InputFile, discovery.WithLogger(a.logger))
			leads, err := source.Discover(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Loaded %d leads from %s\n", len(leads), source.Path())
			records = append(leads, records...)
		}
		return a.enrich(ctx, records)
	})
}
