package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/crawler"
	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/contactscan/internal/report"
	"github.com/nao1215/contactscan/internal/session"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the session store",
		Long: `History shows what the session store remembers: the sites that were
completed (and will not be crawled again), the sites that failed, and
the latest result saved for each business.

Examples:
  # Summary of the default session
  contactscan history

  # List the sites still waiting for a retry
  contactscan history --failed

  # Dump the raw session record
  contactscan history -s session.json --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("session", "s", "",
		"Session store path (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Print the raw session record as JSON")
	cmd.Flags().Bool("failed", false,
		"List the failed sites that have not been completed since")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("session")
	if err != nil {
		return err
	}
	if path == "" {
		path = config.NewConfig().SessionPath
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	listFailed, err := cmd.Flags().GetBool("failed")
	if err != nil {
		return err
	}

	verbose := getVerboseFlag(cmd)
	logger, err := newLogger(cmd, verbose)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "No session found at %s\n", path)
		return nil
	}

	backend, err := openBackend(path, false)
	if err != nil {
		return err
	}
	store := session.Open(cmd.Context(), backend, logger)
	defer store.Close() //nolint:errcheck // Read-only use

	record := store.Snapshot()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(record)
	}

	pending := store.FailedURLs()
	latest := latestResults(record.Results)

	fmt.Fprintf(out, "Session:         %s\n", path)
	fmt.Fprintf(out, "Schema version:  %d\n", record.Version)
	fmt.Fprintf(out, "Completed sites: %d\n", len(record.Completed))
	fmt.Fprintf(out, "Failed sites:    %d (%d awaiting retry)\n", len(record.Failed), len(pending))
	fmt.Fprintf(out, "Saved results:   %d (%d businesses)\n", len(record.Results), len(latest))

	if listFailed {
		fmt.Fprintln(out, "\nAwaiting retry:")
		if len(pending) == 0 {
			fmt.Fprintln(out, "  none")
		}
		for _, u := range pending {
			fmt.Fprintf(out, "  %s\n", u)
		}
	}

	if len(latest) == 0 {
		return nil
	}
	_, err = report.NewSimpleWriter(out, report.WithVerbose(verbose)).Write(latest)
	return err
}

// latestResults keeps the last saved result of every business, in the
// order businesses first appear. Businesses are identified by website, or
// by name when they have none.
func latestResults(results []model.Business) []model.Business {
	index := make(map[string]int, len(results))
	out := make([]model.Business, 0, len(results))
	for _, b := range results {
		key := "name:" + strings.ToLower(strings.TrimSpace(b.Name))
		if b.HasWebsite() {
			key = crawler.NormalizeRoot(b.Website)
		}
		if i, ok := index[key]; ok {
			out[i] = b
			continue
		}
		index[key] = len(out)
		out = append(out, b)
	}
	return out
}
