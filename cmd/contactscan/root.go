package main

import (
	"fmt"
	"os"

	"github.com/nao1215/contactscan/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for contactscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contactscan",
		Short: "Harvest contact details from business websites",
		Long: `contactscan crawls business websites for contact details: email addresses
and social media profiles (Facebook, Instagram, Twitter/X, LinkedIn).

Each site is crawled under a small page budget, starting from the home page
and following the links most likely to lead to contact information. Sites
that are completed are remembered in a session store and never crawled
twice; sites that fail are retried concurrently at the end of a run or
later with the retry command.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", log.FormatText, "Log output format (text or json)")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewEnrichCmd())
	cmd.AddCommand(NewRetryCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
