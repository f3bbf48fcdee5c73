package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for upcrawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upcrawler",
		Short: "Polite crawler for Ukrainska Pravda news articles",
		Long: `upcrawler builds a multilingual news dataset from pravda.com.ua.

It reads the monthly sitemap archives to find the articles published in a
date range, downloads every translation (Ukrainian, Russian, English) with
randomized waits between requests, and writes one JSON record per
translation. Tags are reconciled across languages into tags_mapping.json.

A 403 response stops the run: the site blocks clients that crawl too fast.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewURIsCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewStatusCmd())
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
