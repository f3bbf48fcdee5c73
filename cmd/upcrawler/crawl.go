package main

import (
	"github.com/spf13/cobra"

	uplog "github.com/nao1215/upcrawler/internal/log"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Find and download the articles published in a date range",
		Long: `Crawl resolves the articles published strictly between two dates from the
monthly sitemap archives, saves the candidate table (uris.csv) and downloads
every translation into the output directory.

Each article group gets its own directory holding one JSON record per
translation. Records already on disk are not fetched again, so an
interrupted crawl can be restarted with the same arguments.

Examples:
  # Crawl the last three days into ./data
  upcrawler crawl -o ./data

  # Crawl December 2023
  upcrawler crawl --from 2023-11-30 --to 2024-01-01 -o ./data

  # Wait up to 10 seconds between requests and write a Markdown report
  upcrawler crawl -t 10 --report md -o ./data`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Output directory (default: a new temporary directory)")
	addConfigFlag(cmd)
	addRangeFlags(cmd)
	addNetworkFlags(cmd)
	addDownloadFlags(cmd)

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	ctx, cancel, cfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	logger := uplog.FromContext(ctx)

	logger.Info("starting crawl",
		"from", cfg.DateFrom,
		"to", cfg.DateTo,
		"output", cfg.Output,
		"workers", cfg.Workers,
	)

	fetcher := newFetcher(cfg, logger)
	rows, _, err := resolveCandidates(ctx, cfg, fetcher, logger, false)
	if err != nil {
		return err
	}
	return download(ctx, cfg, fetcher, rows, cmd.OutOrStdout(), logger)
}
