package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	uplog "github.com/nao1215/upcrawler/internal/log"
	"github.com/nao1215/upcrawler/internal/sitemap"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the articles listed in a candidate table",
		Long: `Download reads a candidate table written by the uris command and downloads
every listed translation into the output directory. Records already on disk
are not fetched again.

When --output is not given the records are written next to the table.

Examples:
  upcrawler download -i ./data/uris.csv
  upcrawler download -i ./uris.csv -o ./data --tags-mapping ./tags_mapping.json`,
		Args: cobra.NoArgs,
		RunE: runDownloadCmd,
	}

	cmd.Flags().StringP("input", "i", "", "Candidate table (CSV) to download")
	cmd.Flags().StringP("output", "o", "",
		"Output directory (default: the directory of the input table)")
	addConfigFlag(cmd)
	addNetworkFlags(cmd)
	addDownloadFlags(cmd)

	return cmd
}

// runDownloadCmd executes the download command.
func runDownloadCmd(cmd *cobra.Command, _ []string) error {
	input, err := cmd.Flags().GetString("input")
	if err != nil {
		return err
	}
	if input == "" {
		return errors.New("no candidate table given (use -i)")
	}
	if !changed(cmd, "output") {
		if err := cmd.Flags().Set("output", filepath.Dir(input)); err != nil {
			return err
		}
	}

	ctx, cancel, cfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	logger := uplog.FromContext(ctx)

	rows, err := sitemap.LoadTable(cfg.InputFile, time.Local)
	if err != nil {
		return fmt.Errorf("failed to read candidate table: %w", err)
	}
	logger.Info("loaded candidate table", "path", cfg.InputFile, "rows", len(rows))

	return download(ctx, cfg, newFetcher(cfg, logger), rows, cmd.OutOrStdout(), logger)
}
