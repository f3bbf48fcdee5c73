package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/upcrawler/internal/config"
	"github.com/nao1215/upcrawler/internal/export"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flatten downloaded articles into one CSV file",
		Long: `Export reads every article group in a crawl output directory and writes
one CSV row per group, with the URI, title, author, text and tags of each
translation side by side.

Examples:
  upcrawler export -i ./data
  upcrawler export -i ./data -o ./dataset/articles.csv`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("input", "i", "", "Crawl output directory")
	cmd.Flags().StringP("output", "o", "",
		"Output CSV file or directory (default: articles.csv in the input directory)")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	input, err := cmd.Flags().GetString("input")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if input == "" {
		return errors.New("no input directory given (use -i)")
	}
	if output == "" {
		output = input
	}

	logger := setupLogger(cmd, &config.Config{
		Verbose: getBoolFlag(cmd, "verbose"),
		Quiet:   getBoolFlag(cmd, "quiet"),
	})
	slog.SetDefault(logger)

	path, n, err := export.File(input, output, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d articles to %s\n", n, path)
	return nil
}
