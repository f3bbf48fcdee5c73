package main

import (
	"fmt"

	"github.com/spf13/cobra"

	uplog "github.com/nao1215/upcrawler/internal/log"
)

// NewURIsCmd creates the uris command.
func NewURIsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uris",
		Short: "Save the candidate article table for a date range",
		Long: `Uris resolves the articles published strictly between two dates and writes
them to a CSV table without downloading anything. The table can be edited
and passed to the download command.

When --output is a directory the table is written inside it as uris.csv, or
as uris_list_<first>-<last>_<count>.csv with --name-by-range.

Examples:
  upcrawler uris --from 2023-12-01 --to 2023-12-31 -o ./data
  upcrawler uris --from "a week ago" -o ./week.csv
  upcrawler uris --from 2023-12-01 --to 2023-12-31 -o ./data --name-by-range`,
		Args: cobra.NoArgs,
		RunE: runURIsCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Output file or directory (default: a new temporary directory)")
	cmd.Flags().Bool("name-by-range", false,
		"Name a table written into a directory after its date span and row count")
	addConfigFlag(cmd)
	addRangeFlags(cmd)
	addNetworkFlags(cmd)

	return cmd
}

// runURIsCmd executes the uris command.
func runURIsCmd(cmd *cobra.Command, _ []string) error {
	ctx, cancel, cfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	logger := uplog.FromContext(ctx)

	nameByRange, err := cmd.Flags().GetBool("name-by-range")
	if err != nil {
		return err
	}
	rows, path, err := resolveCandidates(ctx, cfg, newFetcher(cfg, logger), logger, nameByRange)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d article URIs to %s\n", len(rows), path)
	return nil
}
