package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/upcrawler/internal/config"
	"github.com/nao1215/upcrawler/internal/crawl"
	"github.com/nao1215/upcrawler/internal/database"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show recorded crawl runs",
		Long: `Status lists the most recent runs recorded in the crawl ledger with their
outcome counts. Given a run id it shows that run, and with --outcome it
lists the matching translations.

Examples:
  upcrawler status
  upcrawler status --limit 3
  upcrawler status 6f1c... --outcome failed`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStatusCmd,
	}

	cmd.Flags().IntP("limit", "n", 10, "Number of runs to list")
	cmd.Flags().String("outcome", "", "List the items of the run with this outcome")
	cmd.Flags().String("db-dir", "", "Crawl ledger directory (default: XDG data directory)")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	outcome, err := cmd.Flags().GetString("outcome")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	if outcome != "" && len(args) == 0 {
		return errors.New("--outcome needs a run id")
	}

	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open crawl ledger: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		runs, err := db.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded yet.")
			return nil
		}
		for _, run := range runs {
			counts, err := db.OutcomeCounts(ctx, run.ID)
			if err != nil {
				return err
			}
			printRun(out, run, counts)
		}
		return nil
	}

	run, err := db.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	counts, err := db.OutcomeCounts(ctx, run.ID)
	if err != nil {
		return err
	}
	printRun(out, run, counts)

	if outcome == "" {
		return nil
	}
	items, err := db.ListItems(ctx, run.ID, outcome)
	if err != nil {
		return err
	}
	for _, item := range items {
		line := fmt.Sprintf("  %s %s %s", item.GroupID, item.Language, item.URI)
		if item.Error != "" {
			line += " (" + item.Error + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func printRun(out io.Writer, run *database.Run, counts map[string]int) {
	fmt.Fprintf(out, "%s  %s  %s\n", run.ID, run.StartedAt.Local().Format(time.DateTime), run.State)
	if run.DateFrom != "" || run.DateTo != "" {
		fmt.Fprintf(out, "  range:  %s .. %s\n", run.DateFrom, run.DateTo)
	}
	fmt.Fprintf(out, "  output: %s\n", run.OutputDir)
	fmt.Fprintf(out, "  groups: %d, candidates: %d\n", run.Groups, run.Candidates)
	for _, o := range crawl.Outcomes() {
		if n := counts[string(o)]; n > 0 {
			fmt.Fprintf(out, "  %-10s %d\n", o, n)
		}
	}
	if run.Error != "" {
		fmt.Fprintf(out, "  error:  %s\n", run.Error)
	}
}
