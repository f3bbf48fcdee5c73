package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/upcrawler/internal/sitemap"
	"github.com/nao1215/upcrawler/internal/store"
	"github.com/nao1215/upcrawler/internal/tags"
)

func TestDownloadCmd(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	out := t.TempDir()
	dbDir := t.TempDir()
	rows := testRows(srv)

	table, err := sitemap.SaveTable(out, rows)
	if err != nil {
		t.Fatalf("failed to save table: %v", err)
	}

	stdout, _, err := execute(t, "download",
		"-c", writeTestConfig(t, srv),
		"-i", table,
		"--db-dir", dbDir,
		"--report", "json",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "CRAWL SUMMARY") {
		t.Errorf("expected summary on stdout, got %q", stdout)
	}

	st := store.New(out)
	for _, row := range rows {
		if !st.Exists(row.GroupID, row.Language, row.URI) {
			t.Errorf("expected record for %s", row.URI)
		}
	}
	ukr, err := st.Load(rows[0].GroupID, rows[0].Language, rows[0].URI)
	if err != nil {
		t.Fatalf("failed to load record: %v", err)
	}
	if ukr.Title != "Новина" || ukr.GroupID != "7382312" {
		t.Errorf("unexpected record %+v", ukr)
	}

	dict, err := tags.Load(filepath.Join(out, tags.DefaultFileName))
	if err != nil {
		t.Fatalf("failed to load tag dictionary: %v", err)
	}
	if _, ok := dict["lviv"]; !ok {
		t.Errorf("expected tag observed in the article to be added, got %v", dict.IDs())
	}

	data, err := os.ReadFile(filepath.Join(out, "crawl_report.json"))
	if err != nil {
		t.Fatalf("expected report file: %v", err)
	}
	var report struct {
		State  string         `json:"state"`
		Totals map[string]int `json:"totals"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid report: %v", err)
	}
	if report.State != "done" || report.Totals["downloaded"] != 2 {
		t.Errorf("unexpected report state %q totals %v", report.State, report.Totals)
	}

	// A second run finds every record on disk.
	stdout, _, err = execute(t, "download",
		"-c", writeTestConfig(t, srv),
		"-i", table,
		"--no-db",
	)
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if !strings.Contains(stdout, "existing") {
		t.Errorf("expected existing records in summary, got %q", stdout)
	}

	status, _, err := execute(t, "status", "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	if !strings.Contains(status, "done") || !strings.Contains(status, "downloaded") {
		t.Errorf("expected the recorded run, got %q", status)
	}
}

func TestDownloadCmdForbidden(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	out := t.TempDir()
	rows := testRows(srv)
	rows[0].URI = srv.URL + "/blocked/news/2022/12/24/7382312/"

	table, err := sitemap.SaveTable(filepath.Join(out, "table.csv"), rows)
	if err != nil {
		t.Fatalf("failed to save table: %v", err)
	}

	stdout, _, err := execute(t, "download",
		"-c", writeTestConfig(t, srv),
		"-i", table,
		"-w", "1",
		"--no-db",
	)
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if !strings.Contains(err.Error(), "wait before retrying") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "forbidden") {
		t.Errorf("expected forbidden outcome in summary, got %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(out, tags.DefaultFileName)); err != nil {
		t.Errorf("expected tag dictionary to be saved on abort: %v", err)
	}
}

func TestDownloadCmdRequiresInput(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "download", "-c", writeConfigFile(t, ""))
	if err == nil || !strings.Contains(err.Error(), "-i") {
		t.Errorf("expected missing input error, got %v", err)
	}
}

func TestDownloadCmdMissingTable(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "download",
		"-c", writeConfigFile(t, ""),
		"-i", filepath.Join(t.TempDir(), "missing.csv"),
		"--no-db",
	)
	if err == nil || !strings.Contains(err.Error(), "candidate table") {
		t.Errorf("expected table error, got %v", err)
	}
}
