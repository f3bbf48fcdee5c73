package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the ledger database file inside its directory.
const FileName = "upcrawler.db"

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// CrawlDB is the SQLite-backed crawl ledger.
// It is safe for concurrent use; writes are serialized by the single connection.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers do not block the crawler.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the ledger in dbDir.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; workers share one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		date_from TEXT,
		date_to TEXT,
		output_dir TEXT NOT NULL,
		candidates INTEGER DEFAULT 0,
		groups_total INTEGER DEFAULT 0,
		state TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		group_id TEXT NOT NULL,
		lang TEXT NOT NULL,
		uri TEXT NOT NULL,
		outcome TEXT NOT NULL,
		path TEXT,
		error TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, uri)
	);

	CREATE INDEX IF NOT EXISTS idx_items_run ON items(run_id);
	CREATE INDEX IF NOT EXISTS idx_items_uri ON items(uri);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one crawl invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	DateFrom   string
	DateTo     string
	OutputDir  string
	Candidates int
	Groups     int
	State      string
	Error      string
}

// Item is the outcome of one translation within a run.
type Item struct {
	RunID     string
	GroupID   string
	Language  string
	URI       string
	Outcome   string
	Path      string
	Error     string
	Timestamp time.Time
}

// StartRun inserts a new run.
func (cdb *CrawlDB) StartRun(ctx context.Context, run *Run) error {
	query := `
	INSERT INTO runs (id, date_from, date_to, output_dir, candidates, groups_total, state)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := cdb.db.ExecContext(ctx, query,
		run.ID, run.DateFrom, run.DateTo, run.OutputDir, run.Candidates, run.Groups, run.State)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final state and error message of a run.
func (cdb *CrawlDB) FinishRun(ctx context.Context, runID, state, errMsg string) error {
	query := `
	UPDATE runs SET state = ?, error = ?, finished_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`
	res, err := cdb.db.ExecContext(ctx, query, state, nullString(errMsg), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// RecordItem stores the outcome of one translation. Recording the same URI
// twice in a run keeps the latest outcome.
func (cdb *CrawlDB) RecordItem(ctx context.Context, item *Item) error {
	query := `
	INSERT INTO items (run_id, group_id, lang, uri, outcome, path, error)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, uri) DO UPDATE SET
		outcome = excluded.outcome,
		path = excluded.path,
		error = excluded.error,
		timestamp = CURRENT_TIMESTAMP
	`
	_, err := cdb.db.ExecContext(ctx, query,
		item.RunID, item.GroupID, item.Language, item.URI, item.Outcome,
		nullString(item.Path), nullString(item.Error))
	if err != nil {
		return fmt.Errorf("failed to record item: %w", err)
	}
	return nil
}

// GetRun returns a run by id.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID string) (*Run, error) {
	query := `
	SELECT id, started_at, finished_at, date_from, date_to, output_dir, candidates, groups_total, state, error
	FROM runs WHERE id = ?
	`
	run, err := scanRun(cdb.db.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
	SELECT id, started_at, finished_at, date_from, date_to, output_dir, candidates, groups_total, state, error
	FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`
	rows, err := cdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// OutcomeCounts returns the number of items per outcome for a run.
func (cdb *CrawlDB) OutcomeCounts(ctx context.Context, runID string) (map[string]int, error) {
	query := `SELECT outcome, COUNT(*) FROM items WHERE run_id = ? GROUP BY outcome`
	rows, err := cdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// ListItems returns the items of a run, optionally restricted to one outcome.
func (cdb *CrawlDB) ListItems(ctx context.Context, runID, outcome string) ([]Item, error) {
	query := `
	SELECT run_id, group_id, lang, uri, outcome, path, error, timestamp
	FROM items WHERE run_id = ?
	`
	args := []any{runID}
	if outcome != "" {
		query += " AND outcome = ?"
		args = append(args, outcome)
	}
	query += " ORDER BY id"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var path, errMsg sql.NullString
		var timestamp string
		if err := rows.Scan(&item.RunID, &item.GroupID, &item.Language, &item.URI,
			&item.Outcome, &path, &errMsg, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Path = path.String
		item.Error = errMsg.String
		item.Timestamp = parseTimestamp(timestamp)
		items = append(items, item)
	}
	return items, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var started string
	var finished, from, to, errMsg sql.NullString
	if err := row.Scan(&run.ID, &started, &finished, &from, &to, &run.OutputDir,
		&run.Candidates, &run.Groups, &run.State, &errMsg); err != nil {
		return nil, err
	}
	run.StartedAt = parseTimestamp(started)
	if finished.Valid {
		run.FinishedAt = parseTimestamp(finished.String)
	}
	run.DateFrom = from.String
	run.DateTo = to.String
	run.Error = errMsg.String
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timestampFormats contains the timestamp formats that SQLite may return.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a timestamp in any of timestampFormats.
// It returns the zero time when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
