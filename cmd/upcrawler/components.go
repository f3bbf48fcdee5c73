package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/upcrawler/internal/article"
	"github.com/nao1215/upcrawler/internal/config"
	"github.com/nao1215/upcrawler/internal/crawl"
	"github.com/nao1215/upcrawler/internal/database"
	"github.com/nao1215/upcrawler/internal/fetch"
	"github.com/nao1215/upcrawler/internal/model"
	"github.com/nao1215/upcrawler/internal/politeness"
	"github.com/nao1215/upcrawler/internal/report"
	"github.com/nao1215/upcrawler/internal/sitemap"
	"github.com/nao1215/upcrawler/internal/store"
	"github.com/nao1215/upcrawler/internal/tags"
)

// newFetcher creates the HTTP fetcher shared by every stage of a run.
func newFetcher(cfg *config.Config, logger *slog.Logger) *fetch.Fetcher {
	opts := []politeness.Option{politeness.WithJitter(cfg.Jitter)}
	if len(cfg.UserAgents) > 0 {
		opts = append(opts, politeness.WithUserAgents(cfg.UserAgents))
	}
	policy := politeness.FromTimeout(cfg.Timeout, opts...)
	if !policy.Enabled() {
		logger.Warn("politeness waits are disabled, the site may answer with 403")
	}

	retry := fetch.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.MaxRetries

	return fetch.New(
		fetch.WithHTTPClient(fetch.NewHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout)),
		fetch.WithPoliteness(policy),
		fetch.WithRetryPolicy(retry),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)
}

// newResolver creates the sitemap resolver.
func newResolver(cfg *config.Config, f sitemap.Fetcher, logger *slog.Logger) *sitemap.Resolver {
	opts := []sitemap.Option{
		sitemap.WithKinds(cfg.Kinds),
		sitemap.WithArchiveTemplate(cfg.ArchiveTemplate),
		sitemap.WithDomains(cfg.Domains),
		sitemap.WithLogger(logger),
	}
	if cfg.NewsFeed {
		opts = append(opts, sitemap.WithNewsFeed(sitemap.DefaultNewsFeedURI))
	}
	return sitemap.NewResolver(f, opts...)
}

// resolveCandidates resolves the configured date range and saves the
// candidate table into the output directory. With nameByRange a table
// written into a directory is named after its date span and size instead
// of uris.csv.
func resolveCandidates(ctx context.Context, cfg *config.Config, f sitemap.Fetcher, logger *slog.Logger, nameByRange bool) ([]model.CandidateURI, string, error) {
	rows, err := newResolver(cfg, f, logger).Resolve(ctx, cfg.DateFrom, cfg.DateTo)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve article URIs: %w", err)
	}

	target := cfg.Output
	if nameByRange {
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			target = filepath.Join(target, sitemap.TableFileName(rows))
		}
	}
	path, err := sitemap.SaveTable(target, rows)
	if err != nil {
		return nil, "", err
	}
	logger.Info("saved candidate table", "path", path, "rows", len(rows))
	return rows, path, nil
}

// indexPages returns the default tag index pages overridden by the
// configured ones.
func indexPages(cfg *config.Config) map[model.Language]string {
	pages := tags.DefaultIndexPages()
	for lang, uri := range cfg.TagIndexURLs {
		pages[model.Language(lang)] = uri
	}
	return pages
}

// openLedger opens the crawl ledger unless it is disabled. A ledger that
// cannot be opened is logged and skipped; the dataset does not depend on it.
func openLedger(cfg *config.Config, logger *slog.Logger) *database.CrawlDB {
	if cfg.NoDB {
		return nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("crawl ledger unavailable", "dir", cfg.DBDir, "error", err)
		return nil
	}
	logger.Debug("crawl ledger opened", "path", db.Path())
	return db
}

// download runs a crawl session over rows and prints its summary to out.
func download(ctx context.Context, cfg *config.Config, f crawl.Fetcher, rows []model.CandidateURI, out io.Writer, logger *slog.Logger) error {
	parser, err := article.NewParser(
		article.WithSkipPatterns(cfg.SkipPatterns),
		article.WithRawHTML(cfg.KeepRawHTML),
	)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	opts := []crawl.Option{
		crawl.WithWorkers(cfg.Workers),
		crawl.WithLogger(logger),
		crawl.WithParser(parser),
		crawl.WithDateRange(cfg.DateFrom, cfg.DateTo),
		crawl.WithDictionaryPath(cfg.TagsFile),
		crawl.WithIndexPages(indexPages(cfg)),
		crawl.WithSkipMalformed(cfg.SkipMalformed),
	}
	if cfg.NoTags {
		opts = append(opts, crawl.WithoutTags())
	}
	if db := openLedger(cfg, logger); db != nil {
		defer db.Close()
		opts = append(opts, crawl.WithLedger(db))
	}

	session, err := crawl.NewSession(f, store.New(cfg.Output), opts...)
	if err != nil {
		return err
	}

	summary, runErr := session.Run(ctx, rows)
	if summary != nil {
		if err := writeReports(cfg, summary, out, logger); err != nil && runErr == nil {
			runErr = err
		}
	}
	if errors.Is(runErr, crawl.ErrAborted) {
		return fmt.Errorf("%w; wait before retrying, the site blocks fast crawlers", runErr)
	}
	return runErr
}

// writeReports prints the summary and writes the report file, if any.
func writeReports(cfg *config.Config, summary *crawl.Summary, out io.Writer, logger *slog.Logger) error {
	w := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	if _, err := w.Write(summary); err != nil {
		return err
	}

	if cfg.ReportFormat == "" {
		return nil
	}
	format, err := report.ParseFormat(cfg.ReportFormat)
	if err != nil {
		return err
	}
	path, err := report.WriteFile(cfg.Output, format, summary)
	if err != nil {
		return err
	}
	logger.Info("report written", "path", path, "took", summary.Duration().Round(time.Millisecond))
	return nil
}
