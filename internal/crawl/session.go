package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/upcrawler/internal/article"
	"github.com/nao1215/upcrawler/internal/database"
	"github.com/nao1215/upcrawler/internal/fetch"
	"github.com/nao1215/upcrawler/internal/model"
	"github.com/nao1215/upcrawler/internal/store"
	"github.com/nao1215/upcrawler/internal/tags"
)

const (
	// DefaultWorkers is the number of groups processed concurrently.
	DefaultWorkers = 2

	// MaxWorkers caps concurrency; the site answers bursts with 403.
	MaxWorkers = 4
)

// Fetcher retrieves and classifies one page.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*fetch.Result, error)
}

// Ledger records runs and per-translation outcomes.
// *database.CrawlDB implements it.
type Ledger interface {
	StartRun(ctx context.Context, run *database.Run) error
	RecordItem(ctx context.Context, item *database.Item) error
	FinishRun(ctx context.Context, runID, state, errMsg string) error
}

// Session downloads the article groups of one run.
// A Session is single-use; create a new one per run.
//
// Design decision: the record files and the tag dictionary are the
// dataset, and the ledger is only a log of what happened. Ledger failures
// are logged as warnings and never fail a run, and a run with no ledger
// produces the same files. Resuming relies on the record files alone: a
// translation whose file already exists is skipped without a request.
type Session struct {
	fetcher Fetcher
	store   *store.Store
	parser  *article.Parser
	logger  *slog.Logger
	ledger  Ledger

	workers       int
	runID         string
	dateFrom      string
	dateTo        string
	useTags       bool
	dictPath      string
	indexPages    map[model.Language]string
	skipMalformed bool

	mu         sync.Mutex
	state      State
	reconciler *tags.Reconciler
	tally      *tally

	// aborted is set on the first 403; no fetch starts after it.
	// Workers already inside a fetch are not cancelled. They finish that
	// request, see the flag and return without checkpointing, and the
	// translations they did not reach are fetched on the next run.
	aborted atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithWorkers sets how many groups are processed at once.
// Values are clamped to [1, MaxWorkers].
func WithWorkers(n int) Option {
	return func(s *Session) {
		s.workers = min(max(n, 1), MaxWorkers)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithParser sets the article parser.
func WithParser(p *article.Parser) Option {
	return func(s *Session) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithLedger records the run in l.
func WithLedger(l Ledger) Option {
	return func(s *Session) {
		s.ledger = l
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithDateRange stores the requested range in the summary and ledger.
func WithDateRange(from, to string) Option {
	return func(s *Session) {
		s.dateFrom = from
		s.dateTo = to
	}
}

// WithDictionaryPath sets the tag dictionary file.
// The default is tags_mapping.json in the output directory.
func WithDictionaryPath(path string) Option {
	return func(s *Session) {
		if path != "" {
			s.dictPath = path
		}
	}
}

// WithIndexPages sets the tag index pages used for bootstrapping.
func WithIndexPages(pages map[model.Language]string) Option {
	return func(s *Session) {
		if len(pages) > 0 {
			s.indexPages = pages
		}
	}
}

// WithoutTags disables the tag dictionary: nothing is bootstrapped,
// merged or written.
func WithoutTags() Option {
	return func(s *Session) {
		s.useTags = false
	}
}

// WithSkipMalformed makes pages without the required markup a per-item
// skip instead of a fatal error.
func WithSkipMalformed(skip bool) Option {
	return func(s *Session) {
		s.skipMalformed = skip
	}
}

// NewSession creates a session writing records into st.
func NewSession(f Fetcher, st *store.Store, opts ...Option) (*Session, error) {
	s := &Session{
		fetcher:    f,
		store:      st,
		logger:     slog.New(slog.DiscardHandler),
		workers:    DefaultWorkers,
		runID:      uuid.NewString(),
		useTags:    true,
		dictPath:   filepath.Join(st.Root(), tags.DefaultFileName),
		indexPages: tags.DefaultIndexPages(),
		tally:      newTally(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.parser == nil {
		p, err := article.NewParser(article.WithSkipPatterns(article.DefaultSkipPatterns))
		if err != nil {
			return nil, err
		}
		s.parser = p
	}

	s.logger = s.logger.With("run_id", s.runID)
	return s, nil
}

// RunID returns the id of the run.
func (s *Session) RunID() string {
	return s.runID
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	s.logger.Debug("session state changed", "from", prev.String(), "to", next.String())
}

// Run downloads every candidate row. The summary is returned even when
// Run fails. A 403 yields an error matching both ErrAborted and
// fetch.ErrForbidden.
func (s *Session) Run(ctx context.Context, rows []model.CandidateURI) (summary *Summary, err error) {
	groups := model.GroupCandidates(rows)
	summary = &Summary{
		RunID:      s.runID,
		DateFrom:   s.dateFrom,
		DateTo:     s.dateTo,
		OutputDir:  s.store.Root(),
		StartedAt:  time.Now(),
		Candidates: len(rows),
		Groups:     len(groups),
	}
	s.setState(StateInit)
	s.startLedger(ctx, summary)

	defer func() {
		if saveErr := s.flushDictionary(); saveErr != nil && err == nil {
			err = saveErr
		}
		if err != nil {
			s.setState(StateFailed)
			summary.Error = err.Error()
		} else {
			s.setState(StateDone)
		}
		s.fillSummary(summary)
		s.finishLedger(summary)
	}()

	if err := os.MkdirAll(s.store.Root(), 0750); err != nil {
		return summary, fmt.Errorf("failed to create output directory: %w", err)
	}

	if s.useTags {
		if err := s.loadDictionary(ctx, summary); err != nil {
			if errors.Is(err, fetch.ErrForbidden) {
				return summary, fmt.Errorf("%w: %w", ErrAborted, err)
			}
			return summary, err
		}
	}

	s.setState(StateProcessGroups)
	s.logger.Info("processing article groups",
		"groups", len(groups),
		"candidates", len(rows),
		"workers", s.workers,
	)

	if err := s.processGroups(ctx, groups); err != nil {
		return summary, err
	}
	if s.aborted.Load() {
		return summary, fmt.Errorf("%w: %w", ErrAborted, fetch.ErrForbidden)
	}
	return summary, nil
}

// loadDictionary reads the dictionary file or bootstraps a new one.
func (s *Session) loadDictionary(ctx context.Context, summary *Summary) error {
	if _, err := os.Stat(s.dictPath); err == nil {
		s.setState(StateLoadDict)
	} else {
		s.setState(StateBootstrapDict)
	}

	dict, created, err := tags.LoadOrBootstrap(ctx, s.dictPath, s.fetcher, s.indexPages, s.logger)
	if err != nil {
		return fmt.Errorf("failed to prepare tag dictionary: %w", err)
	}
	if created && s.State() == StateLoadDict {
		s.setState(StateBootstrapDict)
	}
	summary.Bootstrapped = created

	s.mu.Lock()
	s.reconciler = tags.NewReconciler(dict, s.logger)
	s.mu.Unlock()
	return nil
}

// processGroups fans groups out to the worker pool.
func (s *Session) processGroups(ctx context.Context, groups []model.Group) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, group := range groups {
		if s.aborted.Load() || gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if s.aborted.Load() {
				return nil
			}
			s.logger.Debug("processing group",
				"group", group.ID,
				"index", i+1,
				"total", len(groups),
			)
			return s.processGroup(gctx, group)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// processGroup handles the translations of one group in order and then
// checkpoints the dictionary.
//
// Design decision: the dictionary is written after every finished group
// rather than once at the end. A crash midway then loses at most the tags
// of the groups still in flight, and resuming merges them again from the
// records it reloads or refetches.
func (s *Session) processGroup(ctx context.Context, group model.Group) error {
	for _, row := range group.Rows {
		if s.aborted.Load() {
			return nil
		}
		outcome, path, err := s.processRow(ctx, row)
		s.tally.add(row.Language, outcome)
		s.recordItem(ctx, row, outcome, path, err)
		if err != nil {
			return fmt.Errorf("group %s: %s: %w", group.ID, row.URI, err)
		}
	}

	if s.aborted.Load() {
		return nil
	}
	s.tally.groupDone()
	return s.checkpoint()
}

// processRow handles one translation and reports what happened to it.
func (s *Session) processRow(ctx context.Context, row model.CandidateURI) (Outcome, string, error) {
	lang := row.Language
	path := s.store.Path(row.GroupID, lang, row.URI)

	if s.store.Exists(row.GroupID, lang, row.URI) {
		if s.reconciler == nil {
			s.logger.Debug("record exists, skipping", "path", path)
			return OutcomeExisting, path, nil
		}
		existing, err := s.store.Load(row.GroupID, lang, row.URI)
		if err == nil {
			s.logger.Debug("record exists, reusing its tags", "path", path)
			s.reconciler.Merge(existing.TagsFull, lang)
			return OutcomeExisting, path, nil
		}
		s.logger.Warn("existing record is unreadable, fetching again", "path", path, "error", err)
	}

	res, err := s.fetcher.Fetch(ctx, row.URI)
	if err != nil {
		return OutcomeFailed, "", err
	}

	switch res.Outcome {
	case fetch.OutcomeNotFound:
		s.logger.Info("translation not found, skipping", "uri", row.URI, "lang", lang.String())
		return OutcomeNotFound, "", nil
	case fetch.OutcomeForbidden:
		if s.aborted.CompareAndSwap(false, true) {
			s.logger.Error("access forbidden, stopping the crawl", "uri", row.URI)
		}
		return OutcomeForbidden, "", nil
	}

	if res.Document == nil {
		return s.malformed(row, fmt.Errorf("%w: response is not an HTML page", article.ErrMalformed))
	}
	a, err := s.parser.Parse(res.Document)
	if err != nil {
		return s.malformed(row, err)
	}

	a.URI = row.URI
	a.Language = lang
	a.GroupID = row.GroupID
	a.Date = model.NewDate(row.Date)

	saved, err := s.store.Save(a)
	if err != nil {
		return OutcomeFailed, "", err
	}
	if s.reconciler != nil {
		s.reconciler.Merge(a.TagsFull, lang)
	}
	s.logger.Debug("record saved", "path", saved)
	return OutcomeDownloaded, saved, nil
}

func (s *Session) malformed(row model.CandidateURI, err error) (Outcome, string, error) {
	if s.skipMalformed && errors.Is(err, article.ErrMalformed) {
		s.logger.Warn("skipping malformed page", "uri", row.URI, "error", err)
		return OutcomeMalformed, "", nil
	}
	return OutcomeFailed, "", err
}

// checkpoint writes the dictionary after a group.
func (s *Session) checkpoint() error {
	if s.reconciler == nil {
		return nil
	}
	if err := s.reconciler.Save(s.dictPath); err != nil {
		return fmt.Errorf("failed to checkpoint tag dictionary: %w", err)
	}
	return nil
}

// flushDictionary writes the dictionary one last time, whatever the
// outcome of the run.
func (s *Session) flushDictionary() error {
	s.mu.Lock()
	r := s.reconciler
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	if err := r.Save(s.dictPath); err != nil {
		s.logger.Error("failed to save tag dictionary", "path", s.dictPath, "error", err)
		return fmt.Errorf("failed to save tag dictionary: %w", err)
	}
	s.logger.Info("tag dictionary saved", "path", s.dictPath, "tags", r.Len())
	return nil
}

func (s *Session) fillSummary(summary *Summary) {
	summary.State = s.State()
	summary.FinishedAt = time.Now()
	summary.Counts, summary.GroupsDone = s.tally.snapshot()
	if s.reconciler != nil {
		summary.DictionarySize = s.reconciler.Len()
		summary.AddedTags = s.reconciler.Added()
	}
}

func (s *Session) startLedger(ctx context.Context, summary *Summary) {
	if s.ledger == nil {
		return
	}
	run := &database.Run{
		ID:         s.runID,
		DateFrom:   summary.DateFrom,
		DateTo:     summary.DateTo,
		OutputDir:  summary.OutputDir,
		Candidates: summary.Candidates,
		Groups:     summary.Groups,
		State:      StateInit.String(),
	}
	if err := s.ledger.StartRun(ctx, run); err != nil {
		s.logger.Warn("failed to record run start", "error", err)
	}
}

func (s *Session) recordItem(ctx context.Context, row model.CandidateURI, o Outcome, path string, itemErr error) {
	if s.ledger == nil {
		return
	}
	item := &database.Item{
		RunID:    s.runID,
		GroupID:  row.GroupID,
		Language: row.Language.String(),
		URI:      row.URI,
		Outcome:  string(o),
		Path:     path,
	}
	if itemErr != nil {
		item.Error = itemErr.Error()
	}
	// The run context may already be cancelled; the ledger entry is still wanted.
	if err := s.ledger.RecordItem(context.WithoutCancel(ctx), item); err != nil {
		s.logger.Warn("failed to record item", "uri", row.URI, "error", err)
	}
}

func (s *Session) finishLedger(summary *Summary) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.FinishRun(context.Background(), s.runID, summary.State.String(), summary.Error); err != nil {
		s.logger.Warn("failed to record run end", "error", err)
	}
}
