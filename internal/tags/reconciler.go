package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/nao1215/upcrawler/internal/article"
	"github.com/nao1215/upcrawler/internal/fetch"
	"github.com/nao1215/upcrawler/internal/model"
)

// Tag index pages of the editions that have one. The English edition
// lists no tags of its own.
const (
	IndexURIUkrainian = "https://www.pravda.com.ua/tags/"
	IndexURIRussian   = "https://www.pravda.com.ua/rus/tags/"
)

// DefaultIndexPages maps each edition to its tag index page.
func DefaultIndexPages() map[model.Language]string {
	return map[model.Language]string{
		model.LanguageUkrainian: IndexURIUkrainian,
		model.LanguageRussian:   IndexURIRussian,
	}
}

// Fetcher retrieves and classifies one page.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*fetch.Result, error)
}

// Bootstrap builds a dictionary from the tag index pages. A page that is
// not found contributes no tags; a 403 aborts with fetch.ErrForbidden.
func Bootstrap(ctx context.Context, f Fetcher, pages map[model.Language]string, logger *slog.Logger) (Dictionary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("creating tag dictionary from tag index pages")

	listed := make(map[model.Language]map[string]model.Tag, len(pages))
	for lang, uri := range pages {
		result, err := f.Fetch(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tag index %s: %w", uri, err)
		}

		switch result.Outcome {
		case fetch.OutcomeForbidden:
			return nil, fmt.Errorf("tag index %s: %w", uri, fetch.ErrForbidden)
		case fetch.OutcomeNotFound:
			logger.Warn("tag index page not found", "uri", uri)
			listed[lang] = map[string]model.Tag{}
			continue
		}

		page, err := article.ParseTagIndex(result.Document)
		if err != nil {
			return nil, fmt.Errorf("tag index %s: %w", uri, err)
		}
		listed[lang] = page
	}

	d := Union(listed)
	logger.Info("created tag dictionary", "tags", len(d))
	return d, nil
}

// Reconciler owns the dictionary for the duration of a run and serializes
// every mutation and save.
type Reconciler struct {
	mu     sync.Mutex
	dict   Dictionary
	added  []string
	logger *slog.Logger

	// saveMu orders file writes so an older snapshot never replaces a newer one.
	saveMu sync.Mutex
}

// NewReconciler wraps d. A nil d starts an empty dictionary.
func NewReconciler(d Dictionary, logger *slog.Logger) *Reconciler {
	if d == nil {
		d = make(Dictionary)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{dict: d, logger: logger}
}

// Merge records the observations of one article in lang.
func (r *Reconciler) Merge(observations []model.Tag, lang model.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, r.dict.Merge(observations, lang, r.logger)...)
}

// Len returns the number of known tag ids.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dict)
}

// Added returns the ids first seen during this run, in order.
func (r *Reconciler) Added() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.added...)
}

// Save writes the current state to path.
func (r *Reconciler) Save(path string) error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	data, err := marshal(r.dict)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// LoadOrBootstrap reads the dictionary at path. When the file is missing
// or unusable it bootstraps a new one from the index pages and saves it.
// The returned flag reports whether bootstrapping happened.
func LoadOrBootstrap(ctx context.Context, path string, f Fetcher, pages map[model.Language]string, logger *slog.Logger) (Dictionary, bool, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d, err := Load(path)
	if err == nil {
		logger.Info("using existing tag dictionary", "path", path, "tags", len(d))
		return d, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not read tag dictionary, creating a new one", "path", path, "error", err)
	}

	d, err = Bootstrap(ctx, f, pages, logger)
	if err != nil {
		return nil, false, err
	}
	if err := Save(path, d); err != nil {
		return nil, false, err
	}
	logger.Info("saved tag dictionary", "path", path)
	return d, true, nil
}
