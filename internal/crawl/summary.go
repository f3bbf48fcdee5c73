package crawl

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/upcrawler/internal/model"
)

// Outcome is what happened to one translation.
type Outcome string

const (
	// OutcomeDownloaded means the page was fetched, parsed and saved.
	OutcomeDownloaded Outcome = "downloaded"
	// OutcomeExisting means a record was already on disk.
	OutcomeExisting Outcome = "existing"
	// OutcomeNotFound means the translation does not exist on the site.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeForbidden means the site answered 403.
	OutcomeForbidden Outcome = "forbidden"
	// OutcomeMalformed means the page lacked required markup and was skipped.
	OutcomeMalformed Outcome = "malformed"
	// OutcomeFailed means an error stopped the translation and the session.
	OutcomeFailed Outcome = "failed"
)

// Outcomes returns every outcome in report order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeDownloaded,
		OutcomeExisting,
		OutcomeNotFound,
		OutcomeMalformed,
		OutcomeForbidden,
		OutcomeFailed,
	}
}

// Summary describes a finished session.
type Summary struct {
	RunID      string    `json:"run_id"`
	State      State     `json:"state"`
	Error      string    `json:"error,omitempty"`
	DateFrom   string    `json:"date_from,omitempty"`
	DateTo     string    `json:"date_to,omitempty"`
	OutputDir  string    `json:"output_dir"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Candidates int `json:"candidates"`
	Groups     int `json:"groups"`
	GroupsDone int `json:"groups_done"`

	// Counts holds the number of translations per language and outcome.
	Counts map[model.Language]map[Outcome]int `json:"counts"`

	Bootstrapped   bool     `json:"bootstrapped"`
	DictionarySize int      `json:"dictionary_size"`
	AddedTags      []string `json:"added_tags"`
}

// Count returns the number of translations with outcome o in any language.
func (s *Summary) Count(o Outcome) int {
	n := 0
	for _, byOutcome := range s.Counts {
		n += byOutcome[o]
	}
	return n
}

// Languages returns the languages present in Counts, sorted.
func (s *Summary) Languages() []model.Language {
	return slices.Sorted(maps.Keys(s.Counts))
}

// Duration returns how long the session ran.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// tally collects per-translation outcomes from concurrent workers.
type tally struct {
	mu         sync.Mutex
	counts     map[model.Language]map[Outcome]int
	groupsDone int
}

func newTally() *tally {
	return &tally{counts: make(map[model.Language]map[Outcome]int)}
}

func (t *tally) add(lang model.Language, o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts[lang] == nil {
		t.counts[lang] = make(map[Outcome]int)
	}
	t.counts[lang][o]++
}

func (t *tally) groupDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.groupsDone++
}

func (t *tally) snapshot() (map[model.Language]map[Outcome]int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[model.Language]map[Outcome]int, len(t.counts))
	for lang, byOutcome := range t.counts {
		counts[lang] = maps.Clone(byOutcome)
	}
	return counts, t.groupsDone
}
