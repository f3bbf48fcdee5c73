package sitemap

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/upcrawler/internal/fetch"
	"github.com/nao1215/upcrawler/internal/model"
)

const (
	// DefaultArchiveTemplate is the address of one month's archive.
	// {year} and {month} are replaced with the 4-digit year and 2-digit month.
	DefaultArchiveTemplate = "https://www.pravda.com.ua/sitemap/sitemap-{year}-{month}.xml.gz"

	// DefaultNewsFeedURI lists the most recent articles that are not yet archived.
	DefaultNewsFeedURI = "https://www.pravda.com.ua/sitemap/sitemap-news.xml"

	// DefaultSlack extends the end of the range so that the archive of the
	// month containing it is always fetched.
	DefaultSlack = 30 * 24 * time.Hour
)

// DefaultKinds are the content kinds kept by default.
var DefaultKinds = []string{"news"}

// Fetcher retrieves and classifies one document.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*fetch.Result, error)
}

// Resolver turns date ranges into candidate article rows.
type Resolver struct {
	fetcher  Fetcher
	template string
	newsFeed string
	kinds    map[string]struct{}
	domains  map[string]struct{}
	slack    time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithArchiveTemplate sets the monthly archive address template.
func WithArchiveTemplate(template string) Option {
	return func(r *Resolver) {
		if template != "" {
			r.template = template
		}
	}
}

// WithNewsFeed also reads the recent-articles sitemap when the range
// reaches the current month.
func WithNewsFeed(uri string) Option {
	return func(r *Resolver) {
		r.newsFeed = uri
	}
}

// WithKinds replaces the content kinds that are kept.
func WithKinds(kinds []string) Option {
	return func(r *Resolver) {
		if len(kinds) > 0 {
			r.kinds = toSet(kinds)
		}
	}
}

// WithDomains restricts the kept articles to the given hosts, e.g.
// "www.pravda.com.ua". By default every host listed in the archive is kept,
// including sister sites that share it.
func WithDomains(domains []string) Option {
	return func(r *Resolver) {
		r.domains = toSet(domains)
	}
}

// WithNow sets the clock used for relative dates and future-month checks.
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver that downloads archives through fetcher.
func NewResolver(fetcher Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:  fetcher,
		template: DefaultArchiveTemplate,
		kinds:    toSet(DefaultKinds),
		slack:    DefaultSlack,
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve parses two date expressions and returns the news articles
// published strictly between them, sorted by date.
func (r *Resolver) Resolve(ctx context.Context, d1, d2 string) ([]model.CandidateURI, error) {
	now := r.now()
	from, err := ParseDate(d1, now)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(d2, now)
	if err != nil {
		return nil, err
	}

	r.logger.Info("resolving article URIs",
		"from", from.Format(time.DateOnly), "from_expr", d1,
		"to", to.Format(time.DateOnly), "to_expr", d2,
	)
	return r.ResolveRange(ctx, from, to)
}

// ResolveRange returns the rows dated strictly between from and to.
//
// Design decision: archives are enumerated from the month of from to the
// month of to plus the slack, not to the month of to. An article is listed
// in the archive of the month it was indexed in, which for articles near a
// month end is often the next one, so stopping at the month of to would
// miss them. Rows outside the range are dropped afterwards by Filter, and
// months that have not started yet are skipped since their archive cannot
// exist.
func (r *Resolver) ResolveRange(ctx context.Context, from, to time.Time) ([]model.CandidateURI, error) {
	if sameDay(from, to) {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRange, from.Format(time.DateOnly))
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvertedRange,
			from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	now := r.now()
	current := monthStart(now.In(from.Location()))

	all := make([]model.CandidateURI, 0)
	reachedCurrent := false
	for _, month := range Months(from, to.Add(r.slack)) {
		if month.After(current) {
			r.logger.Info("skipping month in the future, no sitemap yet",
				"month", month.Format("2006-01"))
			continue
		}
		if month.Equal(current) {
			reachedCurrent = true
		}

		rows, err := r.fetchRows(ctx, r.ArchiveURI(month), from.Location())
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}

	if reachedCurrent && r.newsFeed != "" {
		rows, err := r.fetchRows(ctx, r.newsFeed, from.Location())
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}

	filtered := Filter(dedupe(all), from, to)
	if len(filtered) == 0 {
		return nil, &RangeError{
			From:      from,
			To:        to,
			TooRecent: to.After(now.AddDate(0, -1, 0)),
		}
	}

	r.logger.Info("resolved article URIs", "count", len(filtered))
	return filtered, nil
}

// ArchiveURI returns the archive address for the month containing t.
func (r *Resolver) ArchiveURI(t time.Time) string {
	return strings.NewReplacer(
		"{year}", strconv.Itoa(t.Year()),
		"{month}", fmt.Sprintf("%02d", int(t.Month())),
	).Replace(r.template)
}

// fetchRows downloads one sitemap and returns its kept rows.
// A missing sitemap yields no rows.
func (r *Resolver) fetchRows(ctx context.Context, uri string, loc *time.Location) ([]model.CandidateURI, error) {
	r.logger.Debug("fetching sitemap", "uri", uri)

	result, err := r.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap %s: %w", uri, err)
	}

	switch result.Outcome {
	case fetch.OutcomeForbidden:
		return nil, fmt.Errorf("sitemap %s: %w", uri, fetch.ErrForbidden)
	case fetch.OutcomeNotFound:
		r.logger.Debug("no sitemap", "uri", uri, "status", result.StatusCode)
		return nil, nil
	}

	locations, err := ExtractLocations(result.Body)
	if err != nil {
		return nil, fmt.Errorf("sitemap %s: %w", uri, err)
	}

	rows := make([]model.CandidateURI, 0, len(locations))
	for _, location := range locations {
		row, ok := ParseLocation(location, loc)
		if !ok {
			continue
		}
		if !r.keep(row) {
			continue
		}
		rows = append(rows, row)
	}

	r.logger.Debug("parsed sitemap", "uri", uri, "locations", len(locations), "kept", len(rows))
	return rows, nil
}

// keep applies the kind and domain allow-lists.
func (r *Resolver) keep(row model.CandidateURI) bool {
	if _, ok := r.kinds[row.Kind]; !ok {
		return false
	}
	if len(r.domains) == 0 {
		return true
	}
	_, ok := r.domains[hostOf(row.Domain)]
	return ok
}

// Filter keeps rows dated strictly between from and to and sorts them by
// date. Rows with equal dates keep their relative order.
func Filter(rows []model.CandidateURI, from, to time.Time) []model.CandidateURI {
	kept := make([]model.CandidateURI, 0, len(rows))
	for _, row := range rows {
		if from.Before(row.Date) && row.Date.Before(to) {
			kept = append(kept, row)
		}
	}
	slices.SortStableFunc(kept, func(a, b model.CandidateURI) int {
		return a.Date.Compare(b.Date)
	})
	return kept
}

// dedupe drops repeated URIs. The news feed overlaps the current archive.
func dedupe(rows []model.CandidateURI) []model.CandidateURI {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	for _, row := range rows {
		if _, ok := seen[row.URI]; ok {
			continue
		}
		seen[row.URI] = struct{}{}
		out = append(out, row)
	}
	return out
}

// hostOf returns the host of a domain column value like "https://www.pravda.com.ua/".
func hostOf(domain string) string {
	host := domain
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	return strings.TrimSuffix(host, "/")
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
