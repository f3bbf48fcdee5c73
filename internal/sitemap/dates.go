package sitemap

import (
	"fmt"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// isoLayouts are tried before natural-language parsing.
var isoLayouts = []string{
	time.DateOnly,
	"2006-01-02 15:04",
	time.DateTime,
	time.RFC3339,
}

// ParseDate resolves an explicit date ("2022-12-01") or a relative
// expression ("three days ago", "yesterday") against now.
// Relative expressions keep now's time of day.
func ParseDate(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, fmt.Errorf("%w: empty expression", ErrInvalidDate)
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, expr, now.Location()); err == nil {
			return t, nil
		}
	}

	cfg := &dps.Configuration{CurrentTime: now}
	parsed, err := dps.Parse(cfg, expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %w", ErrInvalidDate, expr, err)
	}
	if parsed.Time.IsZero() {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, expr)
	}
	return parsed.Time.In(now.Location()), nil
}

// sameDay reports whether a and b fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// monthStart returns midnight on the first day of t's month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Months returns the first day of every calendar month from the month of
// from up to and including the month of to.
func Months(from, to time.Time) []time.Time {
	months := make([]time.Time, 0)
	last := monthStart(to)
	for m := monthStart(from); !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}
