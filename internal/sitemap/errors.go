package sitemap

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidDate is returned when a date expression cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrEmptyRange is returned when both ends of the range fall on the same day.
	ErrEmptyRange = errors.New("dates should differ")

	// ErrInvertedRange is returned when the start of the range is after its end.
	ErrInvertedRange = errors.New("start date is after end date")

	// ErrNoCandidates is returned when no article matched the range.
	ErrNoCandidates = errors.New("no articles found matching the criteria")
)

// RangeError describes a range that produced no candidates.
type RangeError struct {
	From time.Time
	To   time.Time

	// TooRecent is set when the end of the range is within the last month.
	// Monthly archives only cover articles older than that.
	TooRecent bool
}

// Error implements error.
func (e *RangeError) Error() string {
	msg := fmt.Sprintf("%s between %s and %s", ErrNoCandidates,
		e.From.Format(time.DateOnly), e.To.Format(time.DateOnly))
	if e.TooRecent {
		msg += "; only articles present in the monthly archives are downloadable " +
			"(roughly older than a month), try an older range"
	}
	return msg
}

// Unwrap lets errors.Is match ErrNoCandidates.
func (e *RangeError) Unwrap() error {
	return ErrNoCandidates
}
