package fetch

import "errors"

var (
	// ErrForbidden is returned by callers that turn OutcomeForbidden into an
	// error. The site answers 403 when it starts blocking the crawler.
	ErrForbidden = errors.New("forbidden: the server answered 403")

	// ErrRetriesExhausted wraps the last transient error once the retry
	// policy gives up.
	ErrRetriesExhausted = errors.New("retries exhausted")
)
