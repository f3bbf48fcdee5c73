package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoOutput is returned when no output directory is given.
	ErrNoOutput = errors.New("no output directory specified: use --output")

	// ErrInvalidWorkers is returned when the worker count is outside 1..MaxWorkers.
	ErrInvalidWorkers = errors.New("invalid workers: must be between 1 and 4")

	// ErrInvalidRetries is returned when fewer than one attempt is allowed.
	ErrInvalidRetries = errors.New("invalid max retries: must be at least 1")

	// ErrInvalidTimeout is returned when a connect or read timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: connect and read timeouts must be positive")

	// ErrInvalidJitter is returned when the jitter is negative.
	ErrInvalidJitter = errors.New("invalid jitter: must be non-negative")

	// ErrNoKinds is returned when the kind allow-list is empty.
	ErrNoKinds = errors.New("no content kinds configured")

	// ErrInvalidBodySize is returned when max_body_size is not positive.
	ErrInvalidBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidReportFormat is returned for a report format other than md, json or text.
	ErrInvalidReportFormat = errors.New("invalid report format: must be md, json or text")

	// ErrConflictingVerbosity is returned when both --verbose and --quiet are set.
	ErrConflictingVerbosity = errors.New("conflicting verbosity: --verbose and --quiet cannot be used together")

	// ErrInvalidLanguage is returned for an unknown language code in tag_index_urls.
	ErrInvalidLanguage = errors.New("invalid language in tag index urls")
)
