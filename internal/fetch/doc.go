// Package fetch performs single HTTP GETs against the news site and
// classifies each response as OK, not found or forbidden.
//
// Transient network failures (connection errors, timeouts) are retried
// with exponential backoff according to a RetryPolicy. Everything else is
// returned on the first attempt. A 403 is never retried: callers treat it
// as a signal to stop the whole run.
//
// The site serves some missing pages with status 200 and an
// "Error 404" heading; those are reported as OutcomeNotFound as well.
package fetch
