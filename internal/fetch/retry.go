package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
)

const (
	// DefaultMaxAttempts is the total number of attempts, including the first.
	DefaultMaxAttempts = 10

	// DefaultBackoffBase is the wait after the first failed attempt.
	DefaultBackoffBase = 1 * time.Second

	// DefaultBackoffMax caps the wait between attempts.
	DefaultBackoffMax = 60 * time.Second
)

// RetryPolicy describes when and how often a fetch is repeated.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts. Values below 1 mean 1.
	MaxAttempts int

	// Base is the wait after the first failure. It doubles with each
	// further failure until it reaches Max.
	Base time.Duration
	Max  time.Duration

	// Retryable reports whether err may go away on its own.
	// Nil means IsTransient.
	Retryable func(err error) bool
}

// DefaultRetryPolicy returns the policy used for article and sitemap fetches.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Base:        DefaultBackoffBase,
		Max:         DefaultBackoffMax,
		Retryable:   IsTransient,
	}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	wait := p.Base
	for i := 1; i < attempt; i++ {
		wait *= 2
		if p.Max > 0 && wait >= p.Max {
			return p.Max
		}
	}
	if p.Max > 0 && wait > p.Max {
		return p.Max
	}
	return wait
}

func (p RetryPolicy) attempts() int {
	return max(p.MaxAttempts, 1)
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return IsTransient(err)
	}
	return p.Retryable(err)
}

// IsTransient reports whether err is a connection error or a timeout.
// Cancellation of the caller's context is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && (dnsErr.IsTemporary || dnsErr.IsTimeout)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
