// Package politeness computes the wait and User-Agent used before each
// outbound request.
//
// A Policy never sleeps. It returns a duration and the fetch layer decides
// how to wait for it, so tests can observe delays without spending them.
package politeness

import (
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxWait is the upper bound of the integer base wait.
	DefaultMaxWait = 2 * time.Second

	// DefaultJitter is the spread added to or subtracted from the base wait.
	DefaultJitter = 3 * time.Second

	// DefaultUserAgent identifies the crawler. Operators should set their own
	// contact details through the user_agents setting.
	DefaultUserAgent = "upcrawler/1.0 (+https://github.com/nao1215/upcrawler)"
)

// Policy decides the per-request wait and User-Agent.
// It is safe for concurrent use when its random source is.
type Policy struct {
	maxWait    time.Duration
	jitter     time.Duration
	userAgents []string
	disabled   bool

	// intN and float are indirections over math/rand for tests.
	intN  func(n int) int
	float func() float64
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxWait sets the ceiling of the base wait. Negative values are treated as zero.
func WithMaxWait(d time.Duration) Option {
	return func(p *Policy) {
		p.maxWait = max(d, 0)
	}
}

// WithJitter sets the symmetric spread around the base wait.
func WithJitter(d time.Duration) Option {
	return func(p *Policy) {
		p.jitter = max(d, 0)
	}
}

// WithUserAgents replaces the list User-Agent values are drawn from.
// An empty list keeps the default.
func WithUserAgents(agents []string) Option {
	return func(p *Policy) {
		if len(agents) > 0 {
			p.userAgents = append([]string(nil), agents...)
		}
	}
}

// WithDisabled turns off all waiting. Used for offline runs and tests.
func WithDisabled() Option {
	return func(p *Policy) {
		p.disabled = true
	}
}

// withRand replaces the random source.
func withRand(intN func(int) int, f func() float64) Option {
	return func(p *Policy) {
		p.intN = intN
		p.float = f
	}
}

// New creates a Policy. Without options it waits between 0 and
// DefaultMaxWait+DefaultJitter and sends DefaultUserAgent.
func New(opts ...Option) *Policy {
	p := &Policy{
		maxWait:    DefaultMaxWait,
		jitter:     DefaultJitter,
		userAgents: []string{DefaultUserAgent},
		intN:       rand.IntN,
		float:      rand.Float64,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.disabled {
		p.maxWait, p.jitter = 0, 0
	}
	return p
}

// Disabled returns a Policy that never waits.
func Disabled() *Policy {
	return New(WithDisabled())
}

// FromTimeout builds the Policy selected by the CLI timeout value:
// a negative value disables politeness, any other value is the ceiling
// in seconds with the default jitter.
func FromTimeout(seconds int, opts ...Option) *Policy {
	if seconds < 0 {
		return New(append(opts, WithDisabled())...)
	}
	return New(append([]Option{WithMaxWait(time.Duration(seconds) * time.Second)}, opts...)...)
}

// Delay returns how long to wait before the next request.
// The base is a whole number of seconds in [0, maxWait]; the result is
// base±jitter drawn uniformly and clamped at zero.
func (p *Policy) Delay() time.Duration {
	if p.disabled || (p.maxWait == 0 && p.jitter == 0) {
		return 0
	}
	base := time.Duration(p.intN(int(p.maxWait/time.Second)+1)) * time.Second
	spread := time.Duration(p.float() * float64(2*p.jitter))
	return max(base-p.jitter+spread, 0)
}

// UserAgent returns one of the configured User-Agent strings.
func (p *Policy) UserAgent() string {
	if len(p.userAgents) == 1 {
		return p.userAgents[0]
	}
	return p.userAgents[p.intN(len(p.userAgents))]
}

// Enabled reports whether the policy produces non-zero waits.
func (p *Policy) Enabled() bool {
	return !p.disabled && (p.maxWait > 0 || p.jitter > 0)
}
