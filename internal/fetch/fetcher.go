package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/upcrawler/internal/politeness"
)

const (
	// DefaultConnectTimeout bounds establishing the TCP/TLS connection.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultReadTimeout bounds waiting for the response headers.
	DefaultReadTimeout = 10 * time.Second

	// DefaultMaxBodySize limits how much of a response is read.
	// Monthly sitemap archives are the largest documents fetched.
	DefaultMaxBodySize = 64 * 1024 * 1024
)

// Outcome classifies a completed fetch.
type Outcome int

const (
	// OutcomeOK means the page exists and its body is available.
	OutcomeOK Outcome = iota
	// OutcomeNotFound covers 404, soft-404 pages and any other non-200,
	// non-403 status. It is not an error; the caller skips the unit of work.
	OutcomeNotFound
	// OutcomeForbidden means the server answered 403.
	OutcomeForbidden
)

// String returns a lower-case name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Result is the classified response of one fetch.
type Result struct {
	Outcome    Outcome
	URI        string
	StatusCode int

	// Body is the response body. HTML bodies are converted to UTF-8.
	Body []byte

	// Document is the parsed page for HTML responses with OutcomeOK.
	Document *goquery.Document
}

// Fetcher performs politeness-delayed, retried GET requests.
// It is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	policy      *politeness.Policy
	retry       RetryPolicy
	logger      *slog.Logger
	maxBodySize int64

	// sleep waits for politeness delays and backoff; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithPoliteness sets the politeness policy applied before every attempt.
func WithPoliteness(p *politeness.Policy) Option {
	return func(f *Fetcher) {
		if p != nil {
			f.policy = p
		}
	}
}

// WithRetryPolicy sets the retry policy for transient failures.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) {
		f.retry = p
	}
}

// WithLogger sets the logger. Nil keeps the silent default.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMaxBodySize limits the number of body bytes read per response.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// withSleep replaces the wait function.
func withSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// NewHTTPClient returns a client with independent connect and
// response-header timeouts.
func NewHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = readTimeout

	return &http.Client{Transport: transport}
}

// New creates a Fetcher with default timeouts, the default politeness
// policy and the default retry policy.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      NewHTTPClient(DefaultConnectTimeout, DefaultReadTimeout),
		policy:      politeness.New(),
		retry:       DefaultRetryPolicy(),
		logger:      slog.New(slog.DiscardHandler),
		maxBodySize: DefaultMaxBodySize,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves uri and classifies the response.
//
// A non-nil error means the fetch could not be completed: the request was
// malformed, a non-transient network error occurred, the retry policy gave
// up (wrapping ErrRetriesExhausted), or ctx was cancelled.
//
// Design decision: HTTP statuses are never errors here. A 403, a 404, any
// other non-200 status and a soft 404 page all come back as a Result with
// an Outcome, because callers react to them differently (the crawl stops on
// 403, the resolver skips missing archives, a group skips a missing
// translation). Only transport failures go through the retry loop, and a
// 403 is returned on the first attempt: retrying it would only extend the
// block the site has just imposed.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*Result, error) {
	attempts := f.retry.attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := f.fetchOnce(ctx, uri)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !f.retry.retryable(err) {
			return nil, fmt.Errorf("failed to fetch %s: %w", uri, err)
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		wait := f.retry.Backoff(attempt)
		f.logger.Info("retrying after transient failure",
			"uri", uri,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed to fetch %s after %d attempts: %w: %w",
		uri, attempts, ErrRetriesExhausted, lastErr)
}

// fetchOnce performs one politeness-delayed attempt.
func (f *Fetcher) fetchOnce(ctx context.Context, uri string) (*Result, error) {
	if err := f.sleep(ctx, f.policy.Delay()); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.policy.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &Result{
		URI:        uri,
		StatusCode: resp.StatusCode,
	}

	switch {
	case resp.StatusCode == http.StatusForbidden:
		f.logger.Error("server answered 403", "uri", uri)
		result.Outcome = OutcomeForbidden
		return result, nil
	case resp.StatusCode == http.StatusNotFound:
		f.logger.Debug("not found", "uri", uri)
		result.Outcome = OutcomeNotFound
		return result, nil
	case resp.StatusCode != http.StatusOK:
		f.logger.Info("unexpected status code", "uri", uri, "status", resp.StatusCode)
		result.Outcome = OutcomeNotFound
		return result, nil
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	if !isHTML(contentType, body) {
		result.Outcome = OutcomeOK
		result.Body = body
		return result, nil
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset of %s: %w", uri, err)
	}
	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", uri, err)
	}
	result.Body = decoded

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", uri, err)
	}

	if IsSoft404(doc) {
		f.logger.Debug("soft 404", "uri", uri)
		result.Outcome = OutcomeNotFound
		return result, nil
	}

	result.Outcome = OutcomeOK
	result.Document = doc
	return result, nil
}

// isHTML reports whether the response should be parsed as a page.
func isHTML(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
