package config

import (
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/upcrawler/internal/article"
	"github.com/nao1215/upcrawler/internal/fetch"
	"github.com/nao1215/upcrawler/internal/model"
	"github.com/nao1215/upcrawler/internal/sitemap"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "upcrawler"

	// DefaultTimeout is the ceiling, in seconds, of the random wait before
	// each request. A negative value disables waiting.
	DefaultTimeout = 5

	// DefaultJitter is the spread around the random wait.
	DefaultJitter = 3 * time.Second

	// DefaultWorkers is the number of article groups downloaded at once.
	DefaultWorkers = 2

	// MaxWorkers is the highest accepted worker count. The site starts
	// answering 403 when it sees bursts of requests.
	MaxWorkers = 4

	// DefaultMaxRetries is the number of attempts per request.
	DefaultMaxRetries = 10

	// DefaultConnectTimeout bounds establishing a connection.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultReadTimeout bounds waiting for response headers.
	DefaultReadTimeout = 10 * time.Second
)

// Config holds every option of a run. It is filled from defaults, the
// configuration file and command line flags, in that order.
type Config struct {
	// DateFrom and DateTo bound the publication dates to crawl. Both accept
	// ISO dates and natural language such as "3 days ago".
	DateFrom string
	DateTo   string

	// Output is the directory receiving records, the candidate table,
	// the tag dictionary and reports.
	Output string

	// InputFile is a candidate table written by the uris command.
	InputFile string

	// TagsFile overrides the tag dictionary location.
	TagsFile string

	// Timeout is the ceiling in seconds of the wait before each request.
	// A negative value disables the wait and the jitter.
	Timeout int

	// Jitter is the spread around the wait.
	Jitter time.Duration

	// Workers is the number of groups downloaded concurrently.
	Workers int

	// MaxRetries is the number of attempts per request.
	MaxRetries int

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// Kinds is the content kind allow-list for sitemap rows.
	Kinds []string

	// Domains restricts sitemap rows to these hosts. Empty keeps every host.
	Domains []string

	// MaxBodySize caps the bytes read from one response.
	MaxBodySize int64

	// SkipPatterns are case-insensitive regular expressions; matching
	// paragraphs are dropped.
	SkipPatterns []string

	// UserAgents are chosen from at random for each request.
	UserAgents []string

	// ArchiveTemplate is the monthly sitemap address with {year} and {month}.
	ArchiveTemplate string

	// NewsFeed also reads the recent-news sitemap when the range reaches
	// the current month.
	NewsFeed bool

	// TagIndexURLs maps language codes to tag index pages used to
	// bootstrap the dictionary.
	TagIndexURLs map[string]string

	// KeepRawHTML stores the article body markup in each record.
	KeepRawHTML bool

	// SkipMalformed skips pages lacking required markup instead of failing.
	SkipMalformed bool

	// NoTags disables the tag dictionary.
	NoTags bool

	// DBDir is the crawl ledger directory. Defaults to XDGDataDir.
	DBDir string

	// NoDB disables the crawl ledger.
	NoDB bool

	// ReportFormat is "md", "json", "text" or empty for no report file.
	ReportFormat string

	Verbose bool
	Quiet   bool

	// ConfigFilePath is an explicit configuration file.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		Jitter:         DefaultJitter,
		Workers:        DefaultWorkers,
		MaxRetries:     DefaultMaxRetries,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		MaxBodySize:    fetch.DefaultMaxBodySize,
		Kinds:          slices.Clone(sitemap.DefaultKinds),
		SkipPatterns:   slices.Clone(article.DefaultSkipPatterns),
		KeepRawHTML:    true,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for upcrawler.
// On Linux: ~/.local/share/upcrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for upcrawler.
// On Linux: ~/.config/upcrawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// PolitenessDisabled reports whether request waits are turned off.
func (c *Config) PolitenessDisabled() bool {
	return c.Timeout < 0
}

// MaxWait returns Timeout as a duration.
func (c *Config) MaxWait() time.Duration {
	return time.Duration(max(c.Timeout, 0)) * time.Second
}

// Validate checks the options shared by every command and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.Output == "" {
		return ErrNoOutput
	}
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return ErrInvalidWorkers
	}
	if c.MaxRetries < 1 {
		return ErrInvalidRetries
	}
	if c.ConnectTimeout <= 0 || c.ReadTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Jitter < 0 {
		return ErrInvalidJitter
	}
	if len(c.Kinds) == 0 {
		return ErrNoKinds
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidBodySize
	}
	switch c.ReportFormat {
	case "", "md", "markdown", "json", "text", "txt":
	default:
		return ErrInvalidReportFormat
	}
	if c.Verbose && c.Quiet {
		return ErrConflictingVerbosity
	}
	for _, lang := range slices.Sorted(maps.Keys(c.TagIndexURLs)) {
		if !model.Language(lang).Valid() {
			return ErrInvalidLanguage
		}
	}
	return nil
}
