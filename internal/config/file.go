package config

import "time"

// File is the structure of the .upcrawler configuration file.
// Unset fields leave the corresponding Config value unchanged.
type File struct {
	Output          string            `yaml:"output,omitempty"`
	Timeout         *int              `yaml:"timeout,omitempty"`
	Jitter          *time.Duration    `yaml:"jitter,omitempty"`
	Workers         int               `yaml:"workers,omitempty"`
	MaxRetries      int               `yaml:"max_retries,omitempty"`
	ConnectTimeout  time.Duration     `yaml:"connect_timeout,omitempty"`
	ReadTimeout     time.Duration     `yaml:"read_timeout,omitempty"`
	Kinds           []string          `yaml:"kinds,omitempty"`
	Domains         []string          `yaml:"domains,omitempty"`
	SkipPatterns    []string          `yaml:"skip_patterns,omitempty"`
	UserAgents      []string          `yaml:"user_agents,omitempty"`
	ArchiveTemplate string            `yaml:"sitemap_template,omitempty"`
	NewsFeed        *bool             `yaml:"news_feed,omitempty"`
	TagIndexURLs    map[string]string `yaml:"tag_index_urls,omitempty"`
	KeepRawHTML     *bool             `yaml:"keep_raw_html,omitempty"`
	SkipMalformed   *bool             `yaml:"skip_malformed,omitempty"`
	MaxBodySize     int64             `yaml:"max_body_size,omitempty"`
	DBDir           string            `yaml:"db_dir,omitempty"`
	Report          string            `yaml:"report,omitempty"`
}

// Apply copies the fields set in f onto c.
func (f *File) Apply(c *Config) {
	if f == nil {
		return
	}
	if f.Output != "" {
		c.Output = f.Output
	}
	if f.Timeout != nil {
		c.Timeout = *f.Timeout
	}
	if f.Jitter != nil {
		c.Jitter = *f.Jitter
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if f.MaxRetries != 0 {
		c.MaxRetries = f.MaxRetries
	}
	if f.ConnectTimeout != 0 {
		c.ConnectTimeout = f.ConnectTimeout
	}
	if f.ReadTimeout != 0 {
		c.ReadTimeout = f.ReadTimeout
	}
	if len(f.Kinds) > 0 {
		c.Kinds = f.Kinds
	}
	if len(f.Domains) > 0 {
		c.Domains = f.Domains
	}
	// An explicit empty list turns skipping off.
	if f.SkipPatterns != nil {
		c.SkipPatterns = f.SkipPatterns
	}
	if len(f.UserAgents) > 0 {
		c.UserAgents = f.UserAgents
	}
	if f.ArchiveTemplate != "" {
		c.ArchiveTemplate = f.ArchiveTemplate
	}
	if f.NewsFeed != nil {
		c.NewsFeed = *f.NewsFeed
	}
	if len(f.TagIndexURLs) > 0 {
		c.TagIndexURLs = f.TagIndexURLs
	}
	if f.KeepRawHTML != nil {
		c.KeepRawHTML = *f.KeepRawHTML
	}
	if f.SkipMalformed != nil {
		c.SkipMalformed = *f.SkipMalformed
	}
	if f.MaxBodySize != 0 {
		c.MaxBodySize = f.MaxBodySize
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
	if f.Report != "" {
		c.ReportFormat = f.Report
	}
}
