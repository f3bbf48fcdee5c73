package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nao1215/upcrawler/internal/fetch"
)

// TestNewConfig documents the defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 5 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 5 || cfg.MaxWait() != 5*time.Second {
			t.Errorf("expected Timeout to be 5, got %d", cfg.Timeout)
		}
	})

	t.Run("default Workers is 2", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 2 {
			t.Errorf("expected Workers to be 2, got %d", cfg.Workers)
		}
	})

	t.Run("default MaxRetries is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxRetries != 10 {
			t.Errorf("expected MaxRetries to be 10, got %d", cfg.MaxRetries)
		}
	})

	t.Run("default Kinds is news", func(t *testing.T) {
		t.Parallel()
		if !reflect.DeepEqual(cfg.Kinds, []string{"news"}) {
			t.Errorf("expected Kinds to be [news], got %v", cfg.Kinds)
		}
	})

	t.Run("every domain is kept and bodies are capped", func(t *testing.T) {
		t.Parallel()
		if len(cfg.Domains) != 0 {
			t.Errorf("expected no domain filter, got %v", cfg.Domains)
		}
		if cfg.MaxBodySize != fetch.DefaultMaxBodySize {
			t.Errorf("expected MaxBodySize %d, got %d", fetch.DefaultMaxBodySize, cfg.MaxBodySize)
		}
	})

	t.Run("default skip patterns are set", func(t *testing.T) {
		t.Parallel()
		if len(cfg.SkipPatterns) != 4 {
			t.Errorf("expected 4 skip patterns, got %d", len(cfg.SkipPatterns))
		}
	})

	t.Run("raw HTML is kept and the ledger is on", func(t *testing.T) {
		t.Parallel()
		if !cfg.KeepRawHTML {
			t.Error("expected KeepRawHTML to be true")
		}
		if cfg.NoDB || cfg.DBDir != XDGDataDir() {
			t.Errorf("expected ledger in %s, got %q (disabled=%v)", XDGDataDir(), cfg.DBDir, cfg.NoDB)
		}
	})
}

func TestPolitenessDisabled(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if cfg.PolitenessDisabled() {
		t.Error("politeness must be on by default")
	}
	cfg.Timeout = -1
	if !cfg.PolitenessDisabled() {
		t.Error("a negative timeout disables politeness")
	}
	if cfg.MaxWait() != 0 {
		t.Errorf("MaxWait() = %v, want 0", cfg.MaxWait())
	}
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Output = "out"
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid config", func(*Config) {}, nil},
		{"missing output", func(c *Config) { c.Output = "" }, ErrNoOutput},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"too many workers", func(c *Config) { c.Workers = 5 }, ErrInvalidWorkers},
		{"max workers", func(c *Config) { c.Workers = MaxWorkers }, nil},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, ErrInvalidRetries},
		{"zero connect timeout", func(c *Config) { c.ConnectTimeout = 0 }, ErrInvalidTimeout},
		{"negative read timeout", func(c *Config) { c.ReadTimeout = -time.Second }, ErrInvalidTimeout},
		{"negative jitter", func(c *Config) { c.Jitter = -time.Second }, ErrInvalidJitter},
		{"negative politeness timeout", func(c *Config) { c.Timeout = -1 }, nil},
		{"no kinds", func(c *Config) { c.Kinds = nil }, ErrNoKinds},
		{"zero body size", func(c *Config) { c.MaxBodySize = 0 }, ErrInvalidBodySize},
		{"markdown report", func(c *Config) { c.ReportFormat = "md" }, nil},
		{"json report", func(c *Config) { c.ReportFormat = "json" }, nil},
		{"text report", func(c *Config) { c.ReportFormat = "text" }, nil},
		{"unknown report", func(c *Config) { c.ReportFormat = "pdf" }, ErrInvalidReportFormat},
		{"verbose and quiet", func(c *Config) { c.Verbose, c.Quiet = true, true }, ErrConflictingVerbosity},
		{"unknown tag index language", func(c *Config) {
			c.TagIndexURLs = map[string]string{"ukr": "https://a/tags/", "pol": "https://a/pol/tags/"}
		}, ErrInvalidLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.upcrawler")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".upcrawler")
		content := `output: /data/up
timeout: -1
jitter: 1500ms
workers: 3
max_retries: 4
connect_timeout: 20s
kinds: [news, columns]
domains: [www.pravda.com.ua]
max_body_size: 1048576
skip_patterns: []
user_agents:
  - "research-bot (mailto:ops@example.org)"
sitemap_template: "https://mirror.example/sitemap-{year}-{month}.xml.gz"
news_feed: true
tag_index_urls:
  ukr: https://mirror.example/tags/
keep_raw_html: false
report: md
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		file, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		file.Apply(cfg)

		if cfg.Output != "/data/up" || cfg.Timeout != -1 || cfg.Workers != 3 || cfg.MaxRetries != 4 {
			t.Errorf("unexpected scalar values: %+v", cfg)
		}
		if cfg.Jitter != 1500*time.Millisecond || cfg.ConnectTimeout != 20*time.Second {
			t.Errorf("unexpected durations: jitter=%v connect=%v", cfg.Jitter, cfg.ConnectTimeout)
		}
		if cfg.ReadTimeout != DefaultReadTimeout {
			t.Errorf("unset read timeout must keep its default, got %v", cfg.ReadTimeout)
		}
		if !reflect.DeepEqual(cfg.Kinds, []string{"news", "columns"}) {
			t.Errorf("kinds = %v", cfg.Kinds)
		}
		if !reflect.DeepEqual(cfg.Domains, []string{"www.pravda.com.ua"}) {
			t.Errorf("domains = %v", cfg.Domains)
		}
		if cfg.MaxBodySize != 1<<20 {
			t.Errorf("max body size = %d", cfg.MaxBodySize)
		}
		if cfg.SkipPatterns == nil || len(cfg.SkipPatterns) != 0 {
			t.Errorf("an explicit empty list must disable skip patterns, got %v", cfg.SkipPatterns)
		}
		if cfg.KeepRawHTML || !cfg.NewsFeed || cfg.ReportFormat != "md" {
			t.Errorf("unexpected flags: raw=%v news=%v report=%q", cfg.KeepRawHTML, cfg.NewsFeed, cfg.ReportFormat)
		}
		if cfg.TagIndexURLs["ukr"] != "https://mirror.example/tags/" {
			t.Errorf("tag index urls = %v", cfg.TagIndexURLs)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("loaded config must be valid: %v", err)
		}
	})

	t.Run("empty file changes nothing", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".upcrawler")
		if err := os.WriteFile(configPath, nil, 0600); err != nil {
			t.Fatal(err)
		}

		file, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := NewConfig()
		file.Apply(cfg)
		if !reflect.DeepEqual(cfg, NewConfig()) {
			t.Error("empty file must keep every default")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".upcrawler")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("returns error for unknown keys", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".upcrawler")
		if err := os.WriteFile(configPath, []byte("wokers: 3\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for a misspelled key")
		}
	})
}

func TestApplyNil(t *testing.T) {
	t.Parallel()

	var f *File
	cfg := NewConfig()
	f.Apply(cfg)
	if !reflect.DeepEqual(cfg, NewConfig()) {
		t.Error("nil file must not change the config")
	}
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("workers: 1\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if filepath.Base(XDGDataDir()) != AppName {
		t.Errorf("unexpected data dir %q", XDGDataDir())
	}
	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("unexpected config dir %q", XDGConfigDir())
	}
}
