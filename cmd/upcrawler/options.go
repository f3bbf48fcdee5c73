package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/upcrawler/internal/config"
	uplog "github.com/nao1215/upcrawler/internal/log"
)

// Date expressions used when --from and --to are not given.
const (
	defaultFrom = "three days ago"
	defaultTo   = "yesterday"
)

// addConfigFlag registers --config.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .upcrawler in current or home directory)")
}

// addRangeFlags registers the date range flags.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("from", "s", defaultFrom,
		"Start of the date range, exclusive (ISO date or e.g. \"3 days ago\")")
	cmd.Flags().StringP("to", "e", defaultTo,
		"End of the date range, exclusive")
	cmd.Flags().Bool("news-feed", false,
		"Also read the recent-news sitemap when the range reaches the current month")
	cmd.Flags().StringSlice("domain", nil,
		"Keep only articles on these hosts, e.g. www.pravda.com.ua (default: every host)")
}

// addNetworkFlags registers the politeness and retry flags.
func addNetworkFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("timeout", "t", config.DefaultTimeout,
		"Ceiling in seconds of the random wait before each request (negative disables waiting)")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Attempts per request on transient network errors")
}

// addDownloadFlags registers the flags of commands that download articles.
func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		fmt.Sprintf("Article groups downloaded concurrently (1-%d)", config.MaxWorkers))
	cmd.Flags().String("tags-mapping", "",
		"Tag dictionary file (default: tags_mapping.json in the output directory)")
	cmd.Flags().Bool("no-tags", false, "Do not build or update the tag dictionary")
	cmd.Flags().Bool("skip-malformed", false,
		"Skip pages lacking article markup instead of failing the group")
	cmd.Flags().Bool("no-raw-html", false, "Do not store the article body markup")
	cmd.Flags().String("report", "",
		"Also write crawl_report.<format> to the output directory (md, json, text)")
	cmd.Flags().String("db-dir", "",
		"Crawl ledger directory (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false, "Do not record the run in the crawl ledger")
}

// getBoolFlag reads a bool flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// changed reports whether the command defines name and the user set it.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// buildConfig merges defaults, the configuration file and the flags of cmd,
// in that order. Flags only override the file when given explicitly.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.Quiet = getBoolFlag(cmd, "quiet")

	if f := cmd.Flags().Lookup("config"); f != nil {
		cfg.ConfigFilePath = f.Value.String()
	}
	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile applies the configuration file, if any. A missing file is
// only an error when its path was given explicitly.
func loadConfigFile(cfg *config.Config) error {
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	file.Apply(cfg)
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	// The date range has no configuration file equivalent.
	if flags.Lookup("from") != nil {
		if cfg.DateFrom, err = flags.GetString("from"); err != nil {
			return err
		}
		if cfg.DateTo, err = flags.GetString("to"); err != nil {
			return err
		}
	}
	if flags.Lookup("input") != nil {
		if cfg.InputFile, err = flags.GetString("input"); err != nil {
			return err
		}
	}

	if changed(cmd, "output") {
		if cfg.Output, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if changed(cmd, "timeout") {
		if cfg.Timeout, err = flags.GetInt("timeout"); err != nil {
			return err
		}
	}
	if changed(cmd, "retries") {
		if cfg.MaxRetries, err = flags.GetInt("retries"); err != nil {
			return err
		}
	}
	if changed(cmd, "workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if changed(cmd, "news-feed") {
		if cfg.NewsFeed, err = flags.GetBool("news-feed"); err != nil {
			return err
		}
	}
	if changed(cmd, "domain") {
		if cfg.Domains, err = flags.GetStringSlice("domain"); err != nil {
			return err
		}
	}
	if changed(cmd, "tags-mapping") {
		if cfg.TagsFile, err = flags.GetString("tags-mapping"); err != nil {
			return err
		}
	}
	if changed(cmd, "no-tags") {
		if cfg.NoTags, err = flags.GetBool("no-tags"); err != nil {
			return err
		}
	}
	if changed(cmd, "skip-malformed") {
		if cfg.SkipMalformed, err = flags.GetBool("skip-malformed"); err != nil {
			return err
		}
	}
	if changed(cmd, "no-raw-html") {
		noRaw, err := flags.GetBool("no-raw-html")
		if err != nil {
			return err
		}
		cfg.KeepRawHTML = !noRaw
	}
	if changed(cmd, "report") {
		if cfg.ReportFormat, err = flags.GetString("report"); err != nil {
			return err
		}
	}
	if changed(cmd, "db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	if changed(cmd, "no-db") {
		if cfg.NoDB, err = flags.GetBool("no-db"); err != nil {
			return err
		}
	}
	return nil
}

// ensureOutput creates a temporary output directory when none was given.
func ensureOutput(cfg *config.Config, logger *slog.Logger) error {
	if cfg.Output != "" {
		return nil
	}
	dir, err := os.MkdirTemp("", config.AppName+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary output directory: %w", err)
	}
	cfg.Output = dir
	logger.Warn("no output directory given, using a temporary one", "dir", dir)
	return nil
}

// setupLogger creates the process logger from the verbosity flags.
// Logs go to stderr so that stdout only carries command output.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := uplog.LevelFromFlags(cfg.Verbose, cfg.Quiet)
	if getBoolFlag(cmd, "log-json") {
		return uplog.NewJSONLogger(cmd.ErrOrStderr(), level)
	}
	return uplog.NewLogger(cmd.ErrOrStderr(), level)
}

// commandContext returns a context cancelled on SIGINT or SIGTERM and
// carrying logger.
func commandContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cmd.Context())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return uplog.WithContext(ctx, logger), cancel
}

// prepare builds and validates the configuration and sets up logging.
func prepare(cmd *cobra.Command) (context.Context, context.CancelFunc, *config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := setupLogger(cmd, cfg)
	slog.SetDefault(logger)

	if err := ensureOutput(cfg, logger); err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := commandContext(cmd, logger)
	return ctx, cancel, cfg, nil
}
