// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/signage-review/internal/export"
	"github.com/pdiddy/signage-review/internal/extraction"
	"github.com/pdiddy/signage-review/internal/selection"
	"github.com/pdiddy/signage-review/internal/workflow"
	"github.com/pdiddy/signage-review/pkg/types"
)

// envKeyReplacer maps keys such as server.url to SIGNAGE_REVIEW_SERVER_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults() {
	viper.SetDefault("server.url", "http://localhost:8000")
	viper.SetDefault("http.timeout", 5*time.Minute)
	viper.SetDefault("http.user_agent", "signage-review/"+version)
	viper.SetDefault("http.max_retries", 3)
	viper.SetDefault("output.dir", ".")
	viper.SetDefault("csv.escape_quotes", false)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("watch.settle", 500*time.Millisecond)
}

// bindFlag binds a flag to a config key. Flags only override the key when
// set on the command line.
func bindFlag(key string, f *pflag.Flag) {
	if f == nil {
		panic("bindFlag: missing flag for " + key)
	}
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// loadConfig resolves the effective configuration from defaults, config
// file, environment and flags.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.Server.URL = strings.TrimRight(cfg.Server.URL, "/")
	if cfg.Server.URL == "" {
		return cfg, fmt.Errorf("server.url is empty")
	}
	if cfg.HTTP.MaxRetries < 0 {
		return cfg, fmt.Errorf("http.max_retries must be >= 0, got %d", cfg.HTTP.MaxRetries)
	}
	return cfg, nil
}

func setupLogging() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// newLogger builds the process logger from the log settings.
func newLogger(cfg types.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log.level %q: %w", cfg.Level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unsupported log.format %q: use text or json", cfg.Format)
}

// newController wires the extraction and spreadsheet clients and the
// output directory into a workflow controller.
func newController(cfg types.Config) *workflow.Controller {
	logger := slog.Default()
	return workflow.New(workflow.Options{
		Extractor:   extraction.NewClient(cfg.Server, cfg.HTTP, logger),
		Spreadsheet: export.NewSpreadsheetClient(cfg.Server, cfg.HTTP, logger),
		Downloader:  export.DirDownloader{Dir: cfg.Output.Dir},
		Timeout:     cfg.HTTP.Timeout,
		CSV:         export.CSVOptions{EscapeQuotes: cfg.CSV.EscapeQuotes},
		Logger:      logger,
		CountPages:  selection.CountPages,
	})
}
