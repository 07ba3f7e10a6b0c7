package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/config"
	"github.com/quarrylabs/quarry/internal/render"
	"github.com/quarrylabs/quarry/internal/storage"
	"github.com/quarrylabs/quarry/internal/storage/csvbackend"
	"github.com/quarrylabs/quarry/internal/storage/jsonbackend"
	"github.com/quarrylabs/quarry/internal/storage/postgres"
	"github.com/quarrylabs/quarry/internal/storage/sqlite"
	"github.com/quarrylabs/quarry/pkg/httpclient"
)

// NewRootCmd creates the root command for quarry.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quarry",
		Short: "Bounded, polite web crawler and extractor",
		Long: `Quarry crawls a site breadth-first from a seed URL, respecting
robots.txt and an inter-request delay, and extracts typed records
(headlines, prices, emails, phones, social links, custom selector
matches) from each rendered page.

Configuration is read from QUARRY_* environment variables; command
flags override it per invocation.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// newRenderFactory picks the renderer implementation. The browser factory
// launches one headless Chromium per crawl session; the HTTP fallback
// serves static sites and environments without Chrome.
func newRenderFactory(cfg *config.Config, logger *slog.Logger) render.Factory {
	if cfg.Browser.UseHTTPFallback {
		return func() (render.Renderer, error) {
			client, err := httpclient.New(httpclient.Config{Timeout: cfg.Browser.NavTimeout, MaxRedirects: 5})
			if err != nil {
				return nil, err
			}
			return render.NewHTTP(client, cfg.Crawl.UserAgent), nil
		}
	}

	return func() (render.Renderer, error) {
		b, err := render.NewBrowser(render.BrowserConfig{
			Headless:   cfg.Browser.Headless,
			NoSandbox:  cfg.Browser.NoSandbox,
			Bin:        cfg.Browser.Bin,
			UserAgent:  cfg.Crawl.UserAgent,
			NavTimeout: cfg.Browser.NavTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// openBackend builds the configured storage backend, or nil when
// persistence is disabled.
func openBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "sqlite":
		return sqlite.New(cfg.DSN)
	case "postgres":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return postgres.New(ctx, cfg.DSN)
	case "ndjson":
		return jsonbackend.New(cfg.DSN)
	case "csv":
		return csvbackend.New(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
