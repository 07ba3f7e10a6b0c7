package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/api"
	"github.com/quarrylabs/quarry/internal/config"
	"github.com/quarrylabs/quarry/internal/crawl"
	"github.com/quarrylabs/quarry/internal/metrics"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scrape API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg := config.Load()
	logger := newLogger(cfg.Log)

	logger.Info("quarry starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"httpFallback", cfg.Browser.UseHTTPFallback,
	)

	backend, err := openBackend(context.Background(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage backend: %w", err)
	}
	if backend != nil {
		defer backend.Close()
	}

	server := &api.Server{
		Factory:   newRenderFactory(cfg, logger),
		UserAgent: cfg.Crawl.UserAgent,
		Logger:    logger,
		Cache:     api.NewCache(cfg.Server.CacheEntries, cfg.Server.CacheTTL),
		Backend:   backend,
		StartTime: time.Now(),
		CrawlOptions: crawl.Options{
			Logger:        logger,
			Jitter:        cfg.Crawl.Jitter,
			RobotsTimeout: cfg.Crawl.RobotsTimeout,
			SitemapLimit:  cfg.Crawl.SitemapLimit,
		},
	}

	router := api.NewRouter(server, api.RouterConfig{
		Mode:              cfg.Server.Mode,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
	})

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.Start(cfg.Metrics.Port)
		logger.Info("metrics listening", "port", cfg.Metrics.Port)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced shutdown", "err", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Stop(ctx); err != nil {
			logger.Error("metrics server shutdown failed", "err", err)
		}
	}

	logger.Info("quarry stopped")
	return nil
}
