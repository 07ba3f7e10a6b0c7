package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/config"
	"github.com/quarrylabs/quarry/internal/crawl"
	"github.com/quarrylabs/quarry/internal/pipeline"
	"github.com/quarrylabs/quarry/internal/report"
	"github.com/quarrylabs/quarry/internal/storage"
)

type crawlFlags struct {
	maxDepth      int
	maxPages      int
	delay         time.Duration
	noRobots      bool
	noFollow      bool
	selectors     []string
	sitemaps      bool
	minTextLength int
	excludeNav    bool
	format        string
}

// NewCrawlCmd creates the crawl command: a one-shot session that prints a
// report and optionally persists the records.
func NewCrawlCmd() *cobra.Command {
	cfg := config.Load()
	flags := crawlFlags{}

	cmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Run a single crawl session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, cfg, flags, args[0])
		},
	}

	cmd.Flags().IntVar(&flags.maxDepth, "depth", cfg.Crawl.MaxDepth, "maximum link depth from the seed")
	cmd.Flags().IntVar(&flags.maxPages, "pages", cfg.Crawl.MaxPages, "maximum contributing pages")
	cmd.Flags().DurationVar(&flags.delay, "delay", cfg.Crawl.Delay, "pause between page renders")
	cmd.Flags().BoolVar(&flags.noRobots, "no-robots", !cfg.Crawl.RespectRobots, "ignore robots.txt")
	cmd.Flags().BoolVar(&flags.noFollow, "no-follow", !cfg.Crawl.FollowLinks, "do not follow discovered links")
	cmd.Flags().StringArrayVar(&flags.selectors, "selector", nil, "custom CSS selector (repeatable)")
	cmd.Flags().BoolVar(&flags.sitemaps, "sitemaps", false, "seed the frontier from robots.txt sitemaps")
	cmd.Flags().IntVar(&flags.minTextLength, "min-text-length", 0, "drop records with shorter text")
	cmd.Flags().BoolVar(&flags.excludeNav, "exclude-navigation", false, "drop navigation boilerplate records")
	cmd.Flags().StringVar(&flags.format, "format", "text", "report format: text, json or html")

	return cmd
}

func runCrawl(cmd *cobra.Command, cfg *config.Config, flags crawlFlags, seedURL string) error {
	switch flags.format {
	case "text", "json", "html":
	default:
		return fmt.Errorf("unknown report format %q", flags.format)
	}

	logger := newLogger(cfg.Log)

	req := crawl.Request{
		SeedURL:       seedURL,
		MaxDepth:      flags.maxDepth,
		MaxPages:      flags.maxPages,
		Delay:         flags.delay,
		RespectRobots: !flags.noRobots,
		FollowLinks:   !flags.noFollow,
		UserAgent:     cfg.Crawl.UserAgent,
		Selectors:     flags.selectors,
		SeedSitemaps:  flags.sitemaps,
	}

	crawler, err := crawl.New(req, newRenderFactory(cfg, logger), crawl.Options{
		Logger:        logger,
		Jitter:        cfg.Crawl.Jitter,
		RobotsTimeout: cfg.Crawl.RobotsTimeout,
		SitemapLimit:  cfg.Crawl.SitemapLimit,
	})
	if err != nil {
		return err
	}

	// Ctrl-C cancels the session at the next loop checkpoint.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := crawler.Run(ctx)
	if err != nil {
		return err
	}

	filtered, _ := pipeline.Apply(res.Records, pipeline.Filter{
		MinTextLength:     flags.minTextLength,
		ExcludeNavigation: flags.excludeNav,
	})
	res.Records = filtered

	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage backend: %w", err)
	}
	if backend != nil {
		defer backend.Close()
		if err := storage.SaveAll(context.Background(), backend, res.Records); err != nil {
			return fmt.Errorf("persist records: %w", err)
		}
		logger.Info("records persisted", "backend", cfg.Storage.Backend, "count", len(res.Records))
	}

	summary := report.GenerateSummary(seedURL, res)
	out := cmd.OutOrStdout()

	switch flags.format {
	case "json":
		return report.WriteJSON(out, summary)
	case "html":
		return report.WriteHTML(out, summary)
	default:
		return report.WriteText(out, summary)
	}
}
