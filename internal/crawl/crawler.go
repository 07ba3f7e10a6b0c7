// Package crawl runs bounded breadth-first crawl sessions: a frontier queue,
// a visited set, robots.txt compliance and a page budget, feeding every
// rendered page through the extractor.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/quarrylabs/quarry/internal/extract"
	"github.com/quarrylabs/quarry/internal/metrics"
	"github.com/quarrylabs/quarry/internal/record"
	"github.com/quarrylabs/quarry/internal/render"
	"github.com/quarrylabs/quarry/pkg/httpclient"
	"github.com/quarrylabs/quarry/pkg/politeness"
)

// State is the lifecycle phase of a crawl session.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
	StateCancelled State = "cancelled"
)

// PageError is a per-page failure recorded in the session result. Page
// failures never abort a session.
type PageError struct {
	URL     string `json:"url"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Result is the complete outcome of one crawl session.
type Result struct {
	Records []record.Record
	State   State

	// PagesVisited counts frontier entries dequeued and marked visited,
	// whether or not they contributed records.
	PagesVisited int
	// PagesRendered counts pages that rendered successfully; this is the
	// number charged against the page budget.
	PagesRendered int
	RobotsDenied  int
	RenderErrors  int
	SkippedDepth  int

	Errors   []PageError
	Warnings []string

	StartTime time.Time
	EndTime   time.Time
}

// Duration reports how long the session ran.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Options carries the session collaborators a caller may override. Zero
// values get sane defaults in New.
type Options struct {
	Logger        *slog.Logger
	HTTPClient    *httpclient.Client
	RobotsTimeout time.Duration
	// Jitter randomizes the politeness delay, 0.0 to 1.0.
	Jitter float64
	// SitemapLimit caps frontier entries seeded from sitemaps.
	SitemapLimit int
}

// Crawler executes one crawl session. It is single-use: create one per
// request and call Run once.
type Crawler struct {
	req       Request
	factory   render.Factory
	robots    *RobotsPolicy
	seeder    *SitemapSeeder
	extractor *extract.Extractor
	delayer   *politeness.Delayer
	logger    *slog.Logger

	state   State
	visited map[string]struct{}
}

type frontierEntry struct {
	url   string
	depth int
}

// New validates the request and builds a session. The factory is invoked
// inside Run so that setup failures surface as session aborts, not
// construction errors.
func New(req Request, factory render.Factory, opts Options) (*Crawler, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := opts.HTTPClient
	if client == nil {
		var err error
		client, err = httpclient.New(httpclient.Config{Timeout: 10 * time.Second, MaxRedirects: 5})
		if err != nil {
			return nil, err
		}
	}

	return &Crawler{
		req:       req,
		factory:   factory,
		robots:    NewRobotsPolicy(client, opts.RobotsTimeout, logger),
		seeder:    NewSitemapSeeder(client, opts.SitemapLimit, logger),
		extractor: extract.New(logger),
		delayer:   politeness.NewDelayer(req.Delay, opts.Jitter),
		logger:    logger,
		state:     StateIdle,
		visited:   make(map[string]struct{}),
	}, nil
}

// State returns the session's current lifecycle phase.
func (c *Crawler) State() State {
	return c.state
}

// Run executes the session to completion. A cancelled context yields a
// cancelled-state result with whatever was gathered so far; only a failure
// to acquire the rendering session returns an error.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	c.state = StateRunning
	res := &Result{State: StateRunning, StartTime: time.Now()}

	renderer, err := c.factory()
	if err != nil {
		c.finish(res, StateAborted)
		c.logger.Error("render session setup failed", "err", err)
		return res, err
	}
	defer renderer.Close()

	frontier := []frontierEntry{{url: normalizeURL(c.req.SeedURL), depth: 0}}
	if c.req.SeedSitemaps {
		frontier = append(frontier, c.seedFromSitemaps(ctx, res)...)
	}

	for len(frontier) > 0 && res.PagesRendered < c.req.MaxPages {
		if ctx.Err() != nil {
			c.finish(res, StateCancelled)
			return res, nil
		}

		entry := frontier[0]
		frontier = frontier[1:]

		norm := normalizeURL(entry.url)
		if _, seen := c.visited[norm]; seen {
			continue
		}
		c.visited[norm] = struct{}{}
		res.PagesVisited++

		origin := originOf(norm)

		if entry.depth > c.req.MaxDepth {
			res.SkippedDepth++
			metrics.RecordPage(origin, metrics.OutcomeSkippedDepth, 0)
			continue
		}

		if c.req.RespectRobots && !c.robots.Allowed(ctx, norm, c.req.UserAgent) {
			c.logger.Debug("url denied by robots.txt", "url", norm)
			res.RobotsDenied++
			metrics.RecordPage(origin, metrics.OutcomeRobotsDenied, 0)
			continue
		}

		c.logger.Debug("rendering", "url", norm, "depth", entry.depth)
		page, err := renderer.Render(ctx, norm)
		if err != nil {
			c.logger.Warn("render failed", "url", norm, "err", err)
			res.RenderErrors++
			res.Errors = append(res.Errors, PageError{URL: norm, Stage: "render", Message: err.Error()})
			metrics.RecordPage(origin, metrics.OutcomeRenderError, 0)
			continue
		}
		res.PagesRendered++
		metrics.RecordPage(origin, metrics.OutcomeRendered, page.Duration)

		// Politeness pause after every successful render, before the
		// next frontier entry is considered.
		if err := c.delayer.Wait(ctx); err != nil {
			c.finish(res, StateCancelled)
			return res, nil
		}

		ex, err := c.extractor.Extract(page.HTML, norm, c.req.Selectors, c.visited)
		if err != nil {
			c.logger.Warn("extraction failed", "url", norm, "err", err)
			res.Errors = append(res.Errors, PageError{URL: norm, Stage: "extract", Message: err.Error()})
			continue
		}

		res.Records = append(res.Records, ex.Records...)
		res.Warnings = append(res.Warnings, ex.Warnings...)
		for _, rec := range ex.Records {
			metrics.RecordExtraction(string(rec.Kind), 1)
		}

		if c.req.FollowLinks && entry.depth < c.req.MaxDepth {
			for _, link := range ex.Links {
				frontier = append(frontier, frontierEntry{url: link, depth: entry.depth + 1})
			}
		}
	}

	c.finish(res, StateCompleted)
	c.logger.Info("crawl finished",
		"state", res.State,
		"visited", res.PagesVisited,
		"rendered", res.PagesRendered,
		"records", len(res.Records),
		"duration", res.Duration(),
	)
	return res, nil
}

// seedFromSitemaps pre-fills the frontier from the sitemaps declared in the
// seed origin's robots.txt. Seeded entries join at depth 1 so they count
// against the depth limit like discovered links.
func (c *Crawler) seedFromSitemaps(ctx context.Context, res *Result) []frontierEntry {
	origin := originOf(c.req.SeedURL)
	var entries []frontierEntry
	for _, sm := range c.robots.Sitemaps(ctx, origin, c.req.UserAgent) {
		urls, err := c.seeder.Fetch(ctx, sm, c.req.UserAgent)
		if err != nil {
			c.logger.Warn("sitemap seeding failed", "sitemap", sm, "err", err)
			res.Warnings = append(res.Warnings, "sitemap "+sm+": "+err.Error())
			continue
		}
		for _, u := range urls {
			entries = append(entries, frontierEntry{url: u, depth: 1})
		}
	}
	return entries
}

func (c *Crawler) finish(res *Result, state State) {
	c.state = state
	res.State = state
	res.EndTime = time.Now()
	metrics.RecordSession(string(state))
}

// normalizeURL strips the fragment so two anchors on the same document
// count as one visit. Unparseable input passes through untouched.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	return u.String()
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "unknown"
	}
	return u.Scheme + "://" + u.Host
}
