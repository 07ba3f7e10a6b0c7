package crawl

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/quarrylabs/quarry/pkg/httpclient"
)

const (
	// DefaultRobotsTimeout bounds a single robots.txt fetch.
	DefaultRobotsTimeout = 5 * time.Second

	maxRobotsBody = 512 * 1024
)

// RobotsPolicy answers per-URL crawl permission from robots.txt files. It
// caches one parsed policy per origin for the lifetime of the policy, so a
// crawl session fetches each origin's robots.txt at most once.
//
// Every failure mode fails open: unreachable hosts, timeouts, error status
// codes and unparseable bodies all report the URL as allowed.
type RobotsPolicy struct {
	client  *httpclient.Client
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]*robotsEntry
}

type robotsEntry struct {
	// data is nil when the origin has no usable robots.txt.
	data     *robotstxt.RobotsData
	sitemaps []string
}

// NewRobotsPolicy creates a policy backed by the given HTTP client.
func NewRobotsPolicy(client *httpclient.Client, timeout time.Duration, logger *slog.Logger) *RobotsPolicy {
	if timeout <= 0 {
		timeout = DefaultRobotsTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsPolicy{
		client:  client,
		timeout: timeout,
		logger:  logger,
		cache:   make(map[string]*robotsEntry),
	}
}

// Allowed reports whether userAgent may fetch rawURL. Unknown or broken
// policies allow the fetch.
func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL, userAgent string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	entry := p.getOrFetch(ctx, u.Scheme+"://"+u.Host, userAgent)
	if entry.data == nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	return entry.data.FindGroup(userAgent).Test(path)
}

// Sitemaps returns the sitemap URLs declared by the origin's robots.txt,
// fetching and caching the policy if needed.
func (p *RobotsPolicy) Sitemaps(ctx context.Context, origin, userAgent string) []string {
	return p.getOrFetch(ctx, origin, userAgent).sitemaps
}

func (p *RobotsPolicy) getOrFetch(ctx context.Context, origin, userAgent string) *robotsEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.cache[origin]; ok {
		return entry
	}

	entry := p.fetch(ctx, origin, userAgent)
	p.cache[origin] = entry
	return entry
}

func (p *RobotsPolicy) fetch(ctx context.Context, origin, userAgent string) *robotsEntry {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Get(ctx, origin+"/robots.txt", userAgent)
	if err != nil {
		p.logger.Debug("robots.txt unreachable, failing open", "origin", origin, "err", err)
		return &robotsEntry{}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		p.logger.Debug("robots.txt unavailable, failing open", "origin", origin, "status", resp.StatusCode)
		return &robotsEntry{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
	if err != nil {
		p.logger.Debug("robots.txt read failed, failing open", "origin", origin, "err", err)
		return &robotsEntry{}
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		p.logger.Debug("robots.txt unparseable, failing open", "origin", origin, "err", err)
		return &robotsEntry{}
	}

	p.logger.Debug("robots.txt cached", "origin", origin, "sitemaps", len(data.Sitemaps))
	return &robotsEntry{data: data, sitemaps: data.Sitemaps}
}
