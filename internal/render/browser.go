package render

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserConfig controls the headless browser session.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool

	// Bin overrides the Chromium binary path.
	Bin string

	// UserAgent is applied to every navigation in the session.
	UserAgent string

	// NavTimeout bounds a single Render call. Default: 30s.
	NavTimeout time.Duration

	// SettleWindow is how long the DOM must stay unchanged before a page
	// counts as settled. Default: 300ms.
	SettleWindow time.Duration
}

func (c *BrowserConfig) withDefaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.SettleWindow <= 0 {
		c.SettleWindow = 300 * time.Millisecond
	}
}

// Browser is a Renderer backed by one headless Chromium instance with a
// single reused tab. It is owned by exactly one crawl session; the session
// is sequential, so no locking guards the tab.
type Browser struct {
	browser   *rod.Browser
	page      *rod.Page
	cfg       BrowserConfig
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewBrowser launches a headless browser and opens the session's tab.
// Any failure here is a SetupError: without a browser there is no crawl.
func NewBrowser(cfg BrowserConfig, logger *slog.Logger) (*Browser, error) {
	cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &SetupError{Err: err}
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, &SetupError{Err: err}
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, &SetupError{Err: err}
	}

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			logger.Warn("failed to override user agent, using browser default", "err", err)
		}
	}

	logger.Debug("browser session ready", "controlURL", controlURL)

	return &Browser{
		browser: browser,
		page:    page,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Render navigates the session tab to the URL, waits for the DOM to settle
// (initial parse, not full network idle, so ad-laden and infinite-scroll
// pages stay bounded) and returns the rendered HTML.
func (b *Browser) Render(ctx context.Context, rawURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()

	start := time.Now()
	p := b.page.Context(ctx)

	if err := p.Navigate(rawURL); err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	if err := p.WaitDOMStable(b.cfg.SettleWindow, 0.1); err != nil {
		// The page kept mutating for the whole window; proceed with
		// whatever DOM we have rather than failing the page.
		b.logger.Debug("DOM did not settle, extracting current state", "url", rawURL, "err", err)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = rawURL
	}

	return &Result{
		HTML:     html,
		Title:    title,
		FinalURL: finalURL,
		Duration: time.Since(start),
	}, nil
}

// Close tears down the tab and the browser process. Safe to call multiple
// times; only the first call does work.
func (b *Browser) Close() {
	b.closeOnce.Do(func() {
		if err := b.page.Close(); err != nil {
			b.logger.Warn("failed to close page", "err", err)
		}
		if err := b.browser.Close(); err != nil {
			b.logger.Warn("failed to close browser", "err", err)
		}
		b.logger.Debug("browser session released")
	})
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
