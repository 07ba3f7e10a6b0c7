package crawl

import (
	"fmt"
	"net/url"
	"time"
)

// Default limits applied when a request leaves a field unset.
const (
	DefaultMaxDepth = 2
	DefaultMaxPages = 10
	DefaultDelay    = time.Second
)

// Request describes one crawl session. It is immutable for the duration of
// the session.
type Request struct {
	SeedURL       string
	MaxDepth      int
	MaxPages      int
	Delay         time.Duration
	RespectRobots bool
	FollowLinks   bool
	UserAgent     string
	// Selectors are caller-supplied CSS selectors applied on top of the
	// builtin extraction heuristics.
	Selectors []string
	// SeedSitemaps pre-fills the frontier from sitemap URLs declared in
	// the seed origin's robots.txt.
	SeedSitemaps bool
}

// ValidationError reports a malformed crawl request. It is raised before
// any session work begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid crawl request: %s: %s", e.Field, e.Reason)
}

// Validate checks the request's fields. The seed URL is the only required
// field; everything else just needs to be in range.
func (r *Request) Validate() error {
	if r.SeedURL == "" {
		return &ValidationError{Field: "seedUrl", Reason: "required"}
	}

	u, err := url.Parse(r.SeedURL)
	if err != nil {
		return &ValidationError{Field: "seedUrl", Reason: fmt.Sprintf("unparseable: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "seedUrl", Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "seedUrl", Reason: "missing host"}
	}

	if r.MaxDepth < 0 {
		return &ValidationError{Field: "maxDepth", Reason: "must be >= 0"}
	}
	if r.MaxPages <= 0 {
		return &ValidationError{Field: "maxPages", Reason: "must be > 0"}
	}
	if r.Delay < 0 {
		return &ValidationError{Field: "delay", Reason: "must be >= 0"}
	}

	return nil
}
