// Package render turns a URL into settled, rendered HTML. The browser
// implementation drives one headless Chromium per crawl session; the HTTP
// implementation serves static sites and tests without a browser.
package render

import (
	"context"
	"fmt"
	"time"
)

// Result is the outcome of a successful render.
type Result struct {
	HTML     string
	Title    string
	FinalURL string
	Duration time.Duration
}

// Renderer loads a URL and returns its rendered document. Implementations
// own whatever long-lived resource backs them; Close must be safe to call
// on every exit path and more than once.
type Renderer interface {
	Render(ctx context.Context, url string) (*Result, error)
	Close()
}

// Factory acquires a fresh rendering session. The crawl scheduler calls it
// once per session and guarantees Close on the returned Renderer.
type Factory func() (Renderer, error)

// Error is a per-page render failure. The scheduler records it and moves
// on; it never aborts a crawl.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SetupError means a rendering session could not be acquired at all.
// Unlike Error it is fatal: the whole crawl aborts.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("render session setup: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
