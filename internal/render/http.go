package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/quarrylabs/quarry/pkg/httpclient"
)

// maxBody caps how much of a response we read, preventing unbounded memory
// use on pathological pages.
const maxBody = 10 << 20

// HTTP is a Renderer that fetches pages with a plain GET. It cannot execute
// JavaScript, so it only sees server-rendered markup; it exists for static
// sites and for exercising the crawl loop without a browser.
type HTTP struct {
	client    *httpclient.Client
	userAgent string
}

// NewHTTP creates an HTTP renderer using the given client and User-Agent.
func NewHTTP(client *httpclient.Client, userAgent string) *HTTP {
	return &HTTP{
		client:    client,
		userAgent: userAgent,
	}
}

// Render fetches the URL and returns the raw HTML body.
func (h *HTTP) Render(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()

	resp, err := h.client.Get(ctx, rawURL, h.userAgent)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &Error{URL: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "text/html") && !strings.Contains(ct, "application/xhtml+xml") {
		return nil, &Error{URL: rawURL, Err: fmt.Errorf("non-html content type %q", ct)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &Error{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	htmlStr := string(body)
	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		HTML:     htmlStr,
		Title:    extractTitle(htmlStr),
		FinalURL: finalURL,
		Duration: time.Since(start),
	}, nil
}

// Close is a no-op; a plain HTTP renderer holds no long-lived resource.
func (h *HTTP) Close() {}

// extractTitle uses the HTML tokenizer to find the first <title> element.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
