package crawl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	sitemap "github.com/oxffaa/gopher-parse-sitemap"

	"github.com/quarrylabs/quarry/pkg/httpclient"
)

const (
	maxSitemapBody  = 8 * 1024 * 1024
	maxSitemapDepth = 2
)

// SitemapSeeder collects page URLs from sitemap files so a session can start
// with a pre-filled frontier. Index files are followed one level deep.
type SitemapSeeder struct {
	client *httpclient.Client
	limit  int
	logger *slog.Logger
}

// NewSitemapSeeder creates a seeder that returns at most limit URLs.
func NewSitemapSeeder(client *httpclient.Client, limit int, logger *slog.Logger) *SitemapSeeder {
	if limit <= 0 {
		limit = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapSeeder{client: client, limit: limit, logger: logger}
}

// Fetch downloads the sitemap at the given URL and returns the page URLs it
// lists, up to the seeder's limit. Sitemap index files are resolved
// recursively. Errors on nested sitemaps are logged and skipped; only a
// failure on the top-level fetch is returned.
func (s *SitemapSeeder) Fetch(ctx context.Context, sitemapURL, userAgent string) ([]string, error) {
	var urls []string
	if err := s.collect(ctx, sitemapURL, userAgent, 0, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

func (s *SitemapSeeder) collect(ctx context.Context, sitemapURL, userAgent string, depth int, urls *[]string) error {
	if len(*urls) >= s.limit || depth > maxSitemapDepth {
		return nil
	}

	body, err := s.download(ctx, sitemapURL, userAgent)
	if err != nil {
		return err
	}

	if bytes.Contains(body, []byte("<sitemapindex")) {
		var nested []string
		err := sitemap.ParseIndex(bytes.NewReader(body), func(e sitemap.IndexEntry) error {
			nested = append(nested, e.GetLocation())
			return nil
		})
		if err != nil {
			return fmt.Errorf("crawl: parse sitemap index %s: %w", sitemapURL, err)
		}
		for _, loc := range nested {
			if len(*urls) >= s.limit {
				break
			}
			if err := s.collect(ctx, loc, userAgent, depth+1, urls); err != nil {
				s.logger.Warn("nested sitemap skipped", "url", loc, "err", err)
			}
		}
		return nil
	}

	err = sitemap.Parse(bytes.NewReader(body), func(e sitemap.Entry) error {
		if len(*urls) >= s.limit {
			return nil
		}
		*urls = append(*urls, e.GetLocation())
		return nil
	})
	if err != nil {
		return fmt.Errorf("crawl: parse sitemap %s: %w", sitemapURL, err)
	}
	return nil
}

func (s *SitemapSeeder) download(ctx context.Context, rawURL, userAgent string) ([]byte, error) {
	resp, err := s.client.Get(ctx, rawURL, userAgent)
	if err != nil {
		return nil, fmt.Errorf("crawl: fetch sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("crawl: fetch sitemap %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBody))
	if err != nil {
		return nil, fmt.Errorf("crawl: read sitemap %s: %w", rawURL, err)
	}
	return body, nil
}
