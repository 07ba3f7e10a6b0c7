package crawl

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jarcoal/httpmock"
)

const sitemapXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>http://example.com/a</loc></url>
  <url><loc>http://example.com/b</loc></url>
  <url><loc>http://example.com/c</loc></url>
</urlset>`

const sitemapIndexXML = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>http://example.com/sitemap-pages.xml</loc></sitemap>
  <sitemap><loc>http://example.com/sitemap-missing.xml</loc></sitemap>
</sitemapindex>`

func TestSitemapSeeder_Fetch(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", "http://example.com/sitemap.xml",
		httpmock.NewStringResponder(200, sitemapXML))

	s := NewSitemapSeeder(client, 100, slog.Default())

	urls, err := s.Fetch(context.Background(), "http://example.com/sitemap.xml", "QuarryBot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected 3 urls, got %d: %v", len(urls), urls)
	}
	if urls[0] != "http://example.com/a" {
		t.Errorf("expected first url /a, got %q", urls[0])
	}
}

func TestSitemapSeeder_Limit(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", "http://example.com/sitemap.xml",
		httpmock.NewStringResponder(200, sitemapXML))

	s := NewSitemapSeeder(client, 2, slog.Default())

	urls, err := s.Fetch(context.Background(), "http://example.com/sitemap.xml", "QuarryBot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("expected limit of 2 urls, got %d", len(urls))
	}
}

func TestSitemapSeeder_Index(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", "http://example.com/sitemap.xml",
		httpmock.NewStringResponder(200, sitemapIndexXML))
	httpmock.RegisterResponder("GET", "http://example.com/sitemap-pages.xml",
		httpmock.NewStringResponder(200, sitemapXML))
	httpmock.RegisterResponder("GET", "http://example.com/sitemap-missing.xml",
		httpmock.NewStringResponder(404, "not found"))

	s := NewSitemapSeeder(client, 100, slog.Default())

	// The broken nested sitemap is skipped, the healthy one still seeds.
	urls, err := s.Fetch(context.Background(), "http://example.com/sitemap.xml", "QuarryBot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 3 {
		t.Errorf("expected 3 urls from nested sitemap, got %d: %v", len(urls), urls)
	}
}

func TestSitemapSeeder_TopLevelError(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", "http://example.com/sitemap.xml",
		httpmock.NewStringResponder(500, "boom"))

	s := NewSitemapSeeder(client, 100, slog.Default())

	if _, err := s.Fetch(context.Background(), "http://example.com/sitemap.xml", "QuarryBot"); err == nil {
		t.Errorf("expected error for failing top-level sitemap")
	}
}
