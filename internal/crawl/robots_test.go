package crawl

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/quarrylabs/quarry/pkg/httpclient"
)

func newMockedClient(t *testing.T) *httpclient.Client {
	t.Helper()
	client, err := httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxRedirects: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	httpmock.ActivateNonDefault(client.Client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestRobotsPolicy_DisallowedPath(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", "http://example.com/robots.txt",
		httpmock.NewStringResponder(200, "User-agent: *\nDisallow: /private/\n"))

	p := NewRobotsPolicy(client, time.Second, slog.Default())

	if p.Allowed(context.Background(), "http://example.com/private/page", "QuarryBot") {
		t.Errorf("expected /private/ to be denied")
	}
	if !p.Allowed(context.Background(), "http://example.com/public", "QuarryBot") {
		t.Errorf("expected /public to be allowed")
	}
}

func TestRobotsPolicy_FailOpenOnError(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", "http://broken.example/robots.txt",
		httpmock.NewStringResponder(500, "boom"))

	p := NewRobotsPolicy(client, time.Second, slog.Default())

	if !p.Allowed(context.Background(), "http://broken.example/anything", "QuarryBot") {
		t.Errorf("expected fail-open on 5xx robots.txt")
	}
}

func TestRobotsPolicy_FailOpenOnUnreachable(t *testing.T) {
	client := newMockedClient(t)
	// No responder registered: httpmock returns a connection error.

	p := NewRobotsPolicy(client, time.Second, slog.Default())

	if !p.Allowed(context.Background(), "http://nowhere.example/page", "QuarryBot") {
		t.Errorf("expected fail-open on unreachable robots.txt")
	}
}

func TestRobotsPolicy_CachesPerOrigin(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", "http://example.com/robots.txt",
		httpmock.NewStringResponder(200, "User-agent: *\nDisallow:\n"))

	p := NewRobotsPolicy(client, time.Second, slog.Default())

	for i := 0; i < 5; i++ {
		p.Allowed(context.Background(), "http://example.com/page", "QuarryBot")
	}

	if got := httpmock.GetTotalCallCount(); got != 1 {
		t.Errorf("expected 1 robots.txt fetch, got %d", got)
	}
}

func TestRobotsPolicy_Sitemaps(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", "http://example.com/robots.txt",
		httpmock.NewStringResponder(200, "User-agent: *\nDisallow:\nSitemap: http://example.com/sitemap.xml\n"))

	p := NewRobotsPolicy(client, time.Second, slog.Default())

	maps := p.Sitemaps(context.Background(), "http://example.com", "QuarryBot")
	if len(maps) != 1 || maps[0] != "http://example.com/sitemap.xml" {
		t.Errorf("expected declared sitemap, got %v", maps)
	}
}

func TestRobotsPolicy_GroupSpecificRules(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", "http://example.com/robots.txt",
		httpmock.NewStringResponder(200, "User-agent: QuarryBot\nDisallow: /\n\nUser-agent: *\nDisallow:\n"))

	p := NewRobotsPolicy(client, time.Second, slog.Default())

	if p.Allowed(context.Background(), "http://example.com/page", "QuarryBot") {
		t.Errorf("expected QuarryBot group to deny everything")
	}
	if !p.Allowed(context.Background(), "http://example.com/page", "OtherBot") {
		t.Errorf("expected wildcard group to allow OtherBot")
	}
}
