//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/quarrylabs/quarry/internal/api"
	"github.com/quarrylabs/quarry/internal/crawl"
	"github.com/quarrylabs/quarry/internal/record"
	"github.com/quarrylabs/quarry/internal/render"
	"github.com/quarrylabs/quarry/internal/storage"
	"github.com/quarrylabs/quarry/internal/storage/sqlite"
	"github.com/quarrylabs/quarry/pkg/httpclient"
)

// newSite builds a small linked shop site with a robots policy.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /admin\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<h1>Shop front</h1>
			<a href="/product">Product</a>
			<a href="/admin">Admin</a>
			<a href="https://twitter.com/shop">Twitter</a>
		</body></html>`)
	})
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<h1>Widget Deluxe</h1>
			<span class="price">$42.00</span>
			<a href="mailto:sales@shop.example">Sales</a>
		</body></html>`)
	})
	mux.HandleFunc("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Back office</h1></body></html>`)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func factory() render.Factory {
	return func() (render.Renderer, error) {
		client, err := httpclient.New(httpclient.Config{Timeout: 5 * time.Second, MaxRedirects: 3})
		if err != nil {
			return nil, err
		}
		return render.NewHTTP(client, "QuarryBot/1.0"), nil
	}
}

func TestIntegration_ScrapeEndpointWithPersistence(t *testing.T) {
	site := newSite(t)

	backend, err := sqlite.New(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite backend: %v", err)
	}
	defer backend.Close()

	server := &api.Server{
		Factory:   factory(),
		UserAgent: "QuarryBot/1.0",
		Logger:    slog.Default(),
		Cache:     api.NewCache(16, time.Minute),
		Backend:   backend,
		StartTime: time.Now(),
		CrawlOptions: crawl.Options{
			Logger: slog.Default(),
		},
	}
	router := api.NewRouter(server, api.RouterConfig{Mode: "test"})

	delay := 0
	body, _ := json.Marshal(api.ScrapeRequest{
		URL:           site.URL,
		ScrapingRules: api.ScrapingRules{DelayMs: &delay},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scrape", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp api.ScrapeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}

	if resp.Stats.State != "completed" {
		t.Errorf("expected completed crawl, got %s", resp.Stats.State)
	}
	if resp.Stats.RobotsDenied != 1 {
		t.Errorf("expected /admin denied by robots, got %d denials", resp.Stats.RobotsDenied)
	}

	kinds := map[record.Kind]int{}
	for _, r := range resp.Records {
		kinds[r.Kind]++
	}
	if kinds[record.KindHeadline] != 2 {
		t.Errorf("expected 2 headlines (front + product), got %d", kinds[record.KindHeadline])
	}
	if kinds[record.KindPrice] != 1 || kinds[record.KindEmail] != 1 || kinds[record.KindSocialLink] != 1 {
		t.Errorf("unexpected kind tallies: %v", kinds)
	}

	// Everything in the response must also have been persisted.
	stored, err := backend.Query(context.Background(), storage.Filter{})
	if err != nil {
		t.Fatalf("failed to query backend: %v", err)
	}
	if len(stored) != len(resp.Records) {
		t.Errorf("expected %d persisted records, got %d", len(resp.Records), len(stored))
	}
}
