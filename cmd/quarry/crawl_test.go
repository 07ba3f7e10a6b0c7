package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersionCmd(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "quarry "+version) {
		t.Errorf("expected version in output, got %q", out.String())
	}
}

func TestCrawlCmd_TextReport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h1>Command line run</h1></body></html>`))
	}))
	defer ts.Close()

	t.Setenv("QUARRY_HTTP_FALLBACK", "true")
	t.Setenv("QUARRY_LOG_LEVEL", "error")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"crawl", ts.URL, "--depth", "0", "--pages", "1", "--delay", "0s", "--no-robots"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := out.String()
	if !strings.Contains(report, "Quarry Crawl Summary") {
		t.Errorf("expected text report, got %q", report)
	}
	if !strings.Contains(report, "headline: 1") {
		t.Errorf("expected one headline in report, got %q", report)
	}
	if !strings.Contains(report, "completed") {
		t.Errorf("expected completed state in report, got %q", report)
	}
}

func TestCrawlCmd_PersistsToSQLite(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h1>Stored run</h1></body></html>`))
	}))
	defer ts.Close()

	dbPath := filepath.Join(t.TempDir(), "records.db")
	t.Setenv("QUARRY_HTTP_FALLBACK", "true")
	t.Setenv("QUARRY_LOG_LEVEL", "error")
	t.Setenv("QUARRY_STORAGE_BACKEND", "sqlite")
	t.Setenv("QUARRY_STORAGE_DSN", dbPath)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"crawl", ts.URL, "--depth", "0", "--pages", "1", "--delay", "0s", "--no-robots", "--format", "json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), `"TotalRecords": 1`) {
		t.Errorf("expected one record in json report, got %q", out.String())
	}
}

func TestCrawlCmd_RejectsBadFormat(t *testing.T) {
	t.Setenv("QUARRY_HTTP_FALLBACK", "true")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"crawl", "http://example.com", "--format", "yaml", "--pages", "1", "--depth", "0", "--delay", "0s", "--no-robots", "--no-follow"})

	if err := cmd.Execute(); err == nil {
		t.Errorf("expected error for unknown report format")
	}
}
