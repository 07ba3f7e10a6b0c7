package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quarrylabs/quarry/pkg/httpclient"
)

func newTestHTTP(t *testing.T) *HTTP {
	t.Helper()
	client, err := httpclient.New(httpclient.Config{Timeout: 5 * time.Second, MaxRedirects: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewHTTP(client, "QuarryBot/1.0")
}

func TestHTTP_Render(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Hello Page</title></head><body><h1>Hello</h1></body></html>`))
	}))
	defer ts.Close()

	r := newTestHTTP(t)
	defer r.Close()

	res, err := r.Render(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(res.HTML, "<h1>Hello</h1>") {
		t.Errorf("expected body HTML, got %q", res.HTML)
	}
	if res.Title != "Hello Page" {
		t.Errorf("expected title Hello Page, got %q", res.Title)
	}
	if res.FinalURL == "" {
		t.Errorf("expected final URL to be set")
	}
}

func TestHTTP_Render_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	r := newTestHTTP(t)
	_, err := r.Render(context.Background(), ts.URL)

	var renderErr *Error
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected *render.Error, got %v", err)
	}
	if renderErr.URL != ts.URL {
		t.Errorf("expected error URL %s, got %s", ts.URL, renderErr.URL)
	}
}

func TestHTTP_Render_NonHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer ts.Close()

	r := newTestHTTP(t)
	if _, err := r.Render(context.Background(), ts.URL); err == nil {
		t.Errorf("expected error for non-html content type")
	}
}

func TestHTTP_Render_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	r := newTestHTTP(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := r.Render(ctx, ts.URL); err == nil {
		t.Errorf("expected error for cancelled context")
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{URL: "http://example.com", Err: inner}

	if !errors.Is(err, inner) {
		t.Errorf("expected errors.Is to reach the wrapped error")
	}
	if !strings.Contains(err.Error(), "http://example.com") {
		t.Errorf("expected URL in message, got %q", err.Error())
	}
}

func TestSetupError_Unwrap(t *testing.T) {
	inner := errors.New("no chrome")
	err := &SetupError{Err: inner}

	if !errors.Is(err, inner) {
		t.Errorf("expected errors.Is to reach the wrapped error")
	}

	var setupErr *SetupError
	if !errors.As(error(err), &setupErr) {
		t.Errorf("expected errors.As to match *SetupError")
	}
}

func TestExtractTitle(t *testing.T) {
	cases := []struct {
		html string
		want string
	}{
		{`<html><head><title>  Spaced  </title></head></html>`, "Spaced"},
		{`<html><body>no title</body></html>`, ""},
		{`<title>First</title><title>Second</title>`, "First"},
	}

	for _, tc := range cases {
		if got := extractTitle(tc.html); got != tc.want {
			t.Errorf("extractTitle(%q) = %q, want %q", tc.html, got, tc.want)
		}
	}
}
