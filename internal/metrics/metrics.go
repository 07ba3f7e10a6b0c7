package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PagesCrawledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quarry_pages_crawled_total",
			Help: "Total pages dequeued from the frontier, by origin and outcome",
		},
		[]string{"origin", "outcome"},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quarry_render_duration_seconds",
			Help:    "Duration of page renders in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"origin"},
	)

	RecordsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quarry_records_extracted_total",
			Help: "Total records extracted across all pages, by kind",
		},
		[]string{"kind"},
	)

	CrawlSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quarry_crawl_sessions_total",
			Help: "Total crawl sessions by terminal state",
		},
		[]string{"state"},
	)
)

// Page outcomes used as the outcome label of PagesCrawledTotal.
const (
	OutcomeRendered     = "rendered"
	OutcomeRobotsDenied = "robots_denied"
	OutcomeRenderError  = "render_error"
	OutcomeSkippedDepth = "skipped_depth"
)

// RecordPage updates the per-page counters for one frontier entry.
func RecordPage(origin, outcome string, renderDuration time.Duration) {
	PagesCrawledTotal.WithLabelValues(origin, outcome).Inc()
	if outcome == OutcomeRendered {
		RenderDuration.WithLabelValues(origin).Observe(renderDuration.Seconds())
	}
}

// RecordExtraction counts extracted records by kind.
func RecordExtraction(kind string, n int) {
	if n > 0 {
		RecordsExtractedTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordSession counts one finished crawl session.
func RecordSession(state string) {
	CrawlSessionsTotal.WithLabelValues(state).Inc()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
