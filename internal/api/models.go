package api

import (
	"time"

	"github.com/quarrylabs/quarry/internal/crawl"
	"github.com/quarrylabs/quarry/internal/pipeline"
	"github.com/quarrylabs/quarry/internal/record"
)

// ScrapingRules carries per-request crawl limits. Pointer fields
// distinguish "absent" from an explicit zero so defaults only fill real
// gaps.
type ScrapingRules struct {
	MaxDepth      *int  `json:"maxDepth,omitempty"`
	DelayMs       *int  `json:"delay,omitempty"`
	MaxPages      *int  `json:"maxPages,omitempty"`
	RespectRobots *bool `json:"respectRobots,omitempty"`
	FollowLinks   *bool `json:"followLinks,omitempty"`
}

// DataTypeSelection toggles the logical record buckets in the response.
type DataTypeSelection struct {
	Text       *bool `json:"text,omitempty"`
	Structured *bool `json:"structured,omitempty"`
	Links      *bool `json:"links,omitempty"`
}

// Filters is the post-crawl filter block of a scrape request.
type Filters struct {
	MinTextLength     int  `json:"minTextLength"`
	ExcludeNavigation bool `json:"excludeNavigation"`
	IncludeHidden     bool `json:"includeHidden"`
}

// ScrapeRequest is the POST /api/scrape body.
type ScrapeRequest struct {
	URL               string             `json:"url" binding:"required"`
	ScrapingRules     ScrapingRules      `json:"scrapingRules"`
	SelectedDataTypes *DataTypeSelection `json:"selectedDataTypes,omitempty"`
	Filters           Filters            `json:"filters"`
	CustomSelectors   []string           `json:"customSelectors,omitempty"`
	UserAgent         string             `json:"userAgent,omitempty"`
}

// CrawlRequest materializes the wire rules into a session request,
// filling defaults for absent fields.
func (r *ScrapeRequest) CrawlRequest(defaultUserAgent string) crawl.Request {
	req := crawl.Request{
		SeedURL:       r.URL,
		MaxDepth:      crawl.DefaultMaxDepth,
		MaxPages:      crawl.DefaultMaxPages,
		Delay:         crawl.DefaultDelay,
		RespectRobots: true,
		FollowLinks:   true,
		UserAgent:     r.UserAgent,
		Selectors:     r.CustomSelectors,
	}
	if req.UserAgent == "" {
		req.UserAgent = defaultUserAgent
	}

	if r.ScrapingRules.MaxDepth != nil {
		req.MaxDepth = *r.ScrapingRules.MaxDepth
	}
	if r.ScrapingRules.MaxPages != nil {
		req.MaxPages = *r.ScrapingRules.MaxPages
	}
	if r.ScrapingRules.DelayMs != nil {
		req.Delay = time.Duration(*r.ScrapingRules.DelayMs) * time.Millisecond
	}
	if r.ScrapingRules.RespectRobots != nil {
		req.RespectRobots = *r.ScrapingRules.RespectRobots
	}
	if r.ScrapingRules.FollowLinks != nil {
		req.FollowLinks = *r.ScrapingRules.FollowLinks
	}

	return req
}

// Filter materializes the wire filters into a pipeline filter.
func (r *ScrapeRequest) Filter() pipeline.Filter {
	f := pipeline.Filter{
		MinTextLength:     r.Filters.MinTextLength,
		ExcludeNavigation: r.Filters.ExcludeNavigation,
		IncludeHidden:     r.Filters.IncludeHidden,
	}

	if r.SelectedDataTypes != nil {
		buckets := make(map[record.Bucket]bool)
		set := func(b record.Bucket, v *bool) {
			// Absent bucket toggles default to enabled.
			buckets[b] = v == nil || *v
		}
		set(record.BucketText, r.SelectedDataTypes.Text)
		set(record.BucketStructured, r.SelectedDataTypes.Structured)
		set(record.BucketLinks, r.SelectedDataTypes.Links)
		f.Buckets = buckets
	}

	return f
}

// SessionStats summarizes the crawl behind a scrape response.
type SessionStats struct {
	State         string               `json:"state"`
	PagesVisited  int                  `json:"pagesVisited"`
	PagesRendered int                  `json:"pagesRendered"`
	RobotsDenied  int                  `json:"robotsDenied"`
	RenderErrors  int                  `json:"renderErrors"`
	DurationMs    int64                `json:"durationMs"`
	Filtered      pipeline.StageCounts `json:"filtered"`
}

// ScrapeResponse is the POST /api/scrape reply.
type ScrapeResponse struct {
	Success  bool              `json:"success"`
	Records  []record.Record   `json:"records"`
	Strategy string            `json:"strategy"`
	Stats    SessionStats      `json:"stats"`
	Warnings []string          `json:"warnings,omitempty"`
	Errors   []crawl.PageError `json:"errors,omitempty"`
	Cache    string            `json:"cache,omitempty"`
	Error    *ErrorDetail      `json:"error,omitempty"`
}

// ErrorDetail is the structured error block of a failed response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes used in ErrorDetail.Code.
const (
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeSetupFailed  = "setup_failed"
	ErrCodeRateLimited  = "rate_limited"
)

// HealthResponse is the GET /api/health reply.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
