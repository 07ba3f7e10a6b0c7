package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quarrylabs/quarry/internal/crawl"
	"github.com/quarrylabs/quarry/internal/pipeline"
	"github.com/quarrylabs/quarry/internal/record"
	"github.com/quarrylabs/quarry/internal/render"
	"github.com/quarrylabs/quarry/internal/storage"
)

// Version reported by the health endpoint.
const Version = "0.1.0"

// Server bundles everything the handlers need.
type Server struct {
	Factory   render.Factory
	UserAgent string
	Logger    *slog.Logger
	Cache     *Cache
	// Backend persists filtered records when set.
	Backend   storage.Backend
	StartTime time.Time
	// CrawlOptions tune the sessions spawned per request.
	CrawlOptions crawl.Options
}

// Health returns a handler for GET /api/health.
func (s *Server) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(s.StartTime).Round(time.Second).String(),
			Version: Version,
		})
	}
}

// Scrape returns a handler for POST /api/scrape.
//
// Flow: parse and validate the request, run one crawl session
// synchronously, apply the post-crawl filters, persist and respond.
func (s *Server) Scrape() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ScrapeResponse{
				Success: false,
				Error:   &ErrorDetail{Code: ErrCodeInvalidInput, Message: err.Error()},
			})
			return
		}

		cacheKey := Key(&req)
		if s.Cache != nil {
			if cached, hit := s.Cache.Get(cacheKey); hit {
				cached.Cache = "hit"
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		crawlReq := req.CrawlRequest(s.UserAgent)

		crawler, err := crawl.New(crawlReq, s.Factory, s.CrawlOptions)
		if err != nil {
			var verr *crawl.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, ScrapeResponse{
					Success: false,
					Error:   &ErrorDetail{Code: ErrCodeInvalidInput, Message: verr.Error()},
				})
				return
			}
			c.JSON(http.StatusInternalServerError, ScrapeResponse{
				Success: false,
				Error:   &ErrorDetail{Code: ErrCodeSetupFailed, Message: err.Error()},
			})
			return
		}

		res, err := crawler.Run(c.Request.Context())
		if err != nil {
			// Only session setup failures surface here.
			c.JSON(http.StatusServiceUnavailable, ScrapeResponse{
				Success: false,
				Error:   &ErrorDetail{Code: ErrCodeSetupFailed, Message: err.Error()},
			})
			return
		}

		filtered, counts := pipeline.Apply(res.Records, req.Filter())
		if filtered == nil {
			filtered = []record.Record{}
		}

		if s.Backend != nil {
			if err := storage.SaveAll(c.Request.Context(), s.Backend, filtered); err != nil {
				s.Logger.Error("persisting records failed", "err", err)
				res.Warnings = append(res.Warnings, "persistence failed: "+err.Error())
			}
		}

		resp := ScrapeResponse{
			Success:  true,
			Records:  filtered,
			Strategy: "server-scrape",
			Stats: SessionStats{
				State:         string(res.State),
				PagesVisited:  res.PagesVisited,
				PagesRendered: res.PagesRendered,
				RobotsDenied:  res.RobotsDenied,
				RenderErrors:  res.RenderErrors,
				DurationMs:    res.Duration().Milliseconds(),
				Filtered:      counts,
			},
			Warnings: res.Warnings,
			Errors:   res.Errors,
		}

		if s.Cache != nil && res.State == crawl.StateCompleted {
			s.Cache.Set(cacheKey, resp)
			resp.Cache = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}
