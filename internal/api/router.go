// Package api exposes the crawl engine over HTTP: a health probe and a
// synchronous scrape endpoint.
package api

import (
	"github.com/gin-gonic/gin"
)

// RouterConfig tunes the middleware chain.
type RouterConfig struct {
	Mode              string
	RequestsPerSecond float64
	Burst             int
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Scrape:  RateLimit
//
// Health is outside the rate limit so monitoring probes always work.
func NewRouter(s *Server, cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	apiGroup := r.Group("/api")
	apiGroup.GET("/health", s.Health())

	limited := apiGroup.Group("")
	if cfg.RequestsPerSecond > 0 {
		limited.Use(RateLimit(cfg.RequestsPerSecond, cfg.Burst))
	}
	limited.POST("/scrape", s.Scrape())

	return r
}
