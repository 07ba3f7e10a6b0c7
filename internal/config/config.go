// Package config loads application configuration from environment
// variables with sane defaults.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/quarrylabs/quarry/pkg/useragent"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Browser BrowserConfig
	Crawl   CrawlConfig
	Storage StorageConfig
	Metrics MetricsConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// RequestsPerSecond is the sustained per-client rate.
	RequestsPerSecond float64 // default: 2
	// Burst is the maximum burst size per client.
	Burst int // default: 5
	// CacheEntries caps the scrape response cache.
	CacheEntries int // default: 256
	// CacheTTL expires cached responses.
	CacheTTL time.Duration // default: 5m
}

// BrowserConfig controls the headless browser.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// Bin overrides the Chromium binary path.
	Bin string

	// NavTimeout is the max time for a single page navigation.
	NavTimeout time.Duration // default: 30s

	// UseHTTPFallback swaps the browser for the plain HTTP renderer.
	UseHTTPFallback bool // default: false
}

// CrawlConfig holds session defaults for crawls started from the CLI.
type CrawlConfig struct {
	MaxDepth      int           // default: 2
	MaxPages      int           // default: 10
	Delay         time.Duration // default: 1s
	RespectRobots bool          // default: true
	FollowLinks   bool          // default: true
	UserAgent     string        // default: useragent.Default
	Jitter        float64       // default: 0.1
	RobotsTimeout time.Duration // default: 5s
	SitemapLimit  int           // default: 100
}

// StorageConfig selects where exported records go.
type StorageConfig struct {
	// Backend is one of "sqlite", "postgres", "ndjson", "csv" or "" for
	// no persistence.
	Backend string
	// DSN is the database connection string or file path.
	DSN string
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool // default: true
	Port    int  // default: 9090
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              envOr("QUARRY_HOST", "0.0.0.0"),
			Port:              envIntOr("QUARRY_PORT", 8080),
			Mode:              envOr("QUARRY_MODE", "release"),
			RequestsPerSecond: envFloatOr("QUARRY_RATE_RPS", 2.0),
			Burst:             envIntOr("QUARRY_RATE_BURST", 5),
			CacheEntries:      envIntOr("QUARRY_CACHE_ENTRIES", 256),
			CacheTTL:          envDurationOr("QUARRY_CACHE_TTL", 5*time.Minute),
		},
		Browser: BrowserConfig{
			Headless:        envBoolOr("QUARRY_HEADLESS", true),
			NoSandbox:       envBoolOr("QUARRY_NO_SANDBOX", false),
			Bin:             os.Getenv("QUARRY_BROWSER_BIN"),
			NavTimeout:      envDurationOr("QUARRY_NAV_TIMEOUT", 30*time.Second),
			UseHTTPFallback: envBoolOr("QUARRY_HTTP_FALLBACK", false),
		},
		Crawl: CrawlConfig{
			MaxDepth:      envIntOr("QUARRY_MAX_DEPTH", 2),
			MaxPages:      envIntOr("QUARRY_MAX_PAGES", 10),
			Delay:         envDurationOr("QUARRY_DELAY", time.Second),
			RespectRobots: envBoolOr("QUARRY_RESPECT_ROBOTS", true),
			FollowLinks:   envBoolOr("QUARRY_FOLLOW_LINKS", true),
			UserAgent:     envOr("QUARRY_USER_AGENT", useragent.Default),
			Jitter:        envFloatOr("QUARRY_JITTER", 0.1),
			RobotsTimeout: envDurationOr("QUARRY_ROBOTS_TIMEOUT", 5*time.Second),
			SitemapLimit:  envIntOr("QUARRY_SITEMAP_LIMIT", 100),
		},
		Storage: StorageConfig{
			Backend: os.Getenv("QUARRY_STORAGE_BACKEND"),
			DSN:     os.Getenv("QUARRY_STORAGE_DSN"),
		},
		Metrics: MetricsConfig{
			Enabled: envBoolOr("QUARRY_METRICS_ENABLED", true),
			Port:    envIntOr("QUARRY_METRICS_PORT", 9090),
		},
		Log: LogConfig{
			Level:  envOr("QUARRY_LOG_LEVEL", "info"),
			Format: envOr("QUARRY_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
