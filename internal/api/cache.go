package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds recent scrape responses keyed by the full request shape, so
// identical requests within the TTL skip the crawl entirely.
type Cache struct {
	lru *expirable.LRU[string, ScrapeResponse]
}

// NewCache creates a response cache with the given capacity and TTL.
func NewCache(entries int, ttl time.Duration) *Cache {
	if entries <= 0 {
		entries = 256
	}
	return &Cache{lru: expirable.NewLRU[string, ScrapeResponse](entries, nil, ttl)}
}

// Key derives a stable cache key from the whole request, since any field
// can change the result set.
func Key(req *ScrapeRequest) string {
	data, err := json.Marshal(req)
	if err != nil {
		return req.URL
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns a cached response if present.
func (c *Cache) Get(key string) (ScrapeResponse, bool) {
	return c.lru.Get(key)
}

// Set stores a response.
func (c *Cache) Set(key string, resp ScrapeResponse) {
	c.lru.Add(key, resp)
}
