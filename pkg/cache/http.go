package cache

import (
	"net/http"
	"time"
)

// DefaultTTL is the entry lifetime when none is configured.
const DefaultTTL = 10 * time.Minute

// Cacheable reports whether a response with the given status may be cached.
// Only 2xx responses are stored; errors and 429s always go back to the API.
func Cacheable(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// NewEntry builds a cache entry for a response body that expires after ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewEntry(statusCode int, header http.Header, body []byte, ttl time.Duration) *CacheEntry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	data := make([]byte, len(body))
	copy(data, body)

	return &CacheEntry{
		Data:        data,
		StatusCode:  statusCode,
		ContentType: header.Get("Content-Type"),
		CachedAt:    now,
		Expires:     now.Add(ttl),
	}
}
