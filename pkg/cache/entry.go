package cache

import (
	"time"
)

// CacheEntry is one stored DropsTab response body.
type CacheEntry struct {
	Data        []byte    `json:"data"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type,omitempty"`
	CachedAt    time.Time `json:"cached_at"`
	Expires     time.Time `json:"expires"`
}

// IsExpired reports whether Expires has passed.
func (e *CacheEntry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL is the time left until Expires, never negative.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
