// Package ratelimit implements the DropsTab rate-limit handling: parsing the
// Retry-After header of a 429 response and waiting it out.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is used when a 429 response carries no usable Retry-After.
const DefaultRetryAfter = 2 * time.Second

// HeaderRetryAfter is the response header read on HTTP 429.
const HeaderRetryAfter = "Retry-After"

// RetryAfter returns the wait requested by a 429 response.
// Only whole seconds are accepted; a missing, non-numeric or negative value
// yields def.
func RetryAfter(headers http.Header, def time.Duration) time.Duration {
	raw := strings.TrimSpace(headers.Get(HeaderRetryAfter))
	if raw == "" {
		return def
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}
