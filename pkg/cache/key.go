package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces all cache keys in Redis.
const KeyPrefix = "dropstab"

// CacheKey identifies a cached API response.
type CacheKey struct {
	// Endpoint is the API path or absolute URL (e.g., "exchanges/binance/pairs")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"page": "0"})
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: dropstab:endpoint:query1=val1:query2=val2
//
// Example:
//
//	dropstab:coins:page=0:pageSize=100
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		keys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			values := append([]string(nil), k.QueryParams[key]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
