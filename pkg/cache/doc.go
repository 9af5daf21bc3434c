// Package cache provides an optional Redis-backed cache for successful
// DropsTab API responses.
//
// Entries are keyed by API path and sorted query parameters and live for a
// fixed TTL. The cache is a convenience for repeated runs against the same
// endpoints during a day; it never fails a request: callers treat every
// cache error as a miss.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, 10*time.Minute)
//
//	key := cache.CacheKey{
//		Endpoint:    "coins",
//		QueryParams: url.Values{"page": {"0"}, "pageSize": {"100"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then
//		_ = manager.Set(ctx, key, cache.NewEntry(200, header, body, manager.TTL()))
//	}
//
// # Metrics
//
//   - dropstab_cache_hits_total
//   - dropstab_cache_misses_total
//   - dropstab_cache_errors_total{operation}
package cache
