package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/dropstab-client/pkg/ratelimit"
)

// getWithRetry performs the GET and, on HTTP 429 only, waits for the
// Retry-After duration and tries exactly once more. The second response is
// returned whatever its status.
func (c *Client) getWithRetry(ctx context.Context, path, target string, params url.Values) (*Response, error) {
	resp, err := c.do(ctx, path, target, params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	wait := ratelimit.RetryAfter(resp.Header, c.config.RetryAfterDefault)
	rateLimitedTotal.WithLabelValues(path).Inc()
	c.logger.Warn().
		Str("endpoint", path).
		Dur("retry_after", wait).
		Msg("Rate limited, retrying once")

	if err := ratelimit.Wait(ctx, wait, c.config.Sleep); err != nil {
		return nil, fmt.Errorf("wait for retry-after: %w", err)
	}

	return c.do(ctx, path, target, params)
}
