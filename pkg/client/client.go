// Package client provides the DropsTab HTTP GET helper: header-based
// authentication, a single retry on HTTP 429, JSON-or-text bodies and an
// optional response cache.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/dropstab-client/pkg/cache"
	"github.com/Sternrassler/dropstab-client/pkg/logging"
	"github.com/Sternrassler/dropstab-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropstab_requests_total",
		Help: "Total DropsTab API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dropstab_request_duration_seconds",
		Help:    "DropsTab API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropstab_rate_limited_total",
		Help: "HTTP 429 responses that triggered the single retry",
	}, []string{"endpoint"})
)

// Default API settings.
const (
	DefaultBaseURL = "https://public-api.dropstab.com/api/v1"
	DefaultTimeout = 10 * time.Second

	// HeaderAPIKey carries the API key on every request.
	HeaderAPIKey = "x-dropstab-api-key"
)

// Client is the DropsTab API client.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	header     http.Header
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is prefixed to relative paths.
	BaseURL string

	// APIKey is sent in the x-dropstab-api-key header (REQUIRED).
	APIKey string

	// UserAgent header value
	UserAgent string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// RetryAfterDefault is slept on 429 when Retry-After is missing or invalid.
	RetryAfterDefault time.Duration

	// Cache is optional; nil disables response caching.
	Cache *cache.Manager

	// Sleep waits out Retry-After. Defaults to ratelimit.Sleep.
	Sleep ratelimit.SleepFunc
}

// DefaultConfig returns a default configuration for the given API key.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		APIKey:            apiKey,
		Timeout:           DefaultTimeout,
		RetryAfterDefault: ratelimit.DefaultRetryAfter,
	}
}

// New creates a new DropsTab client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryAfterDefault < 0 {
		return nil, fmt.Errorf("retry_after_default must be >= 0 (got %s)", cfg.RetryAfterDefault)
	}
	if cfg.Sleep == nil {
		cfg.Sleep = ratelimit.Sleep
	}

	header := http.Header{}
	header.Set(HeaderAPIKey, cfg.APIKey)
	header.Set("Accept", "*/*")
	if cfg.UserAgent != "" {
		header.Set("User-Agent", cfg.UserAgent)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cfg.Cache,
		config:     cfg,
		header:     header,
		logger:     logging.NewLogger("dropstab-client"),
	}, nil
}

// URL resolves path against the base URL. Absolute http(s) URLs are
// returned unchanged.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http") {
		return path
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Get performs a GET request against path with the given query parameters.
//
// A 429 response is retried exactly once after the Retry-After wait. Any
// final status >= 400 is returned as *APIError. Transport errors are
// returned as-is, without retry.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	target := c.URL(path)
	key := cache.CacheKey{Endpoint: path, QueryParams: params}

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Str("endpoint", path).Msg("Cache hit")
			return &Response{
				StatusCode: entry.StatusCode,
				Header:     http.Header{"Content-Type": {entry.ContentType}},
				Body:       entry.Data,
				URL:        target,
				FromCache:  true,
			}, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", path).Msg("Cache get error")
		}
	}

	resp, err := c.getWithRetry(ctx, path, target, params)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			URL:        target,
			Params:     params,
			Body:       resp.Text(),
		}
		c.logger.Error().
			Str("endpoint", path).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(apiErr.ErrorClass)).
			Msg("DropsTab request failed")
		return nil, apiErr
	}

	if c.cache != nil && cache.Cacheable(resp.StatusCode) {
		entry := cache.NewEntry(resp.StatusCode, resp.Header, resp.Body, c.cache.TTL())
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", path).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// do executes a single GET attempt and reads the whole body.
func (c *Client) do(ctx context.Context, path, target string, params url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = c.header.Clone()
	if len(params) > 0 {
		q := req.URL.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug().
		Str("endpoint", path).
		Str("query", req.URL.RawQuery).
		Msg("Executing DropsTab request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(path, "network_error").Inc()
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(path, "network_error").Inc()
		return nil, fmt.Errorf("read response from %s: %w", target, err)
	}
	requestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		URL:        target,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
