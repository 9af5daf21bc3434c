package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var retryAfterSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "dropstab_retry_after_seconds",
	Help:    "Retry-After waits honoured after HTTP 429",
	Buckets: []float64{0, 1, 2, 5, 10, 30, 60},
})

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d, returning ctx.Err() if the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait records a Retry-After wait of d and sleeps it with sleep.
func Wait(ctx context.Context, d time.Duration, sleep SleepFunc) error {
	if sleep == nil {
		sleep = Sleep
	}
	retryAfterSeconds.Observe(d.Seconds())
	return sleep(ctx, d)
}
