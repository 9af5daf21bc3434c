package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSleep_Completes(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Sleep returned after %v, want >= 20ms", elapsed)
	}
}

func TestSleep_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
}

func TestSleep_ZeroDuration(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) error = %v", err)
	}
}

func TestWait_UsesSleepFunc(t *testing.T) {
	var slept time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	if err := Wait(context.Background(), 4*time.Second, sleep); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if slept != 4*time.Second {
		t.Errorf("slept %v, want 4s", slept)
	}
}
