package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		set    bool
		want   time.Duration
	}{
		{name: "missing header", set: false, want: DefaultRetryAfter},
		{name: "empty header", header: "", set: true, want: DefaultRetryAfter},
		{name: "whole seconds", header: "5", set: true, want: 5 * time.Second},
		{name: "zero", header: "0", set: true, want: 0},
		{name: "padded", header: " 3 ", set: true, want: 3 * time.Second},
		{name: "fractional", header: "1.5", set: true, want: DefaultRetryAfter},
		{name: "http date", header: "Wed, 21 Oct 2015 07:28:00 GMT", set: true, want: DefaultRetryAfter},
		{name: "negative", header: "-4", set: true, want: DefaultRetryAfter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.set {
				h.Set(HeaderRetryAfter, tt.header)
			}
			if got := RetryAfter(h, DefaultRetryAfter); got != tt.want {
				t.Errorf("RetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestRetryAfter_CustomDefault(t *testing.T) {
	if got := RetryAfter(http.Header{}, 7*time.Second); got != 7*time.Second {
		t.Errorf("RetryAfter() = %v, want 7s", got)
	}
}
