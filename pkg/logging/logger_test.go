package logging

import (
	"bytes"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func TestSetup_ServiceField(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf, Service: "dropstab-fetch"})

	logger.Info().Msg("starting")

	if !strings.Contains(buf.String(), `"service":"dropstab-fetch"`) {
		t.Errorf("output %q missing service field", buf.String())
	}
}

func TestSetup_WritesToOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelDebug, Output: buf})

	logger.Debug().Str("resource", "coins").Msg("page fetched")

	out := buf.String()
	if !strings.Contains(out, "page fetched") {
		t.Errorf("output %q missing message", out)
	}
	if !strings.Contains(out, `"resource":"coins"`) {
		t.Errorf("output %q missing resource field", out)
	}
}

func TestSetup_NilOutputFallsBack(t *testing.T) {
	// Must not panic on a zero Config.
	Setup(Config{})
	Setup(Config{Level: LevelInfo, Output: &bytes.Buffer{}})
}

func TestSetup_StackMarshaler(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelError, Output: buf})

	logger.Error().Stack().Err(pkgerrors.New("boom")).Msg("fetch failed")

	if !strings.Contains(buf.String(), `"stack"`) {
		t.Errorf("expected stack field in %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{" Debug ", zerolog.DebugLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error"} {
		if !ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = false, want true", lvl)
		}
	}
	for _, lvl := range []string{"", "trace", "verbose"} {
		if ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = true, want false", lvl)
		}
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})

	logger := NewLogger("pagination")
	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")

	out := buf.String()
	if strings.Contains(out, "info message") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("warn message missing")
	}
	if !strings.Contains(out, `"component":"pagination"`) {
		t.Errorf("component field missing in %q", out)
	}
}
