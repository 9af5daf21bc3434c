// Package logging sets up zerolog for the dropstab binaries.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	Level  LogLevel
	Pretty bool      // console output instead of JSON lines
	Output io.Writer // nil means os.Stderr

	// Service, when set, is attached to every event as "service".
	Service string
}

// ValidLevel reports whether level is one of the supported log levels.
func ValidLevel(level string) bool {
	_, ok := toZerolog(LogLevel(level))
	return ok
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	log.Logger = ctx.Logger()
	return log.Logger
}

// parseLevel maps level to zerolog, falling back to info.
func parseLevel(level LogLevel) zerolog.Level {
	if lvl, ok := toZerolog(level); ok {
		return lvl
	}
	return zerolog.InfoLevel
}

func toZerolog(level LogLevel) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = string(LevelWarn)
	}
	switch LogLevel(name) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return zerolog.NoLevel, false
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, false
	}
	return lvl, true
}

// NewLogger returns a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request flow
//   - Outgoing GET (url, params)
//   - Cache hit/miss
//
// Info: normal progress
//   - Page progress (page N/M with K items)
//   - Snapshot written (file, items)
//   - Orchestrator step start/skip
//
// Warn: recoverable anomalies
//   - 429 received, retrying after Retry-After
//   - Pagination metadata drift
//   - Cache or S3 mirror errors
//
// Error: fatal to the current fetcher or run
//   - Final HTTP error after the single retry
//   - Configuration errors
//   - Child process failure
//
// Context Fields:
//   - component: package emitting the event
//   - resource: resource key (coins, exchange_pairs, ...)
//   - endpoint: API path
//   - status_code: HTTP status code
//   - page, total_pages, items
//   - run_id: orchestrator run correlation ID
