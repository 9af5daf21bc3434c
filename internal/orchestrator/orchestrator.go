// Package orchestrator runs the standard set of fetches as isolated child
// processes, one at a time, stopping at the first failure.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/Sternrassler/dropstab-client/internal/config"
	"github.com/Sternrassler/dropstab-client/pkg/logging"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropstab_orchestrator_steps_total",
		Help: "Orchestrator steps by key and result (ok, failed, skipped)",
	}, []string{"step", "result"})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dropstab_orchestrator_step_duration_seconds",
		Help:    "Wall time of each orchestrator step",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"step"})
)

// Step is one fetch in the sequence.
type Step struct {
	Key   string
	Label string
}

// DefaultSteps is the fixed run order.
var DefaultSteps = []Step{
	{Key: "funding_rounds", Label: "Funding rounds"},
	{Key: "investors", Label: "Investors"},
	{Key: "coins", Label: "Coins"},
	{Key: "coins_supported", Label: "Coins supported"},
	{Key: "token_unlocks", Label: "Token unlocks"},
	{Key: "token_unlocks_supported", Label: "Token unlocks supported coins"},
	{Key: "fear_index", Label: "Fear index history"},
	{Key: "crypto_activities", Label: "Crypto activities"},
	{Key: "exchanges", Label: "Exchanges"},
}

// ExitError reports the step that stopped the sequence and its exit code.
type ExitError struct {
	Key  string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("step %s failed with exit code %d: %v", e.Key, e.Code, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Config configures an Orchestrator.
type Config struct {
	// Steps defaults to DefaultSteps.
	Steps []Step
	// Binary is the fetch executable; each step runs Binary Args... <key>.
	Binary string
	Args   []string
	// Env is appended to the parent environment of every child.
	Env []string
	// RunID is generated when empty.
	RunID string

	Stdout io.Writer
	Stderr io.Writer
}

// Orchestrator runs steps sequentially as child processes.
type Orchestrator struct {
	config Config
	logger zerolog.Logger
}

// New returns an orchestrator for cfg.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("fetch binary is required")
	}
	if cfg.Steps == nil {
		cfg.Steps = DefaultSteps
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &Orchestrator{
		config: cfg,
		logger: logging.NewLogger("orchestrator").With().Str("run_id", cfg.RunID).Logger(),
	}, nil
}

// RunID returns the ID passed to every child.
func (o *Orchestrator) RunID() string {
	return o.config.RunID
}

// Run executes every step not in skip, in order. It returns *ExitError for
// the first step that fails; later steps are not started.
func (o *Orchestrator) Run(ctx context.Context, skip map[string]bool) error {
	if len(skip) > 0 {
		keys := make([]string, 0, len(skip))
		for k := range skip {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o.logger.Info().Strs("skip", keys).Msg("Skipping steps")
	}

	o.logger.Info().Int("steps", len(o.config.Steps)).Msg("Starting full data fetch")
	for _, step := range o.config.Steps {
		if skip[step.Key] {
			stepsTotal.WithLabelValues(step.Key, "skipped").Inc()
			o.logger.Info().Str("step", step.Key).Str("label", step.Label).Msg("Skipping step")
			continue
		}
		if err := o.runStep(ctx, step); err != nil {
			stepsTotal.WithLabelValues(step.Key, "failed").Inc()
			o.logger.Error().Err(err).Str("step", step.Key).Msg("Step failed, stopping")
			return err
		}
		stepsTotal.WithLabelValues(step.Key, "ok").Inc()
	}

	o.logger.Info().Msg("All selected steps completed")
	return nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step) error {
	args := append(append([]string(nil), o.config.Args...), step.Key)
	cmd := exec.CommandContext(ctx, o.config.Binary, args...)
	cmd.Stdout = o.config.Stdout
	cmd.Stderr = o.config.Stderr
	cmd.Env = append(os.Environ(), o.config.Env...)
	cmd.Env = append(cmd.Env, config.EnvRunID+"="+o.config.RunID)

	o.logger.Info().
		Str("step", step.Key).
		Str("label", step.Label).
		Str("command", o.config.Binary+" "+strings.Join(args, " ")).
		Msg("Running step")

	start := time.Now()
	err := cmd.Run()
	stepDuration.WithLabelValues(step.Key).Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}

	code := 1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		code = exitErr.ExitCode()
	}
	return &ExitError{Key: step.Key, Code: code, Err: err}
}

// ParseSkip validates skip keys against steps. Each value may hold several
// comma-separated keys.
func ParseSkip(values []string, steps []Step) (map[string]bool, error) {
	known := make(map[string]bool, len(steps))
	for _, s := range steps {
		known[s.Key] = true
	}

	skip := make(map[string]bool)
	var unknown []string
	for _, v := range values {
		for _, key := range strings.Split(v, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if !known[key] {
				unknown = append(unknown, key)
				continue
			}
			skip[key] = true
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown step keys: %s (valid: %s)",
			strings.Join(unknown, ", "), strings.Join(Keys(steps), ", "))
	}
	return skip, nil
}

// Keys returns the step keys in run order.
func Keys(steps []Step) []string {
	keys := make([]string, len(steps))
	for i, s := range steps {
		keys[i] = s.Key
	}
	return keys
}
