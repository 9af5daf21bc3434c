// Command dropstab-runall runs the standard DropsTab fetches in sequence,
// each as a separate dropstab-fetch process, and stops at the first failure.
//
//	dropstab-runall [-config file] [-fetch-bin path] [-skip key[,key...]] [key ...]
//
// Trailing arguments are additional keys to skip. The exit code is that of
// the first failing step, 2 for usage errors, 0 when every step succeeded.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Sternrassler/dropstab-client/internal/config"
	"github.com/Sternrassler/dropstab-client/internal/orchestrator"
	"github.com/Sternrassler/dropstab-client/internal/version"
	"github.com/Sternrassler/dropstab-client/pkg/logging"
	"github.com/Sternrassler/dropstab-client/pkg/metrics"
	"github.com/rs/zerolog/log"
)

const fetchBinary = "dropstab-fetch"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dropstab-runall", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var skipValues []string
	configPath := fs.String("config", "", "YAML config file, passed on to every step")
	fetchBin := fs.String("fetch-bin", "", "dropstab-fetch binary (default: next to this binary, then PATH)")
	fs.Func("skip", "step keys to skip; comma separated or repeated ("+
		strings.Join(orchestrator.Keys(orchestrator.DefaultSteps), ", ")+")",
		func(v string) error {
			skipValues = append(skipValues, v)
			return nil
		})

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	skipValues = append(skipValues, fs.Args()...)

	skip, err := orchestrator.ParseSkip(skipValues, orchestrator.DefaultSteps)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logCfg := cfg.LoggingConfig()
	logCfg.Output = stderr
	logCfg.Service = "dropstab-runall"
	logging.Setup(logCfg)
	defer func() {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn().Err(err).Msg("Failed to write metrics textfile")
		}
	}()

	bin, err := resolveFetchBinary(*fetchBin)
	if err != nil {
		log.Error().Err(err).Msg("Cannot locate fetch binary")
		return 1
	}

	var childArgs []string
	if *configPath != "" {
		childArgs = append(childArgs, "-config", *configPath)
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Binary: bin,
		Args:   childArgs,
		Stdout: stdout,
		Stderr: stderr,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create orchestrator")
		return 1
	}

	log.Info().
		Str("version", version.String()).
		Str("run_id", orch.RunID()).
		Str("fetch_bin", bin).
		Msg("Starting dropstab-runall")

	if err := orch.Run(ctx, skip); err != nil {
		var exitErr *orchestrator.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// resolveFetchBinary prefers an explicit path, then a dropstab-fetch next to
// the running executable, then PATH.
func resolveFetchBinary(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), fetchBinary)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	path, err := exec.LookPath(fetchBinary)
	if err != nil {
		return "", fmt.Errorf("%s not found next to executable or in PATH: %w", fetchBinary, err)
	}
	return path, nil
}
