// Command dropstab-fetch fetches one DropsTab resource and writes its JSON
// snapshot under <output root>/data/raw.
//
//	dropstab-fetch [-config file] <resource> [-coin slug] [-exchange slug]
//	               [-investor slug] [-id id] [-from t] [-to t] [-interval v]
//	               [-timeframe v] [-date d] [-currency c]
//
// Exit codes: 0 success, 1 fetch or configuration error, 2 usage error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Sternrassler/dropstab-client/internal/config"
	"github.com/Sternrassler/dropstab-client/internal/endpoints"
	"github.com/Sternrassler/dropstab-client/internal/fetch"
	"github.com/Sternrassler/dropstab-client/internal/version"
	"github.com/Sternrassler/dropstab-client/pkg/cache"
	"github.com/Sternrassler/dropstab-client/pkg/client"
	"github.com/Sternrassler/dropstab-client/pkg/logging"
	"github.com/Sternrassler/dropstab-client/pkg/metrics"
	"github.com/Sternrassler/dropstab-client/pkg/snapshot"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	configPath  string
	list        bool
	showVersion bool
	args        endpoints.Args
	resource    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// parseArgs accepts flags both before and after the resource name.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{args: endpoints.Args{Query: map[string]string{}}}

	fs := flag.NewFlagSet("dropstab-fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: dropstab-fetch [flags] <resource> [flags]")
		fmt.Fprintln(stderr, "run with -list to show resources")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "YAML config file; a relative api.key_file is read from output.root (default: working directory)")
	fs.BoolVar(&opts.list, "list", false, "list resources and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	fs.StringVar(&opts.args.Coin, "coin", "", "coin slug (e.g. bitcoin)")
	fs.StringVar(&opts.args.Exchange, "exchange", "", "exchange slug (e.g. binance)")
	fs.StringVar(&opts.args.Investor, "investor", "", "investor slug (e.g. jump-trading)")
	fs.StringVar(&opts.args.ID, "id", "", "funding round or crypto activity id")

	query := map[string]*string{
		endpoints.ParamFrom:      fs.String("from", "", "range start, 2006-01-02T15:04:05 (no zone)"),
		endpoints.ParamTo:        fs.String("to", "", "range end, 2006-01-02T15:04:05 (no zone)"),
		endpoints.ParamInterval:  fs.String("interval", "", "chart interval (e.g. hour, day)"),
		endpoints.ParamTimeFrame: fs.String("timeframe", "", "chart time frame (e.g. DAY)"),
		endpoints.ParamDate:      fs.String("date", "", "price date, 2006-01-02"),
		endpoints.ParamCurrency:  fs.String("currency", "", "quote currency (e.g. USD)"),
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	if len(rest) > 0 {
		opts.resource = rest[0]
		if err := fs.Parse(rest[1:]); err != nil {
			return nil, err
		}
		if fs.NArg() > 0 {
			return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
		}
	}

	for name, v := range query {
		if *v != "" {
			opts.args.Query[name] = *v
		}
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if opts.showVersion {
		fmt.Fprintln(stdout, version.String())
		return exitOK
	}
	if opts.list {
		printResources(stdout)
		return exitOK
	}
	if opts.resource == "" {
		fmt.Fprintln(stderr, "resource is required (run with -list to show resources)")
		return exitUsage
	}
	res, ok := endpoints.Lookup(opts.resource)
	if !ok {
		fmt.Fprintf(stderr, "unknown resource %q (run with -list to show resources)\n", opts.resource)
		return exitUsage
	}
	// Usage errors are reported before the config or key file is read.
	if _, err := res.Resolve(opts.args, time.Now()); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}
	logCfg := cfg.LoggingConfig()
	logCfg.Output = stderr
	logCfg.Service = "dropstab-fetch"
	logging.Setup(logCfg)
	defer func() {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn().Err(err).Msg("Failed to write metrics textfile")
		}
	}()

	log.Info().
		Str("version", version.String()).
		Str("resource", res.Key).
		Msg("Starting dropstab-fetch")

	apiKey, err := config.LoadAPIKey(cfg.KeyFilePath())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load API key")
		return exitError
	}

	dirs, err := cfg.EnsureDirs()
	if err != nil {
		log.Error().Err(err).Msg("Failed to prepare output directories")
		return exitError
	}

	clientCfg := cfg.ClientConfig(apiKey)
	if rdb := connectCache(ctx, cfg); rdb != nil {
		defer rdb.Close()
		clientCfg.Cache = cache.NewManager(rdb, cfg.Cache.TTL)
	}
	apiClient, err := client.New(clientCfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create DropsTab client")
		return exitError
	}
	defer apiClient.Close()

	sinks := []snapshot.Sink{snapshot.NewLocalSink(dirs.Raw)}
	if s3cfg, ok := cfg.S3SinkConfig(); ok {
		s3Sink, err := snapshot.NewS3Sink(ctx, s3cfg)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create S3 sink")
			return exitError
		}
		sinks = append(sinks, s3Sink)
	}

	runner := fetch.NewRunner(
		apiClient,
		cfg.PaginationConfig(),
		snapshot.NewWriter(sinks...),
		fetch.Options{RunID: os.Getenv(config.EnvRunID)},
	)

	result, err := runner.Run(ctx, res, opts.args)
	if err != nil {
		var usage *endpoints.UsageError
		if errors.As(err, &usage) {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		log.Error().Stack().Err(err).Str("resource", res.Key).Msg("Fetch failed")
		return exitError
	}

	for _, loc := range result.Locations {
		fmt.Fprintf(stdout, "Finished writing %s\n", loc)
	}
	return exitOK
}

// connectCache returns a redis client when the cache is configured and
// reachable. An unreachable redis only disables caching.
func connectCache(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.Cache.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisAddr,
		DB:   cfg.Cache.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("Redis unavailable, caching disabled")
		rdb.Close()
		return nil
	}
	log.Debug().Str("addr", cfg.Cache.RedisAddr).Msg("Connected to Redis")
	return rdb
}

func printResources(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tKIND\tPATH")
	for _, r := range endpoints.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Key, r.Kind, r.Path)
	}
	tw.Flush()
}
