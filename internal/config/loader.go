package config

import (
	"bufio"
	"bytes"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Configuration errors returned by LoadAPIKey.
var (
	ErrKeyFileNotFound = errors.New("key file not found")
	ErrEmptyKeyFile    = errors.New("empty key file")
)

// DotEnvFile is loaded into the environment when present.
const DotEnvFile = ".env"

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty), the .env file (if present) and DROPSTAB_* environment
// variables, in that order of increasing priority. The result is validated.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}

		// Expand ${VAR} environment variables
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, errors.Wrap(err, "parse config yaml")
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

// loadDotEnv loads file without overriding variables already set. A missing
// file is not an error.
func loadDotEnv(file string) error {
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		return errors.Wrapf(err, "load %s", file)
	}
	return nil
}

// lookupFunc matches os.LookupEnv.
type lookupFunc func(string) (string, bool)

// applyEnv overlays DROPSTAB_* variables onto cfg.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "parse %s", name)
		}
		*dst = d
		return nil
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parse %s", name)
		}
		*dst = n
		return nil
	}

	str("DROPSTAB_BASE_URL", &cfg.API.BaseURL)
	str("DROPSTAB_KEY_FILE", &cfg.API.KeyFile)
	str("DROPSTAB_OUTPUT_ROOT", &cfg.Output.Root)
	str("DROPSTAB_LOG_LEVEL", &cfg.Log.Level)
	str("DROPSTAB_REDIS_ADDR", &cfg.Cache.RedisAddr)
	str("DROPSTAB_S3_BUCKET", &cfg.S3.Bucket)
	str("DROPSTAB_S3_REGION", &cfg.S3.Region)
	str("DROPSTAB_S3_PREFIX", &cfg.S3.Prefix)
	str("DROPSTAB_S3_ACCESS_KEY_ID", &cfg.S3.AccessKeyID)
	str("DROPSTAB_S3_SECRET_ACCESS_KEY", &cfg.S3.SecretAccessKey)
	str("DROPSTAB_METRICS_TEXTFILE", &cfg.Metrics.Textfile)

	if v, ok := lookup("DROPSTAB_LOG_PRETTY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "parse DROPSTAB_LOG_PRETTY")
		}
		cfg.Log.Pretty = b
	}

	for _, f := range []func() error{
		func() error { return dur("DROPSTAB_TIMEOUT", &cfg.API.Timeout) },
		func() error { return dur("DROPSTAB_PAGE_DELAY", &cfg.API.PageDelay) },
		func() error { return dur("DROPSTAB_RETRY_AFTER_DEFAULT", &cfg.API.RetryAfterDefault) },
		func() error { return dur("DROPSTAB_CACHE_TTL", &cfg.Cache.TTL) },
		func() error { return num("DROPSTAB_PAGE_SIZE", &cfg.API.PageSize) },
		func() error { return num("DROPSTAB_REDIS_DB", &cfg.Cache.RedisDB) },
	} {
		if err := f(); err != nil {
			return err
		}
	}
	return nil
}

// LoadAPIKey reads the API key from path: the first non-blank line, trimmed.
// It fails with ErrKeyFileNotFound or ErrEmptyKeyFile.
func LoadAPIKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrKeyFileNotFound, "%s", path)
		}
		return "", errors.Wrapf(err, "read key file %s", path)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrapf(err, "scan key file %s", path)
	}
	return "", errors.Wrapf(ErrEmptyKeyFile, "%s", path)
}

// EnvRunID carries the orchestrator run ID to child fetch processes.
const EnvRunID = "DROPSTAB_RUN_ID"
