// Package config loads the fetcher configuration: defaults, an optional YAML
// file, an optional .env file and DROPSTAB_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sternrassler/dropstab-client/internal/version"
	"github.com/Sternrassler/dropstab-client/pkg/cache"
	"github.com/Sternrassler/dropstab-client/pkg/client"
	"github.com/Sternrassler/dropstab-client/pkg/logging"
	"github.com/Sternrassler/dropstab-client/pkg/pagination"
	"github.com/Sternrassler/dropstab-client/pkg/snapshot"
)

// Config is the root configuration, built once per process.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	Cache   CacheConfig   `yaml:"cache"`
	S3      S3Config      `yaml:"s3"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig holds DropsTab API settings.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	KeyFile           string        `yaml:"key_file"` // first non-blank line is the API key; relative to output.root
	Timeout           time.Duration `yaml:"timeout"`
	PageSize          int           `yaml:"page_size"`
	PageDelay         time.Duration `yaml:"page_delay"`
	RetryAfterDefault time.Duration `yaml:"retry_after_default"`
}

// OutputConfig holds the snapshot output location.
type OutputConfig struct {
	Root string `yaml:"root"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// CacheConfig holds the optional redis response cache. An empty RedisAddr
// disables caching.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

// S3Config holds the optional S3 snapshot mirror. An empty Bucket disables it.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// MetricsConfig holds the node_exporter textfile path. Empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// DefaultKeyFile is the key file looked up when none is configured.
const DefaultKeyFile = "DropsTab_API_key.txt"

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:           client.DefaultBaseURL,
			KeyFile:           DefaultKeyFile,
			Timeout:           client.DefaultTimeout,
			PageSize:          100,
			PageDelay:         750 * time.Millisecond,
			RetryAfterDefault: 2 * time.Second,
		},
		Output: OutputConfig{Root: "."},
		Log:    LogConfig{Level: string(logging.LevelInfo)},
		Cache:  CacheConfig{TTL: cache.DefaultTTL},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.KeyFile == "" {
		return fmt.Errorf("api.key_file is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0 (got %s)", c.API.Timeout)
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("api.page_size must be > 0 (got %d)", c.API.PageSize)
	}
	if c.API.PageDelay < 0 {
		return fmt.Errorf("api.page_delay must be >= 0 (got %s)", c.API.PageDelay)
	}
	if c.API.RetryAfterDefault < 0 {
		return fmt.Errorf("api.retry_after_default must be >= 0 (got %s)", c.API.RetryAfterDefault)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Cache.RedisAddr != "" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0 when the cache is enabled (got %s)", c.Cache.TTL)
	}
	return nil
}

// KeyFilePath resolves api.key_file. A relative path is taken from
// output.root, which holds both the key file and the data directory.
func (c *Config) KeyFilePath() string {
	if filepath.IsAbs(c.API.KeyFile) {
		return c.API.KeyFile
	}
	return filepath.Join(c.Output.Root, c.API.KeyFile)
}

// Dirs are the resolved output directories.
type Dirs struct {
	Data string
	Raw  string
}

// EnsureDirs resolves <root>/data and <root>/data/raw and creates them.
func (c *Config) EnsureDirs() (Dirs, error) {
	data := filepath.Join(c.Output.Root, "data")
	dirs := Dirs{Data: data, Raw: filepath.Join(data, "raw")}
	if err := os.MkdirAll(dirs.Raw, 0o755); err != nil {
		return Dirs{}, fmt.Errorf("create output dirs: %w", err)
	}
	return dirs, nil
}

// ClientConfig returns the HTTP client settings for apiKey.
func (c *Config) ClientConfig(apiKey string) client.Config {
	cfg := client.DefaultConfig(apiKey)
	cfg.BaseURL = c.API.BaseURL
	cfg.Timeout = c.API.Timeout
	cfg.RetryAfterDefault = c.API.RetryAfterDefault
	cfg.UserAgent = version.UserAgent()
	return cfg
}

// PaginationConfig returns the paginator settings.
func (c *Config) PaginationConfig() pagination.Config {
	return pagination.Config{
		PageSize: c.API.PageSize,
		Delay:    c.API.PageDelay,
	}
}

// LoggingConfig returns the logger settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  logging.LogLevel(c.Log.Level),
		Pretty: c.Log.Pretty,
	}
}

// S3SinkConfig returns the S3 mirror settings, and false when disabled.
func (c *Config) S3SinkConfig() (snapshot.S3Config, bool) {
	if c.S3.Bucket == "" {
		return snapshot.S3Config{}, false
	}
	return snapshot.S3Config{
		Bucket:          c.S3.Bucket,
		Region:          c.S3.Region,
		Prefix:          c.S3.Prefix,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		Timeout:         c.API.Timeout * 3,
	}, true
}
