package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"gocache/internal/logger"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "GOCACHE_"

// Config represents the engine configuration
type Config struct {
	// Cache configuration
	Cache CacheConfig

	// Logging configuration
	Logging LoggingConfig

	// Metrics configuration
	Metrics MetricsConfig
}

// CacheConfig holds cache store configuration
type CacheConfig struct {
	// Number of independently locked shards
	Shards int `env:"SHARDS" envDefault:"16"`

	// Interval between active expiry sweeps (0 disables the sweeper)
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	// Shards swept in parallel
	SweepWorkers int `env:"SWEEP_WORKERS" envDefault:"4"`

	// Largest accepted value in bytes (0 = unlimited)
	MaxValueBytes int `env:"MAX_VALUE_BYTES" envDefault:"0"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	// Log level: "debug", "info", "warn", "error"
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Log format: "json", "text"
	Format string `env:"LOG_FORMAT" envDefault:"json"`

	// Log destination: "stderr", "stdout" or a file path
	Output string `env:"LOG_OUTPUT" envDefault:"stderr"`

	// Enable log rotation (file output only)
	Rotation bool `env:"LOG_ROTATION" envDefault:"true"`

	// Max log file size in MB
	MaxSize int `env:"LOG_MAX_SIZE" envDefault:"100"`

	// Number of backup files to keep
	MaxBackups int `env:"LOG_MAX_BACKUPS" envDefault:"7"`

	// Max age in days
	MaxAge int `env:"LOG_MAX_AGE" envDefault:"30"`
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	// Enable Prometheus metrics
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// Default returns the configuration produced by an empty environment.
func Default() Config {
	cfg, err := parse(map[string]string{})
	if err != nil {
		// envDefault tags are constants; a failure here is a programming error.
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return *cfg
}

// Load reads configuration from GOCACHE_* environment variables and validates it.
func Load() (*Config, error) {
	cfg, err := parse(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parse fills a Config from environ, or from the process environment when environ is nil.
func parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BindFlags registers command line overrides for cfg on fs.
// Values already in cfg (from the environment) become the flag defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Cache.Shards, "shards", c.Cache.Shards, "Number of cache shards")
	fs.DurationVar(&c.Cache.SweepInterval, "sweep-interval", c.Cache.SweepInterval, "Interval between expiry sweeps (0 disables)")
	fs.IntVar(&c.Cache.SweepWorkers, "sweep-workers", c.Cache.SweepWorkers, "Shards swept in parallel")
	fs.IntVar(&c.Cache.MaxValueBytes, "max-value-bytes", c.Cache.MaxValueBytes, "Largest accepted value in bytes (0 = unlimited)")
	fs.StringVar(&c.Logging.Level, "log-level", c.Logging.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.Logging.Format, "log-format", c.Logging.Format, "Log format (json, text)")
	fs.StringVar(&c.Logging.Output, "log-output", c.Logging.Output, "Log output (stderr, stdout, or file path)")
	fs.BoolVar(&c.Metrics.Enabled, "metrics", c.Metrics.Enabled, "Enable Prometheus metrics")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Cache.Shards <= 0 {
		return fmt.Errorf("shards must be positive, got %d", c.Cache.Shards)
	}

	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("sweep interval cannot be negative: %s", c.Cache.SweepInterval)
	}

	if c.Cache.SweepWorkers <= 0 {
		return fmt.Errorf("sweep workers must be positive, got %d", c.Cache.SweepWorkers)
	}

	if c.Cache.MaxValueBytes < 0 {
		return fmt.Errorf("max value bytes cannot be negative: %d", c.Cache.MaxValueBytes)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// LoggerConfig converts the logging section for logger.Init.
func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Output:     c.Logging.Output,
		Rotation:   c.Logging.Rotation,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
