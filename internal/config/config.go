// Package config loads service configuration from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"

	"github.com/jonathan/story-annotations/internal/server/ratelimit"
)

type (
	LogConfig struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" validate:"oneof=json console"`
	}

	RateLimitConfig struct {
		Enabled       bool          `yaml:"enabled"`
		DefaultLimit  int           `yaml:"default_limit" validate:"gte=0"`
		DefaultWindow time.Duration `yaml:"default_window" validate:"gte=0"`
		WriteLimit    int           `yaml:"write_limit" validate:"gte=0"`
		Whitelist     string        `yaml:"whitelist"`
		Blacklist     string        `yaml:"blacklist"`
	}

	// Config is the annotation service configuration. Environment variables override
	// file values; command-line flags override both.
	Config struct {
		DatabaseURL     string          `yaml:"database_url"`
		Port            int             `yaml:"port" validate:"min=1,max=65535"`
		ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" validate:"gte=0"`
		Log             LogConfig       `yaml:"log"`
		RateLimit       RateLimitConfig `yaml:"rate_limit"`
	}
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		Log:             LogConfig{Level: "info", Format: "json"},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			DefaultLimit:  1000,
			DefaultWindow: time.Minute,
			WriteLimit:    120,
		},
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return &cfg, nil
}

// Load builds the configuration from the defaults, the optional file at path and
// the process environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables. Malformed values are
// reported together.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: invalid integer %q", key, v))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: invalid boolean %q", key, v))
				return
			}
			*dst = b
		}
	}

	str("DATABASE_URL", &c.DatabaseURL)
	num("PORT", &c.Port)
	dur("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	flag("RATE_LIMIT_ENABLED", &c.RateLimit.Enabled)
	num("RATE_LIMIT_DEFAULT", &c.RateLimit.DefaultLimit)
	dur("RATE_LIMIT_WINDOW", &c.RateLimit.DefaultWindow)
	num("RATE_LIMIT_WRITE", &c.RateLimit.WriteLimit)
	str("RATE_LIMIT_WHITELIST", &c.RateLimit.Whitelist)
	str("RATE_LIMIT_BLACKLIST", &c.RateLimit.Blacklist)

	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	return errs
}

var validate = validator.New()

// Validate checks field ranges. DatabaseURL is checked by the commands that need it.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	var errs error
	for _, fe := range fieldErrs {
		errs = multierr.Append(errs, fmt.Errorf("config error: '%s' failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return errs
}

// RequireDatabase reports a missing DATABASE_URL.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	return nil
}

// LimiterConfig returns the rate limiter configuration.
func (c *Config) LimiterConfig() *ratelimit.Config {
	return ratelimit.NewConfig(ratelimit.Settings{
		Enabled:       c.RateLimit.Enabled,
		DefaultLimit:  c.RateLimit.DefaultLimit,
		DefaultWindow: c.RateLimit.DefaultWindow,
		WriteLimit:    c.RateLimit.WriteLimit,
		Whitelist:     c.RateLimit.Whitelist,
		Blacklist:     c.RateLimit.Blacklist,
	})
}
