// Package config loads tsmigrate configuration with precedence
// flag > environment > file > defaults. The file is YAML; environment
// overrides use the TSMIGRATE_ prefix.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Default values for configuration fields.
const (
	DefaultBackend     = BackendSQLite
	DefaultStorePath   = "./data/tsmigrate.db"
	DefaultLockTimeout = 10 * time.Second
	DefaultFormat      = "text"
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	Backend     string        `env:"TSMIGRATE_BACKEND"`
	DatabaseURL string        `env:"TSMIGRATE_DATABASE_URL"`
	StorePath   string        `env:"TSMIGRATE_STORE_PATH"`
	LockTimeout time.Duration `env:"TSMIGRATE_LOCK_TIMEOUT"`
	Format      string        `env:"TSMIGRATE_FORMAT"`
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	StorePath   string `yaml:"store_path"`
	LockTimeout string `yaml:"lock_timeout"`
	Format      string `yaml:"format"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		Backend:     DefaultBackend,
		StorePath:   DefaultStorePath,
		LockTimeout: DefaultLockTimeout,
		Format:      DefaultFormat,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	if raw.Backend != "" {
		cfg.Backend = raw.Backend
	}

	if raw.DatabaseURL != "" {
		cfg.DatabaseURL = raw.DatabaseURL
	}

	if raw.StorePath != "" {
		cfg.StorePath = raw.StorePath
	}

	if raw.LockTimeout != "" {
		d, err := time.ParseDuration(raw.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing lock_timeout %q: %w", raw.LockTimeout, err)
		}

		cfg.LockTimeout = d
	}

	if raw.Format != "" {
		cfg.Format = raw.Format
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MergeEnv overrides config fields from TSMIGRATE_* environment variables.
func MergeEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	return nil
}

// Validate checks the backend name. Other fields are validated where used.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendPostgres:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}
