package graylite

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration defaults.
const (
	// defaultBusyTimeout is the maximum time to wait for a database lock (seconds).
	defaultBusyTimeout = 5

	// defaultMaxReaders is the size of the shared-read connection pool.
	defaultMaxReaders = 4
)

// Config identifies and configures a versioned store. It is frozen into the
// Store at New; mutating it afterwards has no effect.
type Config struct {
	// Dir is the application-private directory holding the database file.
	// Created with 0750 permissions if it doesn't exist.
	Dir string `yaml:"dir"`

	// Name is the database file name within Dir.
	Name string `yaml:"name"`

	// Version is the schema version this process requires. Must be >= 1.
	// Opening a file persisted at a newer version fails with ErrLifecycle.
	Version int `yaml:"version"`

	// WALMode enables Write-Ahead Logging for better concurrent access.
	// Recommended: true (allows concurrent reads during writes).
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	// Zero selects the default of 5 seconds.
	BusyTimeout int `yaml:"busy_timeout"`

	// MaxReaders caps the shared-read connection pool.
	// Zero selects the default of 4.
	MaxReaders int `yaml:"max_readers"`
}

// LoadConfig reads a store configuration from a YAML file and applies
// environment variable overrides.
//
// The loading order is:
//  1. Default values (WAL on, 5s busy timeout, 4 readers)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern GRAYLITE_KEY: GRAYLITE_DIR,
// GRAYLITE_NAME, GRAYLITE_VERSION, GRAYLITE_WAL_MODE, GRAYLITE_BUSY_TIMEOUT
// and GRAYLITE_MAX_READERS.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read, parsed, or validation fails
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		WALMode:     true,
		BusyTimeout: defaultBusyTimeout,
		MaxReaders:  defaultMaxReaders,
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Only values explicitly set in the environment override file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYLITE_DIR"); v != "" {
		cfg.Dir = v
	}
	if v := os.Getenv("GRAYLITE_NAME"); v != "" {
		cfg.Name = v
	}
	if v := os.Getenv("GRAYLITE_VERSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Version = n
		}
	}
	if v := os.Getenv("GRAYLITE_WAL_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.WALMode = b
		}
	}
	if v := os.Getenv("GRAYLITE_BUSY_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BusyTimeout = n
		}
	}
	if v := os.Getenv("GRAYLITE_MAX_READERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxReaders = n
		}
	}
}

// Validate checks the configuration for correctness.
// It returns an error describing all problems found, or nil if valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Dir == "" {
		errs = append(errs, "dir is required")
	}
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.Version < 1 {
		errs = append(errs, "version must be >= 1")
	}
	if c.BusyTimeout < 0 {
		errs = append(errs, "busy_timeout must not be negative")
	}
	if c.MaxReaders < 0 {
		errs = append(errs, "max_readers must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// withDefaults returns a copy of c with zero-valued tunables replaced by
// their defaults. Version and identity fields are left untouched.
func (c Config) withDefaults() Config {
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.MaxReaders == 0 {
		c.MaxReaders = defaultMaxReaders
	}
	return c
}
