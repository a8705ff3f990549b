// Package config loads server configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrExists is returned by Init when the target file is already there.
var ErrExists = errors.New("config file already exists")

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
	Sessions SessionsConfig `yaml:"sessions"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver"` // memory, postgres
	DatabaseURL string `yaml:"database_url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// SessionsConfig bounds the editing sessions held in memory.
type SessionsConfig struct {
	MaxOpen int    `yaml:"max_open"`
	IdleTTL string `yaml:"idle_ttl"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":3000"},
		Store: StoreConfig{
			Driver:      StoreMemory,
			AutoMigrate: true,
		},
		Logging:  LoggingConfig{Level: "info"},
		Sessions: SessionsConfig{MaxOpen: 1024, IdleTTL: "30m"},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Init writes the default configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	return DefaultConfig().Save(path)
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	// A database URL alone selects postgres unless a driver is forced.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Store.DatabaseURL = url
		c.Store.Driver = StorePostgres
	}
	if driver := os.Getenv("ROUTINE_STORE"); driver != "" {
		c.Store.Driver = driver
	}
	if addr := os.Getenv("ROUTINE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("ROUTINE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetIdleTTL parses Sessions.IdleTTL, falling back to 30 minutes.
func (c *Config) GetIdleTTL() time.Duration {
	if d, err := time.ParseDuration(c.Sessions.IdleTTL); err == nil && d > 0 {
		return d
	}
	return 30 * time.Minute
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Sessions.MaxOpen <= 0 {
		return fmt.Errorf("sessions.max_open must be positive")
	}
	return nil
}
