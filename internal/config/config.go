package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all daemon configuration.
type Config struct {
	Listen    ListenConfig    `toml:"listen"`
	Admin     AdminConfig     `toml:"admin"`
	Terminal  TerminalConfig  `toml:"terminal"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ListenConfig holds telnet listener configuration.
type ListenConfig struct {
	Host string `toml:"host" envconfig:"LISTEN_HOST"`
	Port string `toml:"port" envconfig:"LISTEN_PORT"`
}

// AdminConfig holds the admin/metrics HTTP server configuration.
type AdminConfig struct {
	Enabled bool   `toml:"enabled" envconfig:"ADMIN_ENABLED"`
	Host    string `toml:"host" envconfig:"ADMIN_HOST"`
	Port    string `toml:"port" envconfig:"ADMIN_PORT"`
}

// TerminalConfig holds per-session terminal settings.
type TerminalConfig struct {
	// Shell is the child task launched for each session.
	Shell string `toml:"shell" envconfig:"SHELL"`
	Rows  int    `toml:"rows" envconfig:"ROWS"`
	Cols  int    `toml:"cols" envconfig:"COLS"`
	// Namespace prefixes registered service names:
	// "<namespace>/telnet<pid>.<session-id>".
	Namespace string `toml:"namespace" envconfig:"NAMESPACE"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `toml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `toml:"development" envconfig:"LOG_DEV"`
}

// RateLimitConfig throttles the telnet accept loop.
type RateLimitConfig struct {
	AcceptsPerSecond int  `toml:"accepts_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst            int  `toml:"burst" envconfig:"RATE_LIMIT_BURST"`
	Enabled          bool `toml:"enabled" envconfig:"RATE_LIMIT_ENABLED"`
}

// envPrefix namespaces all environment variables.
const envPrefix = "REMCONS"

// Load builds the configuration: defaults, then the TOML file at path
// (skipped when path is empty), then REMCONS_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or falls back to defaults.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Host: "0.0.0.0",
			Port: "2323",
		},
		Admin: AdminConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    "8023",
		},
		Terminal: TerminalConfig{
			Shell:     "/bin/sh",
			Rows:      24,
			Cols:      80,
			Namespace: "term",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			AcceptsPerSecond: 20,
			Burst:            40,
			Enabled:          true,
		},
	}
}
