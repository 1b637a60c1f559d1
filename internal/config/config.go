// Package config loads the client configuration from the per-user YAML
// file, applying defaults first and environment overrides last.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigRelPath = ".km3netdb/config.yaml"

const (
	envURL        = "KM3NET_DB_URL"
	envCookieFile = "KM3NET_DB_COOKIE_FILE"
)

// LogConfig controls log output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the on-disk client configuration.
type Config struct {
	URL            string    `yaml:"url"`
	CookieFile     string    `yaml:"cookie_file"`
	Precedence     []string  `yaml:"precedence"`
	TimeoutSeconds int       `yaml:"timeout_seconds"`
	Log            LogConfig `yaml:"log"`
}

// Load reads the YAML config at configPath (default
// ~/.km3netdb/config.yaml), then applies env overrides. A missing file is
// not an error; a malformed one is.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, defaultConfigRelPath)
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// SetDefaults fills zero-valued fields.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
}

func applyEnvOverrides(c *Config) {
	if v := strings.TrimSpace(os.Getenv(envURL)); v != "" {
		c.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(envCookieFile)); v != "" {
		c.CookieFile = v
	}
}

// LogLevel maps the configured level name onto a slog level. Unknown
// names fall back to warn.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
