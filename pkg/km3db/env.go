package km3db

import (
	"fmt"
	"os"
	"time"

	"github.com/km3net/km3db-go/internal/config"
)

const envConfigPath = "KM3NET_DB_CONFIG"

// NewFromEnv initialises a Client from the per-user configuration file
// (path overridable via KM3NET_DB_CONFIG) and KM3NET_DB_* environment
// variables. Explicit options are applied on top.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := config.Load(os.Getenv(envConfigPath))
	if err != nil {
		return nil, fmt.Errorf("km3db: load config: %w", err)
	}

	base, err := configOptions(cfg)
	if err != nil {
		return nil, err
	}
	return New(append(base, opts...)...)
}

func configOptions(cfg *config.Config) ([]Option, error) {
	var opts []Option
	if cfg.URL != "" {
		opts = append(opts, WithURL(cfg.URL))
	}
	if cfg.CookieFile != "" {
		opts = append(opts, WithCookiePath(cfg.CookieFile))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	if len(cfg.Precedence) > 0 {
		sources := make([]Source, 0, len(cfg.Precedence))
		for _, name := range cfg.Precedence {
			src, err := ParseSource(name)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		}
		opts = append(opts, WithPrecedence(sources...))
	}
	return opts, nil
}
