package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if FILA_CONFIG is set
//  3. env (prefix FILA_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("FILA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: FILA_ADDR, FILA_SYNC_INTERVAL_MS, ...
	// Map env keys like FILA_SYNC_INTERVAL_MS -> sync_interval_ms (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("FILA_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "fila_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.SyncIntervalMS <= 0 {
		return nil, fmt.Errorf("%w: sync_interval_ms must be positive", ErrInvalidConfig)
	}
	if cfg.RefreshIntervalMS <= 0 {
		return nil, fmt.Errorf("%w: refresh_interval_ms must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
