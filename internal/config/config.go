// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the SQLite database and the instance lock file.
	DataDir string `koanf:"data_dir"`

	// CRMBaseURL is the upstream case-management system base URL.
	CRMBaseURL string `koanf:"crm_base_url"`

	// CRMEmail and CRMToken authenticate against the upstream API.
	CRMEmail string `koanf:"crm_email"`
	CRMToken string `koanf:"crm_token"`

	// CRMTimeoutMS bounds each upstream request.
	CRMTimeoutMS int `koanf:"crm_timeout_ms"`

	// SyncIntervalMS is the distribution polling interval.
	SyncIntervalMS int `koanf:"sync_interval_ms"`

	// RefreshIntervalMS is the read-side snapshot rebuild interval.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`

	// DedupeSize sets the size of the duplicate-submission cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DBBusyTimeoutMS is the SQLite busy handler timeout.
	DBBusyTimeoutMS int `koanf:"db_busy_timeout_ms"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use and
// is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		DataDir:           "data",
		CRMBaseURL:        "",
		CRMEmail:          "",
		CRMToken:          "",
		CRMTimeoutMS:      10_000,
		SyncIntervalMS:    25_000,
		RefreshIntervalMS: 15_000,
		DedupeSize:        50_000,
		DBBusyTimeoutMS:   5_000,
	}
	return c
}
