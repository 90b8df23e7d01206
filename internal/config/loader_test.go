package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/okian/fila/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.SyncIntervalMS, convey.ShouldEqual, 25_000)
				convey.So(cfg.RefreshIntervalMS, convey.ShouldEqual, 15_000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
				convey.So(cfg.DBBusyTimeoutMS, convey.ShouldEqual, 5_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			// Set environment variables
			_ = os.Setenv("FILA_ADDR", ":8080")
			_ = os.Setenv("FILA_CRM_BASE_URL", "https://crm.example.com")
			_ = os.Setenv("FILA_CRM_EMAIL", "bot@example.com")
			_ = os.Setenv("FILA_CRM_TOKEN", "s3cret")
			_ = os.Setenv("FILA_SYNC_INTERVAL_MS", "10000")
			_ = os.Setenv("FILA_REFRESH_INTERVAL_MS", "5000")
			_ = os.Setenv("FILA_DEDUPE_SIZE", "1000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CRMBaseURL, convey.ShouldEqual, "https://crm.example.com")
				convey.So(cfg.CRMEmail, convey.ShouldEqual, "bot@example.com")
				convey.So(cfg.CRMToken, convey.ShouldEqual, "s3cret")
				convey.So(cfg.SyncIntervalMS, convey.ShouldEqual, 10000)
				convey.So(cfg.RefreshIntervalMS, convey.ShouldEqual, 5000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			// Create a temporary YAML config file
			yamlContent := `
addr: ":9090"
data_dir: "/var/lib/fila"
crm_base_url: "https://crm.example.com"
sync_interval_ms: 30000
refresh_interval_ms: 20000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			// Set the config file path
			_ = os.Setenv("FILA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/var/lib/fila")
				convey.So(cfg.CRMBaseURL, convey.ShouldEqual, "https://crm.example.com")
				convey.So(cfg.SyncIntervalMS, convey.ShouldEqual, 30000)
				convey.So(cfg.RefreshIntervalMS, convey.ShouldEqual, 20000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
sync_interval_ms: 30000
dedupe_size: 2000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			// Set both file and environment variables
			_ = os.Setenv("FILA_CONFIG", tmpFile)
			_ = os.Setenv("FILA_ADDR", ":8080")             // This should override the file
			_ = os.Setenv("FILA_SYNC_INTERVAL_MS", "12000") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")         // Overridden by env
				convey.So(cfg.SyncIntervalMS, convey.ShouldEqual, 12000) // Overridden by env
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 2000)      // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FILA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("FILA_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("FILA_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive sync interval", func() {
			_ = os.Setenv("FILA_SYNC_INTERVAL_MS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sync_interval_ms must be positive")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive refresh interval", func() {
			_ = os.Setenv("FILA_REFRESH_INTERVAL_MS", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "refresh_interval_ms must be positive")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with partial YAML file", func() {
			yamlContent := `
addr: ":9090"
crm_timeout_ms: 3000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FILA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")             // From file
				convey.So(cfg.CRMTimeoutMS, convey.ShouldEqual, 3000)        // From file
				convey.So(cfg.SyncIntervalMS, convey.ShouldEqual, 25_000)    // From defaults
				convey.So(cfg.RefreshIntervalMS, convey.ShouldEqual, 15_000) // From defaults
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)        // From defaults
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("FILA_SYNC_INTERVAL_MS", "invalid")
			_ = os.Setenv("FILA_DEDUPE_SIZE", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"FILA_CONFIG",
		"FILA_LOG_LEVEL",
		"FILA_ADDR",
		"FILA_DATA_DIR",
		"FILA_CRM_BASE_URL",
		"FILA_CRM_EMAIL",
		"FILA_CRM_TOKEN",
		"FILA_CRM_TIMEOUT_MS",
		"FILA_SYNC_INTERVAL_MS",
		"FILA_REFRESH_INTERVAL_MS",
		"FILA_DEDUPE_SIZE",
		"FILA_DB_BUSY_TIMEOUT_MS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "fila-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
