package loadtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/fila/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadtest_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Fila Distribution Test Tool
===========================

Exercises a running fila instance: seeds analysts, waits for the dealer
to fill their desks, verifies queue fairness, and drains the desks
through the completion endpoint.

Usage:
  go run cmd/load-test/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -analysts int
        Number of analysts to seed (default 10)
  -workers int
        Number of concurrent completion workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for test output (default: loadtest_log_TIMESTAMP.log)
  -keep
        Leave seeded analysts in place after the run
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Exercise a local instance with defaults
  go run cmd/load-test/main.go

  # Seed a bigger team against a remote instance
  go run cmd/load-test/main.go -analysts 40 -url http://fila.internal:9080

  # Keep the seeded roster for manual inspection
  go run cmd/load-test/main.go -keep -verbose
`)
}
