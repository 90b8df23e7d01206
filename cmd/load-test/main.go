package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/fila/internal/loadtest"
)

// Default configuration constants.
const (
	defaultNumAnalysts = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numAnalysts = flag.Int("analysts", defaultNumAnalysts, "Number of analysts to seed")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent completion workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile     = flag.String("log", "", "Log file for test output (default: loadtest_log_TIMESTAMP.log)")
		keep        = flag.Bool("keep", false, "Leave seeded analysts in place after the run")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	// Setup logging
	if err := loadtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &loadtest.Config{
		BaseURL:     *baseURL,
		NumAnalysts: *numAnalysts,
		Workers:     *workers,
		Timeout:     *timeout,
		LogFile:     *logFile,
		Verbose:     *verbose,
		KeepSeeded:  *keep,
	}

	// Run the exercise
	if err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Exercise failed: " + err.Error() + "\n")
		return
	}
}
