package loadtest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/okian/fila/pkg/logger"
)

// Runner configuration constants.
const (
	settleDelay          = 5 * time.Second
	percentageMultiplier = 100
)

// Run executes the complete distribution exercise.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting fila distribution exercise",
		logger.String("baseURL", config.BaseURL),
		logger.Int("analysts", config.NumAnalysts),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Seed the roster
	seeded, err := seedAnalysts(ctx, config, stats)
	if err != nil {
		cleanupAnalysts(ctx, config, seeded)
		return fmt.Errorf("roster seeding failed: %w", err)
	}

	// Step 3: Let the dealer and the snapshot catch up
	log.Printf("⏳ Waiting %s for the dealer to fill the desks...", settleDelay)
	time.Sleep(settleDelay)

	// Step 4: Fetch the overview
	ov, err := fetchOverview(ctx, config)
	if err != nil {
		cleanupAnalysts(ctx, config, seeded)
		return fmt.Errorf("overview retrieval failed: %w", err)
	}
	stats.FoldersObserved = len(ov.Open)

	// Step 5: Verify consistency
	verifyOverview(ov, stats)
	verifyQueuePositions(ctx, config, seeded, stats)

	// Step 6: Drain the desks
	if len(ov.Open) > 0 {
		if err := drainDesks(ctx, config, ov.Open, stats); err != nil {
			cleanupAnalysts(ctx, config, seeded)
			return fmt.Errorf("desk draining failed: %w", err)
		}
	} else {
		log.Println("ℹ️  No open folders to complete; is the upstream connected?")
	}

	// Step 7: Clean up the seeded roster
	if !config.KeepSeeded {
		cleanupAnalysts(ctx, config, seeded)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.ChecksFailed > 0 {
		return fmt.Errorf("%d consistency checks failed", stats.ChecksFailed)
	}

	logger.Get().Info(ctx, "exercise completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	log.Println("🏥 Checking service health...")

	client := newHTTPClient(config.Timeout)
	if err := client.Get(ctx, config.BaseURL+"/healthz", nil); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}

	log.Println("✅ Service is healthy")
	return nil
}

// fetchOverview retrieves the manager overview.
func fetchOverview(ctx context.Context, config *Config) (*Overview, error) {
	client := newHTTPClient(config.Timeout)

	var ov Overview
	if err := client.Get(ctx, config.BaseURL+"/api/manager/overview", &ov); err != nil {
		return nil, err
	}

	log.Printf("📋 Overview: %d analysts, %d open folders, %d pending upstream, snapshot %s",
		len(ov.Team), len(ov.Open), ov.ExternalPending, ov.SnapshotState)
	return &ov, nil
}

// displayFinalStats prints the summary of the exercise.
func displayFinalStats(stats *Stats) {
	log.Println("📊 Final statistics:")
	log.Printf("   Analysts seeded:     %d", stats.AnalystsSeeded)
	log.Printf("   Folders observed:    %d", stats.FoldersObserved)
	log.Printf("   Completions:         %d submitted, %d ok, %d duplicate, %d failed",
		stats.CompletionsSubmitted, stats.CompletionsOK, stats.CompletionsDuplicate, stats.CompletionsFailed)
	log.Printf("   Consistency checks:  %d passed, %d failed", stats.ChecksPassed, stats.ChecksFailed)
	if stats.CompletionsSubmitted > 0 {
		successRate := float64(stats.CompletionsOK) / float64(stats.CompletionsSubmitted) * percentageMultiplier
		log.Printf("   Completion success:  %.1f%%", successRate)
	}
	log.Printf("   Duration:            %s", stats.Duration)
}
