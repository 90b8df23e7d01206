package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strconv"
)

// Constants for random roster generation.
const (
	randomFloatDivisor = 1000000
	nameSuffixDivisor  = 100000
)

// Category ids known to the service.
var knownCategories = []int{62, 66, 30, 16, 31, 84} //nolint:gochecknoglobals // static seed table

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomCategories picks a non-empty subset of the known categories.
func randomCategories() []int {
	picked := make([]int, 0, len(knownCategories))
	for _, c := range knownCategories {
		if getRandomFloat() < 0.5 {
			picked = append(picked, c)
		}
	}
	if len(picked) == 0 {
		// Everyone handles at least one category.
		idx, _ := rand.Int(rand.Reader, big.NewInt(int64(len(knownCategories))))
		picked = append(picked, knownCategories[idx.Int64()])
	}
	return picked
}

// seedAnalysts registers the requested number of analysts and brings
// them online so the dealer can see them.
func seedAnalysts(ctx context.Context, config *Config, stats *Stats) ([]Analyst, error) {
	log.Printf("👥 Seeding %d analysts...", config.NumAnalysts)

	client := newHTTPClient(config.Timeout)
	createURL := config.BaseURL + "/api/manager/analysts"
	statusURL := config.BaseURL + "/api/analyst/queue-status"

	seeded := make([]Analyst, 0, config.NumAnalysts)
	for i := 0; i < config.NumAnalysts; i++ {
		suffix, _ := rand.Int(rand.Reader, big.NewInt(nameSuffixDivisor))
		body := map[string]interface{}{
			"name":       "Analista Teste " + strconv.Itoa(i+1) + "-" + suffix.String(),
			"password":   "loadtest-" + suffix.String(),
			"categories": randomCategories(),
		}

		var created Analyst
		status, err := client.Post(ctx, createURL, body, &created)
		if err != nil {
			return seeded, fmt.Errorf("failed to create analyst %d: %w", i+1, err)
		}
		if status != statusCreated {
			return seeded, fmt.Errorf("analyst creation returned status %d", status)
		}

		online := map[string]interface{}{"id": created.ID, "online": true}
		if status, err = client.Post(ctx, statusURL, online, nil); err != nil || status != statusOK {
			return seeded, fmt.Errorf("failed to bring analyst %d online (status %d): %w", created.ID, status, err)
		}

		seeded = append(seeded, created)
		if config.Verbose {
			log.Printf("   created analyst %d (%s)", created.ID, created.Name)
		}
	}

	stats.AnalystsSeeded = len(seeded)
	log.Printf("✅ Seeded %d analysts", len(seeded))
	return seeded, nil
}

// cleanupAnalysts removes the seeded roster again.
func cleanupAnalysts(ctx context.Context, config *Config, seeded []Analyst) {
	log.Printf("🧹 Removing %d seeded analysts...", len(seeded))

	client := newHTTPClient(config.Timeout)
	for _, a := range seeded {
		url := config.BaseURL + "/api/manager/analysts/" + strconv.FormatInt(a.ID, 10)
		status, err := client.Delete(ctx, url)
		if err != nil || status != statusNoContent {
			log.Printf("⚠️  failed to delete analyst %d (status %d): %v", a.ID, status, err)
		}
	}
}
