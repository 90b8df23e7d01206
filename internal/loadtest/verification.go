package loadtest

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
)

// verifyOverview checks the internal consistency of the manager overview.
func verifyOverview(ov *Overview, stats *Stats) {
	log.Println("🔍 Verifying overview consistency...")

	check(stats, "breakdown sums to open count", func() error {
		total := 0
		for _, n := range ov.Breakdown {
			total += n
		}
		if total != len(ov.Open) {
			return fmt.Errorf("breakdown sums to %d but %d folders are open", total, len(ov.Open))
		}
		return nil
	})

	check(stats, "per-analyst desks sum to open count", func() error {
		total := 0
		for _, t := range ov.PerAnalyst {
			total += t.OnDesk
		}
		if total != len(ov.Open) {
			return fmt.Errorf("per-analyst desks sum to %d but %d folders are open", total, len(ov.Open))
		}
		return nil
	})

	check(stats, "every analyst has a counter entry", func() error {
		for _, a := range ov.Team {
			if _, ok := ov.PerAnalyst[strconv.FormatInt(a.ID, 10)]; !ok {
				return fmt.Errorf("analyst %d missing from per-analyst counters", a.ID)
			}
		}
		return nil
	})

	check(stats, "open folders belong to known analysts", func() error {
		ids := make(map[int64]bool, len(ov.Team))
		for _, a := range ov.Team {
			ids[a.ID] = true
		}
		for _, o := range ov.Open {
			if !ids[o.AnalystID] {
				return fmt.Errorf("folder %s assigned to unknown analyst %d", o.CaseID, o.AnalystID)
			}
		}
		return nil
	})
}

// verifyQueuePositions fetches each seeded analyst's queue position and
// checks that per-category positions are distinct and start at 1.
func verifyQueuePositions(ctx context.Context, config *Config, seeded []Analyst, stats *Stats) {
	log.Println("🔍 Verifying queue positions...")

	client := newHTTPClient(config.Timeout)

	// category -> observed positions
	observed := make(map[string][]int)
	for _, a := range seeded {
		var qs QueueStatus
		url := config.BaseURL + "/api/queue/" + strconv.FormatInt(a.ID, 10)
		if err := client.Get(ctx, url, &qs); err != nil {
			log.Printf("⚠️  failed to fetch queue position for analyst %d: %v", a.ID, err)
			stats.ChecksFailed++
			continue
		}
		for cat, pos := range qs.Positions {
			observed[cat] = append(observed[cat], pos)
		}
	}

	check(stats, "positions are 1-based and distinct per category", func() error {
		for cat, positions := range observed {
			sort.Ints(positions)
			for i, pos := range positions {
				if pos < 1 {
					return fmt.Errorf("category %s has position %d below 1", cat, pos)
				}
				if i > 0 && positions[i] == positions[i-1] {
					return fmt.Errorf("category %s has duplicate position %d", cat, pos)
				}
			}
		}
		return nil
	})
}

// check runs one verification and records the outcome.
func check(stats *Stats, name string, fn func() error) {
	if err := fn(); err != nil {
		stats.ChecksFailed++
		log.Printf("❌ %s: %v", name, err)
		return
	}
	stats.ChecksPassed++
	log.Printf("✅ %s", name)
}
