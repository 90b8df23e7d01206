// Package aggregate derives live counters from an assignment snapshot.
//
// Aggregate is a pure function: re-deriving the counters from the same
// snapshot is deterministic, order-independent, and accumulates nothing
// across calls.
package aggregate

import (
	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

// Tally holds the per-worker counters shown on the manager board.
type Tally struct {
	OnDesk         int `json:"on_desk"`
	CompletedToday int `json:"completed_today"`
}

// Result contains the derived counters for one snapshot.
type Result struct {
	// Breakdown maps every known category to its open-case count.
	// Categories with no open cases are present with value 0.
	Breakdown map[category.ID]int `json:"breakdown"`

	// PerWorker maps every known worker to its counters, defaulting to
	// zero. Records referencing unknown workers contribute nothing.
	PerWorker map[int64]Tally `json:"per_worker"`
}

// Aggregate computes the category breakdown and per-worker counters from
// the open assignments and the cases closed in the current period. The
// cats and workerIDs sets pre-seed zero-valued entries so inactive
// categories and idle workers still appear, and bound which records count:
// anything referencing an id outside them is silently ignored (stale
// records surviving a worker deletion must not resurrect entries).
func Aggregate(open []model.Assignment, closedToday []model.HistoryEntry, cats []category.ID, workerIDs []int64) Result {
	res := Result{
		Breakdown: make(map[category.ID]int, len(cats)),
		PerWorker: make(map[int64]Tally, len(workerIDs)),
	}
	for _, c := range cats {
		res.Breakdown[c] = 0
	}
	for _, id := range workerIDs {
		res.PerWorker[id] = Tally{}
	}

	for _, a := range open {
		if _, ok := res.Breakdown[a.CategoryID]; ok {
			res.Breakdown[a.CategoryID]++
		}
		if t, ok := res.PerWorker[a.WorkerID]; ok {
			t.OnDesk++
			res.PerWorker[a.WorkerID] = t
		}
	}
	for _, h := range closedToday {
		if t, ok := res.PerWorker[h.WorkerID]; ok {
			t.CompletedToday++
			res.PerWorker[h.WorkerID] = t
		}
	}
	return res
}

// FromSnapshot aggregates a whole snapshot against the configured
// category set.
func FromSnapshot(s *model.Snapshot) Result {
	return Aggregate(s.Open, s.ClosedToday, category.IDs(), s.WorkerIDs())
}
