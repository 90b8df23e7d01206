// Package rank implements the fair-queue ordering of analysts.
//
// For a given category, the eligible roster is the subset of workers that
// are online, active, and permitted for that category. The queue order is
// least-loaded-first (fewest cases completed today), then
// longest-waiting-first (oldest last assignment, never-assigned counts as
// oldest), with the worker id as the final tie-break so the order is
// reproducible for identical inputs.
//
// Every function here is pure: it reads the roster it is given and holds
// no state between calls. Calling any of them twice with the same roster
// snapshot yields identical results.
package rank

import (
	"sort"

	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

// Eligible returns the workers that can receive cases of the given
// category right now: online, active, and permitted. The result is a new
// slice; the input roster is never modified.
func Eligible(cat category.ID, roster []model.Worker) []model.Worker {
	var out []model.Worker
	for _, w := range roster {
		if w.Online && w.Active && w.Permits(cat) {
			out = append(out, w)
		}
	}
	return out
}

// Less reports whether a should be served before b in the fair queue.
// The composite key is (CompletedToday asc, LastAssignedAt asc with nil
// as earliest, ID asc).
func Less(a, b model.Worker) bool {
	if a.CompletedToday != b.CompletedToday {
		return a.CompletedToday < b.CompletedToday
	}
	switch {
	case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
		return true
	case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
		return false
	case a.LastAssignedAt != nil && b.LastAssignedAt != nil:
		if !a.LastAssignedAt.Equal(*b.LastAssignedAt) {
			return a.LastAssignedAt.Before(*b.LastAssignedAt)
		}
	}
	return a.ID < b.ID
}

// Order returns a copy of workers sorted into queue order.
func Order(workers []model.Worker) []model.Worker {
	out := make([]model.Worker, len(workers))
	copy(out, workers)
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// For returns the full queue for a category: the eligible roster in
// serving order.
func For(cat category.ID, roster []model.Worker) []model.Worker {
	return Order(Eligible(cat, roster))
}

// RankFor returns the 1-based position of the worker in the category's
// queue. The second return is false when the worker has no rank: offline,
// inactive, not permitted for the category, or absent from the roster.
func RankFor(workerID int64, cat category.ID, roster []model.Worker) (int, bool) {
	for i, w := range For(cat, roster) {
		if w.ID == workerID {
			return i + 1, true
		}
	}
	return 0, false
}

// Next returns the worker at the head of the category's queue, i.e. the
// one that should receive the next case. The second return is false when
// no worker is eligible.
func Next(cat category.ID, roster []model.Worker) (model.Worker, bool) {
	queue := For(cat, roster)
	if len(queue) == 0 {
		return model.Worker{}, false
	}
	return queue[0], true
}

// Positions computes the worker's rank in every known category at once.
// Categories where the worker has no rank are absent from the map, not
// zero.
func Positions(workerID int64, roster []model.Worker) map[category.ID]int {
	positions := make(map[category.ID]int)
	for _, cat := range category.IDs() {
		if pos, ok := RankFor(workerID, cat, roster); ok {
			positions[cat] = pos
		}
	}
	return positions
}
