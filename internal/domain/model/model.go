// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/fila/internal/domain/category"
)

// Worker represents an analyst pulling cases from the shared queues.
// The repository owns the authoritative copy; everything else sees
// read-only snapshots refreshed each polling cycle.
type Worker struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Online    bool          `json:"online"`
	Active    bool          `json:"active"`
	Permitted []category.ID `json:"permitted"` // categories the worker may handle

	// CompletedToday and LastAssignedAt drive the fair-queue ordering.
	CompletedToday int        `json:"completed_today"`
	LastAssignedAt *time.Time `json:"last_assigned_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Permits reports whether the worker may handle the given category.
func (w Worker) Permits(id category.ID) bool {
	for _, p := range w.Permitted {
		if p == id {
			return true
		}
	}
	return false
}

// Assignment is an open case sitting on a worker's desk. Category and
// owner never change after the record is read; lifecycle belongs to the
// dispatcher.
type Assignment struct {
	CaseID        string      `json:"case_id"`
	WorkerID      int64       `json:"worker_id"`
	CategoryID    category.ID `json:"category_id"`
	CategoryLabel string      `json:"category_label"`
	Client        string      `json:"client"`
	Project       string      `json:"project"`
	Unit          string      `json:"unit"`
	AssignedAt    time.Time   `json:"assigned_at"`
}

// HistoryEntry records a completed case. Only entries closed in the
// current reporting period feed the per-worker daily counters.
type HistoryEntry struct {
	CaseID     string    `json:"case_id"`
	WorkerID   int64     `json:"worker_id"`
	WorkerName string    `json:"worker_name"`
	Client     string    `json:"client"`
	Outcome    string    `json:"outcome"`
	ClosedAt   time.Time `json:"closed_at"`
}

// Snapshot is an immutable, point-in-time view of the whole system:
// the sole input to aggregation and ranking. Each refresh cycle builds
// a brand-new snapshot that fully replaces the previous one; consumers
// must never mutate it.
type Snapshot struct {
	TakenAt         time.Time      `json:"taken_at"`
	Generation      uint64         `json:"generation"`
	Workers         []Worker       `json:"workers"`
	Open            []Assignment   `json:"open"`
	ClosedToday     []HistoryEntry `json:"closed_today"`
	ExternalPending int            `json:"external_pending"`
}

// WorkerIDs returns the ids of all workers in the snapshot.
func (s *Snapshot) WorkerIDs() []int64 {
	ids := make([]int64, len(s.Workers))
	for i, w := range s.Workers {
		ids[i] = w.ID
	}
	return ids
}
