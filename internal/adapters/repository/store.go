// Package repository defines the roster and assignment store interface.
package repository

import (
	"context"
	"time"

	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

// Profile carries the fields needed to create a worker.
type Profile struct {
	Name      string
	Secret    string
	Permitted []category.ID
}

// Patch carries a partial worker update. Nil fields are left untouched.
type Patch struct {
	Name      *string
	Secret    *string
	Permitted *[]category.ID
	Active    *bool
}

// Store provides read/write access to the roster, the open assignments,
// and the completion history.
type Store interface {
	// ListWorkers returns the full roster ordered by display name.
	ListWorkers(ctx context.Context) ([]model.Worker, error)

	// GetWorker returns a single worker. Returns ErrNotFound if unknown.
	GetWorker(ctx context.Context, id int64) (model.Worker, error)

	// Authenticate checks the worker's secret. Returns ErrUnauthorized on
	// mismatch and ErrNotFound for unknown ids; no state changes either way.
	Authenticate(ctx context.Context, id int64, secret string) (model.Worker, error)

	// CreateWorker adds a worker to the roster, offline by default.
	CreateWorker(ctx context.Context, p Profile) (model.Worker, error)

	// UpdateWorker applies a partial update. Returns ErrNotFound if unknown.
	UpdateWorker(ctx context.Context, id int64, p Patch) (model.Worker, error)

	// DeleteWorker removes a worker. Open assignments and history entries
	// referencing it become stale records that aggregation must tolerate.
	DeleteWorker(ctx context.Context, id int64) error

	// SetOnline flips the worker's queue participation flag.
	SetOnline(ctx context.Context, id int64, online bool) error

	// MarkAssigned bumps the worker's daily total and last-assignment
	// timestamp after a case lands on its desk.
	MarkAssigned(ctx context.Context, id int64, at time.Time) error

	// ResetDailyTotals zeroes every worker's daily counter. Run at the
	// civil-day rollover.
	ResetDailyTotals(ctx context.Context) error

	// OpenAssignments returns one worker's desk.
	OpenAssignments(ctx context.Context, workerID int64) ([]model.Assignment, error)

	// AllOpenAssignments returns every open assignment.
	AllOpenAssignments(ctx context.Context) ([]model.Assignment, error)

	// HasAssignment reports whether a case is already on someone's desk.
	HasAssignment(ctx context.Context, caseID string) (bool, error)

	// InsertAssignment puts a case on a worker's desk. Returns ErrCaseExists
	// if the case is already assigned.
	InsertAssignment(ctx context.Context, a model.Assignment) error

	// PruneAssignments removes open assignments whose case id is not in
	// keep, returning how many were removed. Used when a case vanishes
	// upstream without being completed locally.
	PruneAssignments(ctx context.Context, keep []string) (int, error)

	// DeleteAllAssignments clears every desk (redistribution).
	DeleteAllAssignments(ctx context.Context) error

	// CompleteAssignment moves an open case into the history with the
	// given outcome. Returns ErrNotFound if the case is not open.
	CompleteAssignment(ctx context.Context, caseID, outcome string) (model.HistoryEntry, error)

	// DeleteHistoryFor drops history entries for a case, so a reassigned
	// case starts with a clean record.
	DeleteHistoryFor(ctx context.Context, caseID string) error

	// ClosedSince returns history entries closed at or after since.
	ClosedSince(ctx context.Context, since time.Time) ([]model.HistoryEntry, error)

	// CompletedCountSince counts one worker's completions at or after since.
	CompletedCountSince(ctx context.Context, workerID int64, since time.Time) (int, error)

	// Close releases the underlying database.
	Close() error
}
