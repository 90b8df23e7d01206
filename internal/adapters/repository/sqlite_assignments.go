package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

const assignmentColumns = `case_id, worker_id, category_id, category_label, client, project, unit, assigned_at`

// OpenAssignments returns one worker's desk.
func (s *SQLiteStore) OpenAssignments(ctx context.Context, workerID int64) ([]model.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE worker_id = ? ORDER BY assigned_at`, workerID)
}

// AllOpenAssignments returns every open assignment.
func (s *SQLiteStore) AllOpenAssignments(ctx context.Context) ([]model.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments ORDER BY assigned_at`)
}

// HasAssignment reports whether a case is already on someone's desk.
func (s *SQLiteStore) HasAssignment(ctx context.Context, caseID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM assignments WHERE case_id = ?`, caseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has assignment: %w", err)
	}
	return true, nil
}

// InsertAssignment puts a case on a worker's desk.
func (s *SQLiteStore) InsertAssignment(ctx context.Context, a model.Assignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (`+assignmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CaseID, a.WorkerID, int(a.CategoryID), a.CategoryLabel, a.Client, a.Project, a.Unit, formatTime(a.AssignedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrCaseExists
		}
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// PruneAssignments removes open assignments whose case id is not in keep.
func (s *SQLiteStore) PruneAssignments(ctx context.Context, keep []string) (int, error) {
	if len(keep) == 0 {
		res, err := s.db.ExecContext(ctx, `DELETE FROM assignments`)
		if err != nil {
			return 0, fmt.Errorf("prune assignments: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keep)), ", ")
	args := make([]any, len(keep))
	for i, id := range keep {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM assignments WHERE case_id NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("prune assignments: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteAllAssignments clears every desk.
func (s *SQLiteStore) DeleteAllAssignments(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM assignments`); err != nil {
		return fmt.Errorf("delete all assignments: %w", err)
	}
	return nil
}

// CompleteAssignment moves an open case into the history.
func (s *SQLiteStore) CompleteAssignment(ctx context.Context, caseID, outcome string) (model.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE case_id = ?`, caseID)
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HistoryEntry{}, ErrNotFound
	}
	if err != nil {
		return model.HistoryEntry{}, err
	}

	var workerName string
	nameErr := s.db.QueryRowContext(ctx, `SELECT name FROM workers WHERE id = ?`, a.WorkerID).Scan(&workerName)
	if nameErr != nil && !errors.Is(nameErr, sql.ErrNoRows) {
		return model.HistoryEntry{}, fmt.Errorf("complete assignment: %w", nameErr)
	}

	entry := model.HistoryEntry{
		CaseID:     a.CaseID,
		WorkerID:   a.WorkerID,
		WorkerName: workerName,
		Client:     a.Client,
		Outcome:    outcome,
		ClosedAt:   time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("complete assignment: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (case_id, worker_id, worker_name, client, outcome, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.CaseID, entry.WorkerID, entry.WorkerName, entry.Client, entry.Outcome, formatTime(entry.ClosedAt),
	); err != nil {
		return model.HistoryEntry{}, fmt.Errorf("insert history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE case_id = ?`, caseID); err != nil {
		return model.HistoryEntry{}, fmt.Errorf("remove assignment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.HistoryEntry{}, fmt.Errorf("complete assignment: %w", err)
	}
	return entry, nil
}

// DeleteHistoryFor drops history entries for a case.
func (s *SQLiteStore) DeleteHistoryFor(ctx context.Context, caseID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE case_id = ?`, caseID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// ClosedSince returns history entries closed at or after since.
func (s *SQLiteStore) ClosedSince(ctx context.Context, since time.Time) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT case_id, worker_id, worker_name, client, outcome, closed_at
		 FROM history WHERE closed_at >= ? ORDER BY closed_at DESC`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("closed since: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var (
			e        model.HistoryEntry
			closedAt string
		)
		if err := rows.Scan(&e.CaseID, &e.WorkerID, &e.WorkerName, &e.Client, &e.Outcome, &closedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if e.ClosedAt, err = parseTime(closedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("closed since: %w", err)
	}
	return entries, nil
}

// CompletedCountSince counts one worker's completions at or after since.
func (s *SQLiteStore) CompletedCountSince(ctx context.Context, workerID int64, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE worker_id = ? AND closed_at >= ?`,
		workerID, formatTime(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("completed count: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) queryAssignments(ctx context.Context, query string, args ...any) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		a, scanErr := scanAssignment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	return out, nil
}

func scanAssignment(r rowScanner) (model.Assignment, error) {
	var (
		a          model.Assignment
		categoryID int
		assignedAt string
	)
	err := r.Scan(&a.CaseID, &a.WorkerID, &categoryID, &a.CategoryLabel, &a.Client, &a.Project, &a.Unit, &assignedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Assignment{}, err
		}
		return model.Assignment{}, fmt.Errorf("scan assignment: %w", err)
	}
	a.CategoryID = category.ID(categoryID)
	if a.AssignedAt, err = parseTime(assignedAt); err != nil {
		return model.Assignment{}, err
	}
	return a, nil
}
