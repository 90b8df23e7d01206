package repository

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

const workerColumns = `id, name, online, active, permitted, completed_today, last_assigned_at, created_at`

// ListWorkers returns the full roster ordered by display name.
func (s *SQLiteStore) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+workerColumns+` FROM workers`)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var workers []model.Worker
	for rows.Next() {
		w, scanErr := scanWorker(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}

	sort.SliceStable(workers, func(i, j int) bool {
		return s.collator.CompareString(workers[i].Name, workers[j].Name) < 0
	})
	return workers, nil
}

// GetWorker returns a single worker by id.
func (s *SQLiteStore) GetWorker(ctx context.Context, id int64) (model.Worker, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = ?`, id)
	w, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Worker{}, ErrNotFound
	}
	return w, err
}

// Authenticate checks the worker's secret without changing any state.
func (s *SQLiteStore) Authenticate(ctx context.Context, id int64, secret string) (model.Worker, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT secret FROM workers WHERE id = ?`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Worker{}, ErrNotFound
	}
	if err != nil {
		return model.Worker{}, fmt.Errorf("authenticate: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(secret)) != 1 {
		return model.Worker{}, ErrUnauthorized
	}
	return s.GetWorker(ctx, id)
}

// CreateWorker adds a worker to the roster, offline by default.
func (s *SQLiteStore) CreateWorker(ctx context.Context, p Profile) (model.Worker, error) {
	permitted, err := marshalPermitted(p.Permitted)
	if err != nil {
		return model.Worker{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO workers (name, secret, online, active, permitted, completed_today, created_at)
		 VALUES (?, ?, 0, 1, ?, 0, ?)`,
		p.Name, p.Secret, permitted, formatTime(time.Now()),
	)
	if err != nil {
		return model.Worker{}, fmt.Errorf("insert worker: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Worker{}, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetWorker(ctx, id)
}

// UpdateWorker applies a partial update to a worker.
func (s *SQLiteStore) UpdateWorker(ctx context.Context, id int64, p Patch) (model.Worker, error) {
	var sets []string
	var args []any
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Secret != nil {
		sets = append(sets, "secret = ?")
		args = append(args, *p.Secret)
	}
	if p.Permitted != nil {
		permitted, err := marshalPermitted(*p.Permitted)
		if err != nil {
			return model.Worker{}, err
		}
		sets = append(sets, "permitted = ?")
		args = append(args, permitted)
	}
	if p.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, boolToInt(*p.Active))
	}
	if len(sets) == 0 {
		return s.GetWorker(ctx, id)
	}

	query := "UPDATE workers SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.Worker{}, fmt.Errorf("update worker: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Worker{}, ErrNotFound
	}
	return s.GetWorker(ctx, id)
}

// DeleteWorker removes a worker from the roster.
func (s *SQLiteStore) DeleteWorker(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete worker: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOnline flips the worker's queue participation flag.
func (s *SQLiteStore) SetOnline(ctx context.Context, id int64, online bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE workers SET online = ? WHERE id = ?`, boolToInt(online), id)
	if err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAssigned bumps the worker's daily total and last-assignment timestamp.
func (s *SQLiteStore) MarkAssigned(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workers SET completed_today = completed_today + 1, last_assigned_at = ? WHERE id = ?`,
		formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("mark assigned: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetDailyTotals zeroes every worker's daily counter.
func (s *SQLiteStore) ResetDailyTotals(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE workers SET completed_today = 0`); err != nil {
		return fmt.Errorf("reset daily totals: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorker(r rowScanner) (model.Worker, error) {
	var (
		w            model.Worker
		online       int
		active       int
		permitted    string
		lastAssigned sql.NullString
		createdAt    string
	)
	err := r.Scan(&w.ID, &w.Name, &online, &active, &permitted, &w.CompletedToday, &lastAssigned, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Worker{}, err
		}
		return model.Worker{}, fmt.Errorf("scan worker: %w", err)
	}
	w.Online = online != 0
	w.Active = active != 0

	if w.Permitted, err = unmarshalPermitted(permitted); err != nil {
		return model.Worker{}, err
	}
	if lastAssigned.Valid && lastAssigned.String != "" {
		t, parseErr := parseTime(lastAssigned.String)
		if parseErr != nil {
			return model.Worker{}, parseErr
		}
		w.LastAssignedAt = &t
	}
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Worker{}, err
	}
	return w, nil
}

func marshalPermitted(ids []category.ID) (string, error) {
	if ids == nil {
		ids = []category.ID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal permitted: %w", err)
	}
	return string(raw), nil
}

func unmarshalPermitted(raw string) ([]category.ID, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []category.ID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal permitted: %w", err)
	}
	return ids, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
