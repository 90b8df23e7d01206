// Package refresh maintains the read-side snapshot of the system.
//
// A Refresher periodically rebuilds an immutable Snapshot from the
// store and the upstream pending counter, and publishes it atomically.
// Readers always see either the previous complete snapshot or the new
// one, never a half-built state. A failed rebuild keeps the last good
// snapshot in place.
package refresh

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/fila/internal/adapters/crm"
	"github.com/okian/fila/internal/adapters/repository"
	"github.com/okian/fila/internal/domain/model"
	"github.com/okian/fila/pkg/logger"
	"github.com/okian/fila/pkg/metrics"
)

// Refresher states.
const (
	StateIdle int32 = iota
	StateRefreshing
)

// Default refresher configuration constants.
const (
	defaultInterval = 15 * time.Second
)

// stateNames maps state values to their wire representation.
var stateNames = map[int32]string{
	StateIdle:       "idle",
	StateRefreshing: "refreshing",
}

// Refresher rebuilds and publishes read-side snapshots.
type Refresher struct {
	store  repository.Store
	source crm.Source

	interval time.Duration
	logger   logger.Logger

	state   atomic.Int32
	current atomic.Pointer[model.Snapshot]
	gen     atomic.Uint64
	lastErr atomic.Pointer[error]
}

// New creates a Refresher with default configuration.
func New(store repository.Store, source crm.Source, opts ...Option) *Refresher {
	r := &Refresher{
		store:    store,
		source:   source,
		interval: defaultInterval,
		logger:   logger.Get().Named("refresh"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run rebuilds snapshots until ctx is canceled. The first rebuild runs
// immediately so readers never start against an empty view.
func (r *Refresher) Run(ctx context.Context) {
	_ = r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}

// Refresh rebuilds one snapshot now. Concurrent calls are collapsed:
// when a rebuild is already in flight the call returns immediately and
// readers pick up that rebuild's result.
func (r *Refresher) Refresh(ctx context.Context) error {
	if !r.state.CompareAndSwap(StateIdle, StateRefreshing) {
		return nil
	}
	defer r.state.Store(StateIdle)

	// A rebuild must never outlive half the interval, or cycles would
	// queue up behind a stalled store or upstream call.
	ctx, cancel := context.WithTimeout(ctx, r.interval/2)
	defer cancel()

	start := time.Now()
	snap, err := r.build(ctx)
	if err != nil {
		metrics.RecordSnapshotError()
		r.lastErr.Store(&err)
		r.logger.Warn(ctx, "snapshot rebuild failed; keeping previous", logger.Error(err))
		return err
	}

	r.publish(snap)
	r.lastErr.Store(nil)
	metrics.RecordSnapshotRefresh()
	metrics.RecordSnapshotDuration(float64(time.Since(start).Milliseconds()))
	return nil
}

// Current returns the latest published snapshot, or nil before the
// first successful rebuild.
func (r *Refresher) Current() *model.Snapshot {
	return r.current.Load()
}

// State reports the refresher's current state name.
func (r *Refresher) State() string {
	return stateNames[r.state.Load()]
}

// LastError returns the error of the most recent rebuild, nil when it
// succeeded.
func (r *Refresher) LastError() error {
	if p := r.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// build assembles a snapshot from the store and the upstream counter.
func (r *Refresher) build(ctx context.Context) (*model.Snapshot, error) {
	workers, err := r.store.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	open, err := r.store.AllOpenAssignments(ctx)
	if err != nil {
		return nil, err
	}
	closed, err := r.store.ClosedSince(ctx, midnight(time.Now()))
	if err != nil {
		return nil, err
	}

	return &model.Snapshot{
		TakenAt:         time.Now().UTC(),
		Generation:      r.gen.Add(1),
		Workers:         workers,
		Open:            open,
		ClosedToday:     closed,
		ExternalPending: r.source.PendingTotal(ctx),
	}, nil
}

// publish installs snap unless a newer generation is already out. Stale
// rebuilds lose; the freshest snapshot always wins.
func (r *Refresher) publish(snap *model.Snapshot) {
	for {
		cur := r.current.Load()
		if cur != nil && cur.Generation >= snap.Generation {
			return
		}
		if r.current.CompareAndSwap(cur, snap) {
			return
		}
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
