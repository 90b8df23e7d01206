// Package dispatch runs the case-distribution job.
//
// Each cycle pulls the pending cases per category from the
// case-management system, deals every new case to the analyst at the
// head of that category's fair queue, and removes local assignments
// whose case vanished upstream. Assignment is strictly sequential: each
// pick re-reads the roster so the previous assignment's bump to the
// daily total and last-assignment timestamp is visible to the next pick.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fila/internal/adapters/crm"
	"github.com/okian/fila/internal/adapters/repository"
	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
	"github.com/okian/fila/internal/domain/rank"
	"github.com/okian/fila/pkg/logger"
	"github.com/okian/fila/pkg/metrics"
)

// Default dispatcher configuration constants.
const (
	defaultInterval = 25 * time.Second
)

// Dispatcher distributes pending cases to analysts.
type Dispatcher struct {
	store  repository.Store
	source crm.Source

	interval time.Duration
	logger   logger.Logger

	// mu serializes cycles. Periodic ticks skip when a cycle is already
	// running; RedistributeAll waits its turn instead.
	mu sync.Mutex

	stateMu    sync.Mutex
	lastSyncAt time.Time
	lastErr    error
	currentDay string
}

// New creates a Dispatcher with default configuration.
func New(store repository.Store, source crm.Source, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		source:   source,
		interval: defaultInterval,
		logger:   logger.Get().Named("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes sync cycles until ctx is canceled. The first cycle starts
// immediately.
func (d *Dispatcher) Run(ctx context.Context) {
	d.trySync(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.trySync(ctx)
		}
	}
}

// trySync runs one cycle unless another is already in flight. Skipping
// is the correct behavior: overlapping cycles could deal the same case
// twice or apply results out of order.
func (d *Dispatcher) trySync(ctx context.Context) {
	if !d.mu.TryLock() {
		d.logger.Debug(ctx, "sync already in flight; skipping tick")
		return
	}
	defer d.mu.Unlock()
	d.syncLocked(ctx)
}

// SyncOnce runs a single cycle, waiting for any in-flight cycle first.
// Mutation endpoints call this so a fresh assignment picture follows the
// mutation within one interval.
func (d *Dispatcher) SyncOnce(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncLocked(ctx)
}

// RedistributeAll clears every desk and immediately re-deals all pending
// cases under the current roster.
func (d *Dispatcher) RedistributeAll(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.DeleteAllAssignments(ctx); err != nil {
		return err
	}
	metrics.RecordRedistribution()
	d.logger.Info(ctx, "cleared all desks for redistribution")
	d.syncLocked(ctx)
	return nil
}

// LastSync reports when the last cycle finished and its error, if any.
func (d *Dispatcher) LastSync() (time.Time, error) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.lastSyncAt, d.lastErr
}

// syncLocked runs one full cycle. Callers hold d.mu.
func (d *Dispatcher) syncLocked(ctx context.Context) {
	start := time.Now()
	cycle := uuid.NewString()
	log := d.logger.Named("cycle")

	d.rollover(ctx)

	var (
		seen     []string
		assigned int
		firstErr error
		allOK    = true
	)
	for _, cat := range category.IDs() {
		cases, err := d.source.ListPending(ctx, cat)
		if err != nil {
			allOK = false
			if firstErr == nil {
				firstErr = err
			}
			metrics.RecordSyncError()
			log.Warn(ctx, "pending fetch failed",
				logger.String("cycle", cycle),
				logger.Int("category", int(cat)),
				logger.Error(err),
			)
			continue
		}
		for _, pc := range cases {
			seen = append(seen, pc.ID)
			if d.assign(ctx, cat, pc, cycle) {
				assigned++
			}
		}
	}

	// Prune only when every category listed successfully; a partial view
	// would delete assignments whose category merely failed to fetch.
	if allOK {
		pruned, err := d.store.PruneAssignments(ctx, seen)
		if err != nil {
			log.Warn(ctx, "prune failed", logger.String("cycle", cycle), logger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		} else if pruned > 0 {
			metrics.RecordCasesPruned(pruned)
			log.Info(ctx, "pruned vanished cases",
				logger.String("cycle", cycle),
				logger.Int("count", pruned),
			)
		}
	}

	elapsed := time.Since(start)
	metrics.RecordSyncCycle()
	metrics.RecordSyncDuration(float64(elapsed.Milliseconds()))

	d.stateMu.Lock()
	d.lastSyncAt = time.Now()
	d.lastErr = firstErr
	d.stateMu.Unlock()

	if assigned > 0 || firstErr != nil {
		log.Info(ctx, "sync cycle finished",
			logger.String("cycle", cycle),
			logger.Int("assigned", assigned),
			logger.Int("pending_seen", len(seen)),
			logger.Any("err", firstErr),
		)
	}
}

// assign deals one pending case to the head of the category queue.
// Returns true when a new assignment was created.
func (d *Dispatcher) assign(ctx context.Context, cat category.ID, pc crm.PendingCase, cycle string) bool {
	has, err := d.store.HasAssignment(ctx, pc.ID)
	if err != nil {
		d.logger.Warn(ctx, "assignment lookup failed",
			logger.String("cycle", cycle),
			logger.String("case_id", pc.ID),
			logger.Error(err),
		)
		return false
	}
	if has {
		return false
	}

	roster, err := d.store.ListWorkers(ctx)
	if err != nil {
		d.logger.Warn(ctx, "roster read failed", logger.String("cycle", cycle), logger.Error(err))
		return false
	}
	next, ok := rank.Next(cat, roster)
	if !ok {
		// Nobody eligible: the case stays pending upstream and is
		// retried next cycle.
		return false
	}

	// A case coming back for redistribution starts with a clean record.
	if err := d.store.DeleteHistoryFor(ctx, pc.ID); err != nil {
		d.logger.Warn(ctx, "history cleanup failed", logger.String("case", pc.ID), logger.Error(err))
	}

	now := time.Now().UTC()
	a := model.Assignment{
		CaseID:        pc.ID,
		WorkerID:      next.ID,
		CategoryID:    cat,
		CategoryLabel: category.Label(cat),
		Client:        pc.Client,
		Project:       pc.Project,
		Unit:          pc.Unit,
		AssignedAt:    now,
	}
	if err := d.store.InsertAssignment(ctx, a); err != nil {
		if !errors.Is(err, repository.ErrCaseExists) {
			d.logger.Warn(ctx, "assignment insert failed", logger.String("case", pc.ID), logger.Error(err))
		}
		return false
	}
	if err := d.store.MarkAssigned(ctx, next.ID, now); err != nil {
		d.logger.Warn(ctx, "worker counters update failed",
			logger.String("case", pc.ID),
			logger.Error(err),
		)
	}

	metrics.RecordCaseAssigned()
	d.logger.Info(ctx, "case assigned",
		logger.String("cycle", cycle),
		logger.String("case", pc.ID),
		logger.Int("category", int(cat)),
		logger.String("worker", next.Name),
	)
	return true
}

// rollover zeroes daily totals when the civil day changes.
func (d *Dispatcher) rollover(ctx context.Context) {
	today := time.Now().Format("2006-01-02")

	d.stateMu.Lock()
	changed := d.currentDay != "" && d.currentDay != today
	d.currentDay = today
	d.stateMu.Unlock()

	if !changed {
		return
	}
	if err := d.store.ResetDailyTotals(ctx); err != nil {
		d.logger.Warn(ctx, "daily totals reset failed", logger.Error(err))
		return
	}
	d.logger.Info(ctx, "daily totals reset", logger.String("day", today))
}
