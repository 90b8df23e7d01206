// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fila/internal/adapters/crm"
	"github.com/okian/fila/internal/adapters/mq/queue"
	"github.com/okian/fila/internal/adapters/mq/worker"
	"github.com/okian/fila/internal/adapters/repository"
	"github.com/okian/fila/internal/dispatch"
	"github.com/okian/fila/internal/domain/aggregate"
	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/dedupe"
	"github.com/okian/fila/internal/domain/model"
	"github.com/okian/fila/internal/domain/rank"
	"github.com/okian/fila/internal/refresh"
	"github.com/okian/fila/pkg/logger"
	"github.com/okian/fila/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultSyncInterval    = 25 * time.Second
	defaultRefreshInterval = 15 * time.Second
	defaultDedupeSize      = 50000
	recentClosedLimit      = 50
)

// Session is issued on a successful login.
type Session struct {
	Token  string
	Worker model.Worker
}

// Metrics carries one analyst's completion counters.
type Metrics struct {
	Today int
	Year  int
}

// Overview is the management view: the whole roster, every open case,
// the day's closed cases, and the derived statistics.
type Overview struct {
	GeneratedAt     time.Time
	Team            []model.Worker
	Open            []model.Assignment
	RecentClosed    []model.HistoryEntry
	ExternalPending int
	Stats           aggregate.Result
	SnapshotState   string
	LastSyncAt      time.Time
	LastSyncError   string
}

// Service implements the API dependencies for the distribution system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	source     crm.Source
	deduper    dedupe.Deduper
	dispatcher *dispatch.Dispatcher
	refresher  *refresh.Refresher
	triggers   *queue.InMemoryQueue
	trigWorker *worker.TriggerWorker

	// Configuration
	syncInterval    time.Duration
	refreshInterval time.Duration
	dedupeSize      int

	// State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSyncInterval sets the upstream polling interval.
func WithSyncInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncInterval = d
		}
	}
}

// WithRefreshInterval sets the snapshot rebuild interval.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// WithDedupeSize sets the size of the duplicate-submission cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(store repository.Store, source crm.Source, opts ...Option) *Service {
	s := &Service{
		store:           store,
		source:          source,
		syncInterval:    defaultSyncInterval,
		refreshInterval: defaultRefreshInterval,
		dedupeSize:      defaultDedupeSize,
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components and launches the sync and
// snapshot loops.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting distribution service...")

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.dispatcher = dispatch.New(s.store, s.source,
		dispatch.WithInterval(s.syncInterval),
		dispatch.WithLogger(s.logger.Named("dispatch")),
	)
	s.refresher = refresh.New(s.store, s.source,
		refresh.WithInterval(s.refreshInterval),
		refresh.WithLogger(s.logger.Named("refresh")),
	)
	s.triggers = queue.NewInMemoryQueue()
	s.trigWorker = worker.NewTriggerWorker(s.triggers, s.dispatcher, s.refresher,
		worker.WithLogger(s.logger.Named("trigger-worker")),
	)

	// The loops outlive the startup context; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.dispatcher.Run(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.refresher.Run(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.trigWorker.Run(runCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "distribution service started",
		logger.Duration("syncInterval", s.syncInterval),
		logger.Duration("refreshInterval", s.refreshInterval),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping distribution service...")

	if s.triggers != nil {
		_ = s.triggers.Close()
	}
	if s.trigWorker != nil {
		// Wait for an in-flight pass before cancelling the run context.
		_ = s.trigWorker.Shutdown(context.Background())
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.started = false
	s.logger.Info(context.Background(), "distribution service stopped")
}

// Authenticate checks an analyst's credentials and, on success, brings
// the analyst online and issues a session token.
func (s *Service) Authenticate(ctx context.Context, id int64, secret string) (Session, error) {
	w, err := s.store.Authenticate(ctx, id, secret)
	if err != nil {
		metrics.RecordLoginFailure()
		return Session{}, err
	}
	if err := s.store.SetOnline(ctx, id, true); err != nil {
		return Session{}, err
	}
	w.Online = true

	s.logger.Info(ctx, "analyst logged in",
		logger.Int64("worker", w.ID),
		logger.String("name", w.Name),
	)
	return Session{Token: uuid.NewString(), Worker: w}, nil
}

// SetAvailability flips an analyst's queue participation. Going online
// triggers a sync so waiting cases land on the new desk promptly.
func (s *Service) SetAvailability(ctx context.Context, id int64, online bool) error {
	if err := s.store.SetOnline(ctx, id, online); err != nil {
		return err
	}
	if online {
		s.triggerSync()
	}
	return nil
}

// Team returns the full roster.
func (s *Service) Team(ctx context.Context) ([]model.Worker, error) {
	return s.store.ListWorkers(ctx)
}

// Worker returns one analyst.
func (s *Service) Worker(ctx context.Context, id int64) (model.Worker, error) {
	return s.store.GetWorker(ctx, id)
}

// Desk returns the open cases sitting on one analyst's desk.
func (s *Service) Desk(ctx context.Context, id int64) ([]model.Assignment, error) {
	if _, err := s.store.GetWorker(ctx, id); err != nil {
		return nil, err
	}
	return s.store.OpenAssignments(ctx, id)
}

// QueuePositions returns the analyst's 1-based position in every
// category queue it participates in. Positions are computed from a live
// roster read: a stale counter here would misreport who is next.
func (s *Service) QueuePositions(ctx context.Context, id int64) (map[category.ID]int, error) {
	if _, err := s.store.GetWorker(ctx, id); err != nil {
		return nil, err
	}
	roster, err := s.store.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	return rank.Positions(id, roster), nil
}

// WorkerMetrics returns one analyst's completion counters for the
// current day and the current year.
func (s *Service) WorkerMetrics(ctx context.Context, id int64) (Metrics, error) {
	if _, err := s.store.GetWorker(ctx, id); err != nil {
		return Metrics{}, err
	}

	now := time.Now()
	today, err := s.store.CompletedCountSince(ctx, id, midnight(now))
	if err != nil {
		return Metrics{}, err
	}
	year, err := s.store.CompletedCountSince(ctx, id, newYear(now))
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{Today: today, Year: year}, nil
}

// Complete closes an open case with the given outcome. A resubmission
// of the same case before the first call lands is answered with
// ErrDuplicate instead of being applied twice.
func (s *Service) Complete(ctx context.Context, caseID, outcome string) (model.HistoryEntry, error) {
	key := "complete:" + caseID
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordDuplicateSubmission()
		return model.HistoryEntry{}, ErrDuplicate
	}

	entry, err := s.store.CompleteAssignment(ctx, caseID, outcome)
	if err != nil {
		// The action never applied; let the client retry.
		s.deduper.Unrecord(ctx, key)
		return model.HistoryEntry{}, err
	}

	metrics.RecordCaseCompleted()
	s.logger.Info(ctx, "case completed",
		logger.String("case", caseID),
		logger.Int64("worker", entry.WorkerID),
		logger.String("outcome", outcome),
	)
	s.triggerRefresh()
	return entry, nil
}

// Overview assembles the management view.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	o := Overview{GeneratedAt: time.Now().UTC()}

	if snap := s.snapshot(); snap != nil {
		o.Team = snap.Workers
		o.Open = snap.Open
		o.RecentClosed = capHistory(snap.ClosedToday, recentClosedLimit)
		o.ExternalPending = snap.ExternalPending
		o.Stats = aggregate.FromSnapshot(snap)
	} else {
		// No snapshot yet; assemble directly from the store.
		team, err := s.store.ListWorkers(ctx)
		if err != nil {
			return Overview{}, err
		}
		open, err := s.store.AllOpenAssignments(ctx)
		if err != nil {
			return Overview{}, err
		}
		closed, err := s.store.ClosedSince(ctx, midnight(time.Now()))
		if err != nil {
			return Overview{}, err
		}
		o.Team = team
		o.Open = open
		o.RecentClosed = capHistory(closed, recentClosedLimit)
		o.ExternalPending = s.source.PendingTotal(ctx)

		ids := make([]int64, len(team))
		for i := range team {
			ids[i] = team[i].ID
		}
		o.Stats = aggregate.Aggregate(open, closed, category.IDs(), ids)
	}

	if s.refresher != nil {
		o.SnapshotState = s.refresher.State()
	}
	if s.dispatcher != nil {
		at, err := s.dispatcher.LastSync()
		o.LastSyncAt = at
		if err != nil {
			o.LastSyncError = err.Error()
		}
	}
	return o, nil
}

// CreateAnalyst adds an analyst to the roster.
func (s *Service) CreateAnalyst(ctx context.Context, p repository.Profile) (model.Worker, error) {
	w, err := s.store.CreateWorker(ctx, p)
	if err != nil {
		return model.Worker{}, err
	}
	s.logger.Info(ctx, "analyst created",
		logger.Int64("worker", w.ID),
		logger.String("name", w.Name),
	)
	s.triggerRefresh()
	return w, nil
}

// UpdateAnalyst applies a partial update to an analyst.
func (s *Service) UpdateAnalyst(ctx context.Context, id int64, p repository.Patch) (model.Worker, error) {
	w, err := s.store.UpdateWorker(ctx, id, p)
	if err != nil {
		return model.Worker{}, err
	}
	s.triggerRefresh()
	return w, nil
}

// DeleteAnalyst removes an analyst. The orphaned desk is re-dealt by the
// sync that follows.
func (s *Service) DeleteAnalyst(ctx context.Context, id int64) error {
	if err := s.store.DeleteWorker(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "analyst deleted", logger.Int64("worker", id))
	s.triggerSync()
	return nil
}

// Redistribute wipes every desk and re-deals all pending cases. The
// optional request id guards against duplicate submissions.
func (s *Service) Redistribute(ctx context.Context, requestID string) error {
	if requestID != "" {
		if s.deduper.SeenAndRecord(ctx, "redistribute:"+requestID) {
			metrics.RecordDuplicateSubmission()
			return ErrDuplicate
		}
	}

	s.mu.RLock()
	d := s.dispatcher
	s.mu.RUnlock()
	if d == nil {
		return ErrNotStarted
	}
	if err := d.RedistributeAll(ctx); err != nil {
		return err
	}
	s.triggerRefresh()
	return nil
}

// Snapshot returns the latest read-side snapshot, nil before the first
// successful rebuild.
func (s *Service) Snapshot() *model.Snapshot {
	return s.snapshot()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"syncIntervalMs":    s.syncInterval.Milliseconds(),
		"refreshIntervalMs": s.refreshInterval.Milliseconds(),
		"dedupeSize":        s.dedupeSize,
	}

	if s.deduper != nil {
		stats["dedupeEntries"] = s.deduper.Size()
	}
	if s.triggers != nil {
		stats["triggerQueueDepth"] = s.triggers.Len(context.Background())
	}
	if s.dispatcher != nil {
		at, err := s.dispatcher.LastSync()
		stats["lastSyncUnix"] = at.Unix()
		stats["lastSyncOk"] = err == nil
	}
	if s.refresher != nil {
		stats["snapshotState"] = s.refresher.State()
	}

	if snap := s.refresherSnapshot(); snap != nil {
		online := 0
		for i := range snap.Workers {
			if snap.Workers[i].Online {
				online++
			}
		}
		stats["analysts"] = len(snap.Workers)
		stats["analystsOnline"] = online
		stats["openAssignments"] = len(snap.Open)
		stats["externalPending"] = snap.ExternalPending
		stats["snapshotGeneration"] = snap.Generation

		// Update metrics
		metrics.UpdateAnalystsTotal(len(snap.Workers))
		metrics.UpdateAnalystsOnline(online)
		metrics.UpdateOpenAssignments(len(snap.Open))
		metrics.UpdateExternalPending(snap.ExternalPending)
	}

	return stats
}

func (s *Service) snapshot() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresherSnapshot()
}

// refresherSnapshot reads the snapshot without taking s.mu. Callers hold it.
func (s *Service) refresherSnapshot() *model.Snapshot {
	if s.refresher == nil {
		return nil
	}
	return s.refresher.Current()
}

// triggerSync queues a sync pass followed by a snapshot rebuild, so the
// rebuilt snapshot reflects the pass's assignments.
func (s *Service) triggerSync() {
	s.enqueueTrigger(queue.KindSync)
}

// triggerRefresh queues a snapshot rebuild.
func (s *Service) triggerRefresh() {
	s.enqueueTrigger(queue.KindRefresh)
}

func (s *Service) enqueueTrigger(kind queue.Kind) {
	s.mu.RLock()
	q := s.triggers
	s.mu.RUnlock()
	if q == nil {
		return
	}
	// A dropped trigger means the queue already holds a pending pass.
	_ = q.Enqueue(context.Background(), queue.Trigger{Kind: kind, RequestedAt: time.Now()})
}

func capHistory(entries []model.HistoryEntry, limit int) []model.HistoryEntry {
	if len(entries) <= limit {
		return entries
	}
	return entries[:limit]
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func newYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}
