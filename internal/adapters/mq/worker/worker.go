// Package worker drains the trigger queue and executes distribution passes
// and snapshot rebuilds.
//
// A single worker processes triggers one at a time. Running passes
// concurrently would only contend on the dispatcher lock, and a refresh
// must observe the assignments of the sync that requested it.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/fila/internal/adapters/mq/queue"
	"github.com/okian/fila/pkg/logger"
	"github.com/okian/fila/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
)

// Syncer runs a full distribution pass. Pass errors are handled and
// logged by the implementation itself.
type Syncer interface {
	SyncOnce(ctx context.Context)
}

// Refresher rebuilds the read-side snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Queue defines how the worker receives triggers.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Trigger
}

// Worker processes triggers until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// TriggerWorker implements Worker over a trigger queue.
type TriggerWorker struct {
	queue     Queue
	syncer    Syncer
	refresher Refresher
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewTriggerWorker creates a new worker with configuration options.
func NewTriggerWorker(q Queue, syncer Syncer, refresher Refresher, opts ...Option) *TriggerWorker {
	w := &TriggerWorker{
		queue:     q,
		syncer:    syncer,
		refresher: refresher,
		name:      "trigger-worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *TriggerWorker) Run(ctx context.Context) {
	defer close(w.done)

	triggers := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-triggers:
			if !ok {
				// Queue closed, worker should stop.
				return
			}
			if err := w.process(ctx, t); err != nil {
				w.logger.Error(ctx, "trigger failed", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *TriggerWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
	defer cancel()

	select {
	case <-w.done:
		return nil
	case <-shutdownCtx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
}

// process executes a single trigger.
func (w *TriggerWorker) process(ctx context.Context, t queue.Trigger) error {
	defer func() {
		metrics.RecordTriggerProcessed()
		if !t.RequestedAt.IsZero() {
			metrics.RecordTriggerLatency(float64(time.Since(t.RequestedAt).Milliseconds()))
		}
	}()

	if t.Kind == queue.KindSync {
		w.syncer.SyncOnce(ctx)
	}

	if err := w.refresher.Refresh(ctx); err != nil {
		metrics.RecordErrorByComponent("worker", "refresh_error")
		return fmt.Errorf("snapshot rebuild failed: %w", err)
	}
	return nil
}
