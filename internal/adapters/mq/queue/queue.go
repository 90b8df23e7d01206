// Package queue provides the trigger queue that feeds the background
// distribution worker.
//
// Triggers are level signals, not payloads: a queued sync trigger already
// guarantees a full distribution pass, so dropping an enqueue when the
// queue is full loses nothing.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/fila/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 256
)

// Kind classifies what a trigger asks the worker to do.
type Kind int

const (
	// KindSync requests a full distribution pass followed by a
	// snapshot rebuild.
	KindSync Kind = iota

	// KindRefresh requests a snapshot rebuild only.
	KindRefresh
)

// Trigger is a request for background work.
type Trigger struct {
	Kind        Kind
	RequestedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a trigger to the queue.
	// Returns false if the queue is full or closed and the trigger was dropped.
	Enqueue(ctx context.Context, t Trigger) bool

	// Dequeue returns a channel that will receive triggers as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Trigger

	// Len returns the current number of queued triggers.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	triggers chan Trigger
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory trigger queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	q.triggers = make(chan Trigger, q.capacity)

	metrics.UpdateTriggerQueueDepth(0)

	return q
}

// Enqueue adds a trigger to the queue.
func (q *InMemoryQueue) Enqueue(_ context.Context, t Trigger) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordTriggerDropped()
		return false
	}

	select {
	case q.triggers <- t:
		metrics.RecordTriggerEnqueued()
		metrics.UpdateTriggerQueueDepth(len(q.triggers))
		return true
	default:
		// Full queue means a pass is already coming.
		metrics.RecordTriggerDropped()
		return false
	}
}

// Dequeue returns a channel that will receive triggers as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Trigger {
	out := make(chan Trigger)
	go func() {
		defer close(out)
		for t := range q.triggers {
			select {
			case out <- t:
				metrics.UpdateTriggerQueueDepth(len(q.triggers))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued triggers.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.triggers)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	close(q.triggers)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
