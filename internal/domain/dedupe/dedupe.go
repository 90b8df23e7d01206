// Package dedupe defines the interface for duplicate-submission tracking.
//
// One-shot mutations (completing a case, redistributing) must tolerate a
// client resubmitting before the first response lands. The guard records
// ids it has seen so a repeat is answered as a duplicate instead of being
// applied twice.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen submission ids for at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set so the submission can be
	// retried. Use when an action was recorded but failed to apply.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a bounded map plus a FIFO list
// of insertion order. When the bound is reached the oldest id is evicted;
// with maxSize <= 0 the set is unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, oldest first; bounded mode only
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
		d.size.Add(-1)
	}

	d.seen[id] = struct{}{}
	if d.maxSize > 0 {
		d.order = append(d.order, id)
	}
	d.size.Add(1)
	return false
}

// Unrecord removes an id from the seen set.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; !exists {
		return
	}
	delete(d.seen, id)
	if d.maxSize > 0 {
		for i, v := range d.order {
			if v == id {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
	}
	d.size.Add(-1)
}

// Size returns the current number of recorded ids.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
