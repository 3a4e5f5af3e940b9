// Package syncer coordinates indexing runs per codebase: a debounce window
// suppresses rapid re-triggers, and a single-flight slot guarantees at most
// one active run per canonical root at any time.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults applied when a zero-value interval is supplied.
const (
	DefaultSyncInterval     = 5 * time.Minute
	DefaultDebounceInterval = 60 * time.Second
)

// Batch is the single-flight token held for the duration of one indexing
// run. It carries the cancellation handle for the run.
type Batch struct {
	ID        string
	Key       string // canonical absolute path of the codebase
	CreatedAt time.Time

	cancel context.CancelFunc
}

// Coordinator tracks last-sync instants and active slots per codebase key.
// acquire/release form the critical section; both are linearizable per key
// under the single mutex.
type Coordinator struct {
	mu       sync.Mutex
	lastSync map[string]time.Time
	active   map[string]*Batch

	syncInterval time.Duration
	debounce     time.Duration
}

// New creates a coordinator with the given intervals; zero values take the
// defaults.
func New(syncInterval, debounce time.Duration) *Coordinator {
	if syncInterval <= 0 {
		syncInterval = DefaultSyncInterval
	}
	if debounce <= 0 {
		debounce = DefaultDebounceInterval
	}
	return &Coordinator{
		lastSync:     make(map[string]time.Time),
		active:       make(map[string]*Batch),
		syncInterval: syncInterval,
		debounce:     debounce,
	}
}

// ShouldDebounce reports whether a sync for key completed inside the
// debounce window. A key that has never synced is never debounced.
func (c *Coordinator) ShouldDebounce(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.lastSync[key]
	if !ok {
		return false
	}
	return time.Since(last) < c.debounce
}

// AcquireSlot atomically claims the single-flight slot for key. It returns
// nil when another run already holds the slot. The returned context is
// derived from parent and is cancelled by Cancel or ReleaseSlot.
func (c *Coordinator) AcquireSlot(parent context.Context, key string) (*Batch, context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, held := c.active[key]; held {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(parent)
	batch := &Batch{
		ID:        uuid.NewString(),
		Key:       key,
		CreatedAt: time.Now(),
		cancel:    cancel,
	}
	c.active[key] = batch
	return batch, ctx
}

// ReleaseSlot frees the slot and records the sync instant. It must run on
// every exit path of a pipeline, including failures and cancellation.
func (c *Coordinator) ReleaseSlot(batch *Batch) {
	if batch == nil {
		return
	}
	batch.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.active[batch.Key]; ok && current.ID == batch.ID {
		delete(c.active, batch.Key)
	}
	c.lastSync[batch.Key] = time.Now()
}

// Cancel stops the active run for key, if any. The pipeline observes the
// cancellation at its next suspension point and releases the slot itself.
func (c *Coordinator) Cancel(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch, ok := c.active[key]
	if !ok {
		return false
	}
	batch.cancel()
	return true
}

// ActiveKeys returns the codebase keys with a run in flight, for status
// reporting.
func (c *Coordinator) ActiveKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.active))
	for key := range c.active {
		keys = append(keys, key)
	}
	return keys
}

// LastSync returns the recorded completion instant for key.
func (c *Coordinator) LastSync(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.lastSync[key]
	return t, ok
}

// SyncInterval returns the configured background sync interval.
func (c *Coordinator) SyncInterval() time.Duration { return c.syncInterval }

// DebounceInterval returns the configured debounce window.
func (c *Coordinator) DebounceInterval() time.Duration { return c.debounce }
