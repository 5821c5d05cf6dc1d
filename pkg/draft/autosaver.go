package draft

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/waflow/waflow/pkg/eventbus"
	"github.com/waflow/waflow/pkg/events"
	"github.com/waflow/waflow/pkg/models"
)

// DebounceInterval coalesces bursts of graph mutations into one write.
const DebounceInterval = 250 * time.Millisecond

// SnapshotFunc captures the current editor state. It runs on the autosaver's
// timer goroutine and must therefore be safe to call from there.
type SnapshotFunc func() *models.DraftSnapshot

// KeyFunc resolves the current store key. It is a function because the key
// changes when an unsaved flow gains a server id.
type KeyFunc func() Key

// Autosaver observes graph mutation events and writes debounced recovery
// snapshots. A pending write is flushed synchronously on Flush or Close, so
// at most one debounce interval of edits can ever be lost.
type Autosaver struct {
	store    Store
	key      KeyFunc
	snapshot SnapshotFunc
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	closed  bool
}

func NewAutosaver(store Store, key KeyFunc, snapshot SnapshotFunc, logger *slog.Logger) *Autosaver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Autosaver{
		store:    store,
		key:      key,
		snapshot: snapshot,
		interval: DebounceInterval,
		logger:   logger,
	}
}

// Attach registers the autosaver for every graph mutation event type on the
// bus.
func (a *Autosaver) Attach(bus eventbus.EventSubscriber) {
	handler := func(ctx context.Context, _ any) error {
		a.Schedule()

		return nil
	}

	for _, eventType := range []events.EventType{
		events.NodeAddedEvent,
		events.NodesBatchAddedEvent,
		events.NodeUpdatedEvent,
		events.NodeMovedEvent,
		events.NodeDeletedEvent,
		events.EdgeConnectedEvent,
		events.EdgeDisconnectedEvent,
		events.FlowRenamedEvent,
	} {
		bus.Handle(eventType, handler)
	}
}

// Schedule arms (or re-arms) the debounce timer.
func (a *Autosaver) Schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	a.pending = true

	if a.timer == nil {
		a.timer = time.AfterFunc(a.interval, a.fire)

		return
	}

	a.timer.Reset(a.interval)
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	if !a.pending || a.closed {
		a.mu.Unlock()

		return
	}

	a.pending = false
	a.mu.Unlock()

	a.write()
}

// Flush writes any pending snapshot immediately, bypassing the debounce.
// Called when the host page hides or the editor unmounts.
func (a *Autosaver) Flush() {
	a.mu.Lock()

	if !a.pending {
		a.mu.Unlock()

		return
	}

	a.pending = false

	if a.timer != nil {
		a.timer.Stop()
	}

	a.mu.Unlock()

	a.write()
}

// Clear drops the stored snapshot. Called after any successful save or
// publish, when the server copy supersedes local recovery state.
func (a *Autosaver) Clear(ctx context.Context) {
	a.mu.Lock()
	a.pending = false

	if a.timer != nil {
		a.timer.Stop()
	}

	a.mu.Unlock()

	if err := a.store.Delete(ctx, a.key()); err != nil {
		a.logger.Warn("failed to clear recovery snapshot", "error", err)
	}
}

// Close flushes pending state and stops the autosaver for good.
func (a *Autosaver) Close() {
	a.Flush()

	a.mu.Lock()
	a.closed = true

	if a.timer != nil {
		a.timer.Stop()
	}

	a.mu.Unlock()
}

func (a *Autosaver) write() {
	snapshot := a.snapshot()
	if snapshot == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.store.Put(ctx, a.key(), snapshot); err != nil {
		a.logger.Warn("failed to write recovery snapshot", "error", err)
	}
}

// Restore returns the snapshot to resume from, applying the recovery policy:
// only a new, unsaved flow consults the store. Flows with a server id always
// prefer the server's version of record, so stale local edits never shadow a
// teammate's newer state.
func Restore(ctx context.Context, store Store, key Key) (*models.DraftSnapshot, error) {
	if key.FlowID != "" {
		return nil, nil
	}

	return store.Get(ctx, key)
}
