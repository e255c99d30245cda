// Package controller owns the canonical in-memory WorkspaceState and its
// journey to durability: immediate in-memory mutation, debounced local
// writes, and best-effort asynchronous remote sync.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"workspace-state-engine/internal/client"
	"workspace-state-engine/internal/domain"
	"workspace-state-engine/internal/history"
	"workspace-state-engine/internal/metrics"
	"workspace-state-engine/internal/migration"
	"workspace-state-engine/internal/repository"
	"workspace-state-engine/internal/state"
)

// LocalKey is the snapshot key used before sign-in, when no identity
// namespaces the local store
const LocalKey = "local"

// SyncStatus is the persistence state surfaced to callers. Migrated is set
// once, on initial load, when the persisted blob needed a schema upgrade.
type SyncStatus struct {
	Migrated bool   `json:"migrated"`
	Pending  bool   `json:"pending"`
	Error    string `json:"error,omitempty"`
}

// Subscriber receives every new canonical state value
type Subscriber func(domain.WorkspaceState)

// Config holds controller dependencies. Snapshots and Remote may be nil, in
// which case the engine operates purely in memory for that tier.
type Config struct {
	UserID         string
	Snapshots      repository.SnapshotRepository
	Remote         client.RemoteStateClient
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Debounce       time.Duration
	HistoryDepth   int
	CoalesceWindow time.Duration
}

// Controller is the storage hook the UI consumes: canonical state, history,
// and persistence behind one handle. All mutations go through Apply.
type Controller struct {
	mu      sync.Mutex
	flushMu sync.Mutex

	userID    string
	st        domain.WorkspaceState
	hist      *history.Manager
	snapshots repository.SnapshotRepository
	remote    client.RemoteStateClient
	logger    *zap.Logger
	metrics   *metrics.Metrics
	debounce  time.Duration

	timer *time.Timer
	// holdWrites suppresses local saves while the stored snapshot exists but
	// could not be read, so a fallback state never overwrites real data
	holdWrites bool
	status     SyncStatus
	subs       map[int]Subscriber
	nextID     int
	closed     bool
	wg         sync.WaitGroup
}

// New creates a controller. Call Load before applying mutations.
func New(cfg Config) *Controller {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	histOpts := []history.Option{}
	if cfg.HistoryDepth > 0 {
		histOpts = append(histOpts, history.WithDepth(cfg.HistoryDepth))
	}
	if cfg.CoalesceWindow > 0 {
		histOpts = append(histOpts, history.WithCoalesceWindow(cfg.CoalesceWindow))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		userID:    cfg.UserID,
		hist:      history.New(histOpts...),
		snapshots: cfg.Snapshots,
		remote:    cfg.Remote,
		logger:    logger,
		metrics:   cfg.Metrics,
		debounce:  cfg.Debounce,
		subs:      map[int]Subscriber{},
	}
}

func (c *Controller) storageKey() string {
	if c.userID == "" {
		return LocalKey
	}
	return "workspace_state:" + c.userID
}

// Load reads the local snapshot, migrates it to the canonical schema, and
// reconciles with the remote store: the side with the newer last-modified
// marker wins outright. A genuinely unparsable blob degrades to a fresh
// default state; a transient read failure keeps the stored snapshot safe by
// holding local writes until the store is readable again.
func (c *Controller) Load(ctx context.Context) error {
	var (
		raw         []byte
		localTime   time.Time
		localUnread bool
	)
	if c.snapshots != nil {
		snapshot, err := c.snapshots.Load(ctx, c.storageKey())
		switch {
		case err == nil:
			raw = snapshot.Payload
			localTime = snapshot.UpdatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first run, nothing stored yet
		default:
			// The stored snapshot may exist but could not be read; do not
			// let a later flush overwrite it with the fresh fallback
			c.logger.Warn("Failed to read local snapshot, holding local writes",
				zap.Error(err))
			c.setError("local read failed: " + err.Error())
			localUnread = true
		}
	}

	st, migrated := migration.EnsureWorkspaceState(raw)
	adoptedRemote := false

	if c.remote != nil && c.userID != "" {
		remote, err := c.remote.Fetch(ctx, c.userID)
		switch {
		case err != nil:
			c.setError("remote read failed: " + err.Error())
		case remote != nil && remote.UpdatedAt.After(localTime):
			// Last-writer-wins: newer remote blob replaces local state
			remoteState, remoteMigrated := migration.EnsureWorkspaceState(remote.Payload)
			st = remoteState
			migrated = migrated || remoteMigrated
			adoptedRemote = true
			// The remote blob is authoritative now, even over an unreadable
			// local row
			localUnread = false
		default:
			// Local is authoritative; push it out, best effort
			if !localUnread {
				c.pushRemoteAsync(st, time.Now().UTC())
			}
		}
	}

	c.mu.Lock()
	c.st = st
	c.status.Migrated = migrated
	c.holdWrites = localUnread
	c.mu.Unlock()

	if migrated && c.metrics != nil {
		c.metrics.MigrationsTotal.Inc()
	}
	// An upgraded or remotely adopted state goes back to the local store so
	// the snapshot does not stay stale until the next mutation
	if migrated || adoptedRemote {
		c.scheduleWrite()
	}
	return nil
}

// State returns the canonical state. State values are immutable by
// convention: every mutation produces a new value, so no copy is needed.
func (c *Controller) State() domain.WorkspaceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// Status returns the current sync status
func (c *Controller) Status() SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Subscribe registers a subscriber for new state values and returns an
// unsubscribe function
func (c *Controller) Subscribe(fn Subscriber) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Apply runs one mutation command against the canonical state. The effect is
// synchronous and immediately visible; durability is eventual via the
// debounced write. A failed mutation leaves state, history, and schedules
// untouched. A non-empty coalesceKey lets rapid edits to the same logical
// field share one undo step.
func (c *Controller) Apply(command, coalesceKey string, mutate func(domain.WorkspaceState) (domain.WorkspaceState, error)) error {
	c.mu.Lock()
	next, err := mutate(c.st)
	if c.metrics != nil {
		c.metrics.RecordMutation(command, err)
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}
	next, _ = state.Normalize(next)
	c.hist.Record(c.st, coalesceKey)
	c.setStateLocked(next)
	subs := c.snapshotSubs()
	c.mu.Unlock()

	c.notify(subs, next)
	return nil
}

// Undo steps the canonical state back one history entry; no-op when the undo
// stack is empty
func (c *Controller) Undo() bool {
	c.mu.Lock()
	prev, ok := c.hist.Undo(c.st)
	if !ok {
		c.mu.Unlock()
		return false
	}
	if c.metrics != nil {
		c.metrics.UndoTotal.Inc()
	}
	c.setStateLocked(prev)
	subs := c.snapshotSubs()
	c.mu.Unlock()

	c.notify(subs, prev)
	return true
}

// Redo reapplies the most recently undone state; no-op when the redo stack is
// empty
func (c *Controller) Redo() bool {
	c.mu.Lock()
	next, ok := c.hist.Redo(c.st)
	if !ok {
		c.mu.Unlock()
		return false
	}
	if c.metrics != nil {
		c.metrics.RedoTotal.Inc()
	}
	c.setStateLocked(next)
	subs := c.snapshotSubs()
	c.mu.Unlock()

	c.notify(subs, next)
	return true
}

// CanUndo reports whether an undo step is available
func (c *Controller) CanUndo() bool { return c.hist.CanUndo() }

// CanRedo reports whether a redo step is available
func (c *Controller) CanRedo() bool { return c.hist.CanRedo() }

// SaveNow flushes the pending write immediately, outside the debounce
// cadence. It does not touch the undo/redo stacks.
func (c *Controller) SaveNow(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	return c.flush(ctx)
}

// Retry re-attempts persistence after a sync failure. Called by the retry job
// and harmless when there is nothing to do.
func (c *Controller) Retry(ctx context.Context) {
	c.mu.Lock()
	errored := c.status.Error != ""
	c.mu.Unlock()
	if !errored {
		return
	}
	c.mu.Lock()
	c.status.Pending = true
	c.mu.Unlock()
	if err := c.flush(ctx); err != nil {
		c.logger.Warn("Sync retry failed", zap.Error(err))
	}
}

// Close flushes pending work and stops the controller
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	err := c.flush(ctx)
	c.wg.Wait()
	return err
}

// setStateLocked installs a new canonical state and schedules its durable
// write; c.mu must be held
func (c *Controller) setStateLocked(next domain.WorkspaceState) {
	c.st = next
	c.status.Pending = true
	if c.metrics != nil {
		c.metrics.HistoryDepth.Set(float64(c.hist.Depth()))
	}
	c.resetTimerLocked()
}

// resetTimerLocked restarts the debounce timer so durable writes observe only
// the latest state, never an intermediate one; c.mu must be held
func (c *Controller) resetTimerLocked() {
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		if err := c.flush(context.Background()); err != nil {
			c.logger.Warn("Debounced flush failed", zap.Error(err))
		}
	})
}

func (c *Controller) scheduleWrite() {
	c.mu.Lock()
	c.status.Pending = true
	c.resetTimerLocked()
	c.mu.Unlock()
}

func (c *Controller) snapshotSubs() []Subscriber {
	subs := make([]Subscriber, 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (c *Controller) notify(subs []Subscriber, st domain.WorkspaceState) {
	for _, fn := range subs {
		fn(st)
	}
}

// flush serializes the canonical state and writes it to the local store, then
// pushes it to the remote store. Remote failure surfaces in SyncStatus but
// never blocks or reverts local durability.
func (c *Controller) flush(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if !c.status.Pending {
		c.mu.Unlock()
		return nil
	}
	st := c.st
	held := c.holdWrites
	c.status.Pending = false
	c.mu.Unlock()

	if held && c.snapshots != nil {
		recovered, err := c.recoverHeldSnapshot(ctx)
		if err != nil {
			c.mu.Lock()
			c.status.Pending = true
			c.mu.Unlock()
			return err
		}
		if recovered {
			return nil
		}
		st = c.State()
	}

	payload, err := json.Marshal(st)
	if err != nil {
		c.setError("failed to serialize state: " + err.Error())
		return err
	}
	updatedAt := time.Now().UTC()

	if c.snapshots != nil {
		if err := c.snapshots.Save(ctx, c.storageKey(), payload, updatedAt); err != nil {
			c.setError("local write failed: " + err.Error())
			return err
		}
		if c.metrics != nil {
			c.metrics.LocalWritesTotal.Inc()
		}
	}

	if c.remote != nil && c.userID != "" {
		if err := c.remote.Push(ctx, c.userID, payload, updatedAt); err != nil {
			c.setError("remote write failed: " + err.Error())
			if c.metrics != nil {
				c.metrics.SyncErrorsTotal.Inc()
			}
			// Local durability succeeded; remote is eventually consistent
			return nil
		}
	}

	c.clearError()
	return nil
}

// recoverHeldSnapshot re-reads the local store after a failed startup read.
// While the store stays unreadable nothing is persisted. Once readable, a
// session with no edits adopts the stored snapshot (reported recovered=true,
// nothing to write); a session with live edits is the last writer and flush
// proceeds with it.
func (c *Controller) recoverHeldSnapshot(ctx context.Context) (bool, error) {
	snapshot, err := c.snapshots.Load(ctx, c.storageKey())
	switch {
	case err == nil:
		st, migrated := migration.EnsureWorkspaceState(snapshot.Payload)
		c.mu.Lock()
		c.holdWrites = false
		if c.hist.Depth() == 0 && !c.hist.CanRedo() {
			c.st = st
			c.status.Migrated = c.status.Migrated || migrated
			subs := c.snapshotSubs()
			c.mu.Unlock()
			c.clearError()
			c.notify(subs, st)
			return true, nil
		}
		c.mu.Unlock()
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Nothing stored after all; safe to start writing
		c.mu.Lock()
		c.holdWrites = false
		c.mu.Unlock()
		return false, nil
	default:
		c.setError("local read failed: " + err.Error())
		return false, err
	}
}

func (c *Controller) pushRemoteAsync(st domain.WorkspaceState, updatedAt time.Time) {
	payload, err := json.Marshal(st)
	if err != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.remote.Push(ctx, c.userID, payload, updatedAt); err != nil {
			c.setError("remote write failed: " + err.Error())
			if c.metrics != nil {
				c.metrics.SyncErrorsTotal.Inc()
			}
		}
	}()
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.status.Error = msg
	c.mu.Unlock()
}

func (c *Controller) clearError() {
	c.mu.Lock()
	c.status.Error = ""
	c.mu.Unlock()
}
