// Package history implements the bounded undo/redo stack over WorkspaceState
// snapshots.
package history

import (
	"sync"
	"time"

	"workspace-state-engine/internal/domain"
)

// DefaultDepth is the default bound on the undo stack
const DefaultDepth = 50

// DefaultCoalesceWindow is the default window within which rapid edits to the
// same logical field collapse into a single undo step
const DefaultCoalesceWindow = 750 * time.Millisecond

// Manager keeps past and undone snapshots of the workspace state. Snapshots
// are held by value, so callers must hand in immutable (deep-cloned) states.
type Manager struct {
	mu       sync.Mutex
	past     []domain.WorkspaceState
	future   []domain.WorkspaceState
	depth    int
	window   time.Duration
	lastPush time.Time
	lastKey  string
	now      func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithDepth bounds the undo stack; oldest entries are evicted beyond it
func WithDepth(depth int) Option {
	return func(m *Manager) { m.depth = depth }
}

// WithCoalesceWindow sets the edit-coalescing window
func WithCoalesceWindow(window time.Duration) Option {
	return func(m *Manager) { m.window = window }
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a history manager
func New(opts ...Option) *Manager {
	m := &Manager{
		depth:  DefaultDepth,
		window: DefaultCoalesceWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.depth < 1 {
		m.depth = 1
	}
	return m
}

// Record pushes the pre-mutation snapshot onto the undo stack and clears the
// redo stack (branching history is discarded). Two records within the
// coalescing window that carry the same non-empty key collapse into one undo
// step: the second burst edit does not push a new snapshot, so one undo jumps
// back to before the burst. Structural commands pass key "" and always push.
func (m *Manager) Record(prev domain.WorkspaceState, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	coalesce := key != "" && key == m.lastKey &&
		len(m.past) > 0 && now.Sub(m.lastPush) <= m.window
	m.lastPush = now
	m.lastKey = key
	m.future = nil
	if coalesce {
		return
	}

	m.past = append(m.past, prev)
	if len(m.past) > m.depth {
		m.past = m.past[len(m.past)-m.depth:]
	}
}

// Undo pops the most recent prior snapshot and pushes current onto the redo
// stack. The second return is false when there is nothing to undo.
func (m *Manager) Undo(current domain.WorkspaceState) (domain.WorkspaceState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.past) == 0 {
		return domain.WorkspaceState{}, false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, current)
	m.lastKey = ""
	return prev, true
}

// Redo is symmetric to Undo, using the redo stack
func (m *Manager) Redo(current domain.WorkspaceState) (domain.WorkspaceState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.future) == 0 {
		return domain.WorkspaceState{}, false
	}
	next := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, current)
	m.lastKey = ""
	return next, true
}

// CanUndo reports whether an undo step is available
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

// CanRedo reports whether a redo step is available
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}

// Depth returns the current undo stack size
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past)
}
