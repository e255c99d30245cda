package controller

import (
	"context"
	"sync"
)

// Factory builds a controller for one identity. userID is empty for the
// anonymous local-only controller.
type Factory func(userID string) *Controller

// registryEntry holds one identity's controller behind a once, so every
// caller for that identity waits until the initial Load has completed before
// the controller is observable.
type registryEntry struct {
	once sync.Once
	c    *Controller
	err  error
}

// Registry hands out one controller per signed-in identity, loading state on
// first use. The single-writer model holds per identity; the registry only
// routes.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	entries map[string]*registryEntry
}

// NewRegistry creates a controller registry
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		entries: map[string]*registryEntry{},
	}
}

// Get returns the controller for userID, creating and loading it on first
// use. Concurrent first touches for the same identity share one Load and all
// block until it finishes, so no caller ever sees pre-load zero-value state.
func (r *Registry) Get(ctx context.Context, userID string) (*Controller, error) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = &registryEntry{}
		r.entries[userID] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		c := r.factory(userID)
		if err := c.Load(ctx); err != nil {
			e.err = err
			return
		}
		e.c = c
	})

	if e.err != nil {
		// Drop the failed entry so a later request retries the load
		r.mu.Lock()
		if r.entries[userID] == e {
			delete(r.entries, userID)
		}
		r.mu.Unlock()
		return nil, e.err
	}
	return e.c, nil
}

// Each calls fn for every loaded controller
func (r *Registry) Each(fn func(userID string, c *Controller)) {
	r.mu.Lock()
	snapshot := make(map[string]*Controller, len(r.entries))
	for id, e := range r.entries {
		if e.c != nil {
			snapshot[id] = e.c
		}
	}
	r.mu.Unlock()
	for id, c := range snapshot {
		fn(id, c)
	}
}

// CloseAll flushes and stops every controller
func (r *Registry) CloseAll(ctx context.Context) {
	r.Each(func(_ string, c *Controller) {
		_ = c.Close(ctx)
	})
}
