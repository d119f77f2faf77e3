// Package fetch scopes backend requests to the UI surface that wants them.
// A Slot holds at most one active key; replacing or clearing the key
// cancels the in-flight request and marks its result stale.
package fetch

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrStale is returned when the slot moved to another key (or was
	// closed) before the request finished.
	ErrStale = errors.New("fetch superseded")
	// ErrDisabled is returned for an empty key: nothing is fetched.
	ErrDisabled = errors.New("fetch disabled")
)

type Slot struct {
	mu     sync.Mutex
	key    string
	gen    uint64
	cancel context.CancelFunc
}

// Key returns the active key, or "" when the slot is closed.
func (s *Slot) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// open installs key as active and cancels whatever was running before.
func (s *Slot) open(parent context.Context, key string) (context.Context, context.CancelFunc, uint64) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.key = key
	s.cancel = cancel
	return ctx, cancel, s.gen
}

// current reports whether gen is still the active generation.
func (s *Slot) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// Close disables the slot. In-flight requests are cancelled and their
// results discarded.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.key = ""
}

// Do runs fn under key. Calling Do again (with any key) or Close while fn
// runs cancels fn's context, and this call returns ErrStale even if fn
// managed to finish.
func Do[T any](ctx context.Context, s *Slot, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if key == "" {
		s.Close()
		return zero, ErrDisabled
	}

	fctx, cancel, gen := s.open(ctx, key)
	v, err := fn(fctx)
	cancel()
	if !s.current(gen) {
		return zero, ErrStale
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}

// Registry hands out one Slot per viewer.
type Registry struct {
	mu    sync.Mutex
	slots map[string]*Slot
}

func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*Slot)}
}

func (r *Registry) Slot(viewer string) *Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[viewer]
	if !ok {
		s = &Slot{}
		r.slots[viewer] = s
	}
	return s
}

// Close closes the viewer's slot if it exists.
func (r *Registry) Close(viewer string) {
	r.mu.Lock()
	s, ok := r.slots[viewer]
	if ok {
		delete(r.slots, viewer)
	}
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}
