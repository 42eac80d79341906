// Package weakreftest provides weak references whose reclamation can be
// forced, so tests can simulate the garbage collector deterministically.
package weakreftest

import (
	"sync/atomic"

	"github.com/calvinalkan/iterweak/pkg/weakref"
)

// Weakener wraps [weakref.Runtime]. The references it returns behave like
// runtime weak references until [Ref.Reclaim] is called.
type Weakener struct{}

// Wrap implements [weakref.Weakener].
func (Weakener) Wrap(target any) weakref.Ref {
	return &Ref{inner: weakref.Runtime{}.Wrap(target)}
}

// Ref is a weak reference that can be forced to report its target as gone.
type Ref struct {
	inner     weakref.Ref
	reclaimed atomic.Bool
}

// Deref implements [weakref.Ref].
func (r *Ref) Deref() (any, bool) {
	if r.reclaimed.Load() {
		return nil, false
	}

	return r.inner.Deref()
}

// Reclaim makes every later Deref report the target as gone.
func (r *Ref) Reclaim() {
	r.reclaimed.Store(true)
}

// NewRegistry returns a registry backed by [Weakener].
func NewRegistry() *weakref.Registry {
	return weakref.NewRegistry(Weakener{})
}

// Reclaim forces the handle of v in reg stale. It reports false if v has no
// handle in reg or the handle was not produced by [Weakener].
func Reclaim(reg *weakref.Registry, v any) bool {
	x, ok := reg.Lookup(v)
	if !ok {
		return false
	}

	h, ok := x.(*weakref.Handle)
	if !ok {
		return false
	}

	ref, ok := h.Ref().(*Ref)
	if !ok {
		return false
	}

	ref.Reclaim()

	return true
}
