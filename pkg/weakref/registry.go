package weakref

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"weak"
)

// minSweepThreshold is the table size below which Resolve never sweeps.
const minSweepThreshold = 64

// Handle is the canonical weak handle of one reference-typed value within a
// [Registry]. Handles are compared by pointer identity and are safe to use as
// map keys. A Handle never keeps its target alive (unless it was created by
// the [Strong] weakener).
type Handle struct {
	id  identity
	ref Ref
}

// Value returns the target, or (nil, false) once it has been reclaimed.
func (h *Handle) Value() (any, bool) {
	return h.ref.Deref()
}

// Stale reports whether the target has been reclaimed.
func (h *Handle) Stale() bool {
	_, ok := h.ref.Deref()

	return !ok
}

// Ref returns the weak reference produced by the registry's [Weakener].
func (h *Handle) Ref() Ref {
	return h.ref
}

func (h *Handle) String() string {
	if h.Stale() {
		return fmt.Sprintf("Handle(%s, reclaimed)", h.id.typ)
	}

	return fmt.Sprintf("Handle(%s)", h.id.typ)
}

// Registry maps reference identities to their canonical [*Handle].
//
// It is safe for concurrent use. Handle creation is check-then-create under a
// single lock, so concurrent resolves of the same value converge on one handle.
type Registry struct {
	weakener Weakener
	mu       struct {
		sync.Mutex
		handles map[identity]*Handle
		sweepAt int
	}
}

var defaultRegistry = NewRegistry(nil)

// Default returns the process-wide shared registry, backed by [Runtime].
func Default() *Registry {
	return defaultRegistry
}

// NewRegistry returns an empty registry. A nil weakener selects [Runtime].
func NewRegistry(w Weakener) *Registry {
	if w == nil {
		w = Runtime{}
	}

	r := &Registry{weakener: w}
	r.mu.handles = make(map[identity]*Handle)
	r.mu.sweepAt = minSweepThreshold

	return r
}

// Resolve returns the storage representation of v: v itself for primitives,
// otherwise the handle for v's identity, created on first use.
//
// A handle whose target is gone is never handed out again; resolving its
// identity creates a fresh one.
//
// Resolve panics with an error wrapping [ErrUnhashable] if v is neither a
// reference nor comparable.
func (r *Registry) Resolve(v any) any {
	if !mustClassify(v) {
		return v
	}

	id := identityOf(v)

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.mu.handles[id]; ok && !h.Stale() {
		return h
	}

	h := &Handle{id: id, ref: r.weakener.Wrap(v)}
	r.mu.handles[id] = h

	// The cleanup must not reach r strongly: a Strong handle in r.mu.handles
	// would keep v alive, and a private registry would live as long as v.
	runtime.AddCleanup((*byte)(reflect.ValueOf(v).UnsafePointer()), forget, forgetArg{reg: weak.Make(r), id: id})

	if len(r.mu.handles) >= r.mu.sweepAt {
		r.sweepLocked()
		r.mu.sweepAt = max(minSweepThreshold, 2*len(r.mu.handles))
	}

	return h
}

// Lookup is the read-only variant of [Registry.Resolve]: for a reference it
// returns the existing handle, or false if none was ever created. Lookup never
// adds to the registry.
func (r *Registry) Lookup(v any) (any, bool) {
	if !mustClassify(v) {
		return v, true
	}

	id := identityOf(v)

	r.mu.Lock()
	h, ok := r.mu.handles[id]
	r.mu.Unlock()

	if !ok {
		return nil, false
	}

	return h, true
}

// IsStale reports whether x is a handle whose target has been reclaimed.
// It is false for primitives and for anything that is not a [*Handle].
func (r *Registry) IsStale(x any) bool {
	h, ok := x.(*Handle)
	if !ok || h == nil {
		return false
	}

	return h.Stale()
}

// Deref maps a storage representation back to its value. Primitives are
// returned unchanged; handles are dereferenced.
func (r *Registry) Deref(x any) (any, bool) {
	h, ok := x.(*Handle)
	if !ok || h == nil {
		return x, true
	}

	return h.Value()
}

// Len returns the number of entries in the registry, including entries whose
// target was reclaimed but not yet swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.mu.handles)
}

// Sweep removes entries whose target has been reclaimed and returns how many
// were removed. Cleanups normally do this on their own; Sweep covers the
// window before they run.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sweepLocked()
}

func (r *Registry) sweepLocked() int {
	removed := 0

	for id := range r.mu.handles {
		if !id.live() {
			delete(r.mu.handles, id)

			removed++
		}
	}

	return removed
}

type forgetArg struct {
	reg weak.Pointer[Registry]
	id  identity
}

func forget(arg forgetArg) {
	r := arg.reg.Value()
	if r == nil {
		return
	}

	r.mu.Lock()
	delete(r.mu.handles, arg.id)
	r.mu.Unlock()
}
