package iterweak

import "github.com/calvinalkan/iterweak/pkg/weakref"

// Options configure a [Set] or [Map].
type Options struct {
	// Registry resolves members to weak handles. Collections sharing a
	// registry share handles. Nil selects [weakref.Default].
	//
	// A registry built with [weakref.Strong] turns the collection into an
	// ordinary ordered set or map (best-effort mode).
	Registry *weakref.Registry

	// EagerEviction additionally evicts a slot from a runtime cleanup once its
	// target is reclaimed, instead of waiting for the next read or
	// enumeration to find it stale. Cleanup timing is up to the runtime.
	EagerEviction bool
}

func (opts Options) registry() *weakref.Registry {
	if opts.Registry == nil {
		return weakref.Default()
	}

	return opts.Registry
}
