// Package weakref maps reference-typed values to canonical weak handles.
//
// A [Registry] hands out exactly one [*Handle] per distinct pointer identity.
// The registry is a side table keyed by weak pointers: it never keeps the
// values it describes alive, and its entries disappear once their target is
// reclaimed.
//
// # Value model
//
// A value is reference-typed when it is a non-nil pointer to a type of
// non-zero size. Such values are compared by identity and held weakly.
// Everything else that is comparable (numbers, strings, bools, nil, structs,
// channels, [unique.Handle] symbols, pointers to zero-size types) is a
// primitive: it is compared with == and returned unchanged by [Registry.Resolve].
//
// Func, slice and map values are not comparable and cannot be held weakly.
// Passing one panics with an error wrapping [ErrUnhashable]. To hold a
// callable weakly, store a pointer to it.
//
// # Basic Usage
//
//	reg := weakref.NewRegistry(nil)
//
//	key := reg.Resolve(obj)         // *Handle for pointers, obj itself otherwise
//	key2, ok := reg.Lookup(obj)     // never creates a handle
//	live, ok := reg.Deref(key)      // obj, true until obj is reclaimed
//	stale := reg.IsStale(key)       // true once obj is reclaimed
//
// # Weakeners
//
// The weak primitive is pluggable through [Weakener]. [Runtime] is the
// default and uses the standard weak package. [Strong] is the explicit
// best-effort mode: targets are held strongly and never reclaimed. The
// weakreftest package provides references whose reclamation can be forced.
package weakref
