// Package iterweak provides an iterable weak set and an iterable weak map.
//
// Adding a pointer to a [Set] (or using it as a [Map] key) does not keep it
// alive. Once nothing else references it, the garbage collector may reclaim
// it and the collection silently loses it. Primitive values (numbers,
// strings, nil, structs, [unique.Handle] symbols, ...) are held by value and
// never disappear. See package weakref for the exact value model.
//
// # Basic Usage
//
//	s := iterweak.NewSet[any](1, "foo", obj)
//	s.Has(obj)  // true while obj is reachable
//	s.Len()     // live entries only
//
//	for v := range s.All() {
//	    // live values in insertion order
//	}
//
//	m := iterweak.NewMap[*Node, string]()
//	m.Set(node, "label")   // label lives as long as node does
//	label, ok := m.Get(node)
//
// # Eviction
//
// A slot whose target was reclaimed is stale. Stale slots are never reported:
// [Set.Has], [Map.Get], [Map.Has] and Delete check staleness themselves and
// evict the slot on the spot. Every enumeration (All, Values, Keys, Len,
// ForEach and the set algebra) evicts the stale slots it walks over. There is
// no background sweep unless [Options.EagerEviction] is set, and even then
// the lazy eviction above remains the source of truth.
//
// # Concurrency
//
// Sets and maps are safe for concurrent use. No lock is held while an
// iterator's consumer or a ForEach callback runs, so those may mutate the
// collection they are iterating. A slot removed mid-pass is skipped; slots
// added mid-pass are visited.
//
// # Unhashable values
//
// Func, slice and map values cannot be members. Passing one panics with an
// error wrapping [weakref.ErrUnhashable].
package iterweak
