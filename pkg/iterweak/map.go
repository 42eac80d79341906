package iterweak

import "iter"

// Entry is a key/value pair used to seed a [Map].
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Map is an insertion-ordered map that holds pointer keys weakly. Values are
// held strongly for as long as their key is live; evicting a key drops its
// value.
//
// The zero value is not usable; create maps with [NewMap] or
// [NewMapWithOptions].
type Map[K, V any] struct {
	st *store[V]
}

// NewMap returns a map holding entries, with default [Options]. For
// duplicate keys the last entry wins.
func NewMap[K, V any](entries ...Entry[K, V]) *Map[K, V] {
	return NewMapWithOptions(Options{}, entries...)
}

// NewMapWithOptions returns a map configured by opts holding entries.
func NewMapWithOptions[K, V any](opts Options, entries ...Entry[K, V]) *Map[K, V] {
	m := &Map[K, V]{st: newStore[V](opts)}

	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}

	return m
}

// Set stores v under k and returns the map. Overwriting a live key keeps its
// position.
func (m *Map[K, V]) Set(k K, v V) *Map[K, V] {
	m.st.put(k, v, true)

	return m
}

// Get returns the value stored under k, or false if k is not a live key.
func (m *Map[K, V]) Get(k K) (V, bool) {
	return m.st.find(k)
}

// Has reports whether k is a live key.
func (m *Map[K, V]) Has(k K) bool {
	_, ok := m.st.find(k)

	return ok
}

// Delete removes k and reports whether it was a live key.
func (m *Map[K, V]) Delete(k K) bool {
	return m.st.remove(k)
}

// Clear removes every entry.
func (m *Map[K, V]) Clear() {
	m.st.clear()
}

// Len returns the number of live keys. It walks the whole map, evicting stale
// slots on the way.
func (m *Map[K, V]) Len() int {
	return m.st.count()
}

// Slots returns the number of backing slots, including stale slots that no
// enumeration has evicted yet.
func (m *Map[K, V]) Slots() int {
	return m.st.physical()
}

// All yields the live entries in insertion order. It is the default
// iteration of a map.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.st.live(func(member any, v V) bool {
			k, _ := member.(K)

			return yield(k, v)
		})
	}
}

// Entries is an alias for [Map.All].
func (m *Map[K, V]) Entries() iter.Seq2[K, V] {
	return m.All()
}

// Keys yields the live keys in insertion order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values yields the values of live keys in insertion order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// ForEach calls fn for every live entry in insertion order.
func (m *Map[K, V]) ForEach(fn func(k K, v V)) {
	for k, v := range m.All() {
		fn(k, v)
	}
}
