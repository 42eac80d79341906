package iterweak

import "iter"

// Set is an insertion-ordered set that holds pointer members weakly.
//
// The zero value is not usable; create sets with [NewSet] or
// [NewSetWithOptions].
type Set[T any] struct {
	st *store[struct{}]
}

// NewSet returns a set holding values, with default [Options]. Duplicates
// collapse.
func NewSet[T any](values ...T) *Set[T] {
	return NewSetWithOptions(Options{}, values...)
}

// NewSetWithOptions returns a set configured by opts holding values.
func NewSetWithOptions[T any](opts Options, values ...T) *Set[T] {
	s := &Set[T]{st: newStore[struct{}](opts)}

	for _, v := range values {
		s.Add(v)
	}

	return s
}

// Add inserts v unless it is already present and returns the set.
func (s *Set[T]) Add(v T) *Set[T] {
	s.st.put(v, struct{}{}, false)

	return s
}

// Has reports whether v is a live member.
func (s *Set[T]) Has(v T) bool {
	_, ok := s.st.find(v)

	return ok
}

// Delete removes v and reports whether it was a live member.
func (s *Set[T]) Delete(v T) bool {
	return s.st.remove(v)
}

// Clear removes every member.
func (s *Set[T]) Clear() {
	s.st.clear()
}

// Len returns the number of live members. It walks the whole set, evicting
// stale slots on the way.
func (s *Set[T]) Len() int {
	return s.st.count()
}

// Slots returns the number of backing slots, including stale slots that no
// enumeration has evicted yet.
func (s *Set[T]) Slots() int {
	return s.st.physical()
}

// Values returns the live members in insertion order. Each call starts a new
// pass.
func (s *Set[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		s.st.live(func(member any, _ struct{}) bool {
			v, _ := member.(T)

			return yield(v)
		})
	}
}

// Keys is an alias for [Set.Values].
func (s *Set[T]) Keys() iter.Seq[T] {
	return s.Values()
}

// All is the default iteration of a set, same as [Set.Values].
func (s *Set[T]) All() iter.Seq[T] {
	return s.Values()
}

// Entries yields every live member as a (member, member) pair.
func (s *Set[T]) Entries() iter.Seq2[T, T] {
	return func(yield func(T, T) bool) {
		for v := range s.Values() {
			if !yield(v, v) {
				return
			}
		}
	}
}

// ForEach calls fn for every live member in insertion order.
func (s *Set[T]) ForEach(fn func(v T)) {
	for v := range s.Values() {
		fn(v)
	}
}
