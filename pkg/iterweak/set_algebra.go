package iterweak

import "iter"

// Collection is the read side of a set. [*Set] implements it.
type Collection[T any] interface {
	Has(v T) bool
	Values() iter.Seq[T]
}

// derive returns an empty set with the receiver's options and registry.
func (s *Set[T]) derive() *Set[T] {
	return NewSetWithOptions[T](s.st.opts)
}

// Union returns a new set with the live members of s followed by the members
// of other.
func (s *Set[T]) Union(other Collection[T]) *Set[T] {
	out := s.derive()

	for v := range s.Values() {
		out.Add(v)
	}

	for v := range other.Values() {
		out.Add(v)
	}

	return out
}

// Intersection returns a new set with the live members of s that other has.
func (s *Set[T]) Intersection(other Collection[T]) *Set[T] {
	out := s.derive()

	for v := range s.Values() {
		if other.Has(v) {
			out.Add(v)
		}
	}

	return out
}

// Difference returns a new set with the live members of s that other lacks.
func (s *Set[T]) Difference(other Collection[T]) *Set[T] {
	out := s.derive()

	for v := range s.Values() {
		if !other.Has(v) {
			out.Add(v)
		}
	}

	return out
}

// SymmetricDifference returns a new set with the members found in exactly one
// of s and other.
func (s *Set[T]) SymmetricDifference(other Collection[T]) *Set[T] {
	out := s.Difference(other)

	for v := range other.Values() {
		if !s.Has(v) {
			out.Add(v)
		}
	}

	return out
}

// IsSubsetOf reports whether every live member of s is in other.
func (s *Set[T]) IsSubsetOf(other Collection[T]) bool {
	for v := range s.Values() {
		if !other.Has(v) {
			return false
		}
	}

	return true
}

// IsSupersetOf reports whether every member of other is in s.
func (s *Set[T]) IsSupersetOf(other Collection[T]) bool {
	for v := range other.Values() {
		if !s.Has(v) {
			return false
		}
	}

	return true
}

// IsDisjointFrom reports whether s and other share no member.
func (s *Set[T]) IsDisjointFrom(other Collection[T]) bool {
	for v := range s.Values() {
		if other.Has(v) {
			return false
		}
	}

	return true
}
