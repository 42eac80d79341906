package weakref

import (
	"fmt"
	"reflect"
	"runtime"
	"unsafe"
	"weak"
)

// Ref is a weak reference to a single target.
//
// Deref returns the target and true while it is live, and (nil, false) once it
// has been reclaimed. A Ref must not keep its target alive unless it was
// produced by the [Strong] weakener.
type Ref interface {
	Deref() (any, bool)
}

// Weakener wraps reference-typed targets into [Ref] values.
type Weakener interface {
	// Wrap returns a weak reference to target. target is always a value for
	// which [IsReference] reports true.
	Wrap(target any) Ref
}

// Runtime is the default [Weakener]. It is backed by the weak package and
// never extends the lifetime of its targets.
type Runtime struct{}

// Wrap implements [Weakener].
func (Runtime) Wrap(target any) Ref {
	if !IsReference(target) {
		return strongRef{target: target}
	}

	return runtimeRef(identityOf(target))
}

// Strong is the best-effort [Weakener]: it holds every target strongly, so
// nothing is ever reclaimed and collections built on it behave like ordinary
// ordered sets and maps. It must be selected explicitly.
type Strong struct{}

// Wrap implements [Weakener].
func (Strong) Wrap(target any) Ref {
	return strongRef{target: target}
}

type strongRef struct {
	target any
}

func (r strongRef) Deref() (any, bool) {
	return r.target, true
}

// identity is the registry key of a reference-typed value. Two weak pointers
// made from the same address compare equal even after the object is gone,
// and never equal a weak pointer to a later object at the same address. The
// pointer type disambiguates a struct from its first field.
type identity struct {
	typ reflect.Type
	ptr weak.Pointer[byte]
}

func identityOf(v any) identity {
	rv := reflect.ValueOf(v)

	return identity{
		typ: rv.Type(),
		ptr: weak.Make((*byte)(rv.UnsafePointer())),
	}
}

func (id identity) live() bool {
	return id.ptr.Value() != nil
}

// runtimeRef rebuilds the original pointer from its address and type.
type runtimeRef identity

func (r runtimeRef) Deref() (any, bool) {
	p := r.ptr.Value()
	if p == nil {
		return nil, false
	}

	return reflect.NewAt(r.typ.Elem(), unsafe.Pointer(p)).Convert(r.typ).Interface(), true
}

// IsReference reports whether v is held weakly: a non-nil pointer to a type of
// non-zero size. Pointers to zero-size types all share one address and are
// never reclaimed, so they are treated as primitives.
func IsReference(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem().Size() > 0
}

// mustClassify reports whether v is reference-typed and panics if v is
// neither a reference nor comparable.
func mustClassify(v any) bool {
	if IsReference(v) {
		return true
	}

	if v != nil && !reflect.ValueOf(v).Comparable() {
		panic(fmt.Errorf("%w: %T", ErrUnhashable, v))
	}

	return false
}

// OnReclaim arranges for fn to run once v has been reclaimed. It reports false,
// and does nothing, when v is not reference-typed.
//
// fn runs on a runtime goroutine, at some unspecified time after v became
// unreachable, and possibly never. fn must not reference v, or v will never be
// reclaimed.
func OnReclaim(v any, fn func()) bool {
	if !IsReference(v) {
		return false
	}

	runtime.AddCleanup((*byte)(reflect.ValueOf(v).UnsafePointer()), runCleanup, fn)

	return true
}

func runCleanup(fn func()) {
	fn()
}
