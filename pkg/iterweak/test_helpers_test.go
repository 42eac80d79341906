package iterweak_test

import (
	"iter"
	"runtime"
	"testing"
	"time"

	"github.com/calvinalkan/iterweak/pkg/iterweak"
	"github.com/calvinalkan/iterweak/pkg/weakref"
	"github.com/calvinalkan/iterweak/pkg/weakref/weakreftest"
)

// object has a pointer field so the runtime never tiny-allocates it.
type object struct {
	name string
	next *object
}

// callback stands in for a callable member: funcs are held through a pointer.
type callback struct {
	fn func()
}

func newObject(name string) *object {
	return &object{name: name}
}

// forcedOptions returns options whose registry lets tests force reclamation.
func forcedOptions() (iterweak.Options, *weakref.Registry) {
	reg := weakreftest.NewRegistry()

	return iterweak.Options{Registry: reg}, reg
}

func mustReclaim(t *testing.T, reg *weakref.Registry, v any) {
	t.Helper()

	if !weakreftest.Reclaim(reg, v) {
		t.Fatalf("no forceable handle for %v", v)
	}
}

func names(seq iter.Seq[*object]) []string {
	var out []string

	for obj := range seq {
		out = append(out, obj.name)
	}

	return out
}

// collectUntil runs the garbage collector until done reports true or the
// deadline passes. Cleanups run on their own goroutine, hence the sleep.
func collectUntil(t *testing.T, done func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)

	for !done() {
		if time.Now().After(deadline) {
			t.Fatal("garbage was not collected in time")
		}

		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
}
