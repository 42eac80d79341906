package iterweak_test

import (
	"fmt"
	"runtime"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/iterweak/pkg/iterweak"
	"github.com/calvinalkan/iterweak/pkg/weakref/weakreftest"
)

const (
	modelObjects    = 6
	modelPrimitives = 3
)

// setModel is an ordered set where reclaiming a member is the same as
// deleting it.
type setModel struct {
	members []any
}

func (m *setModel) add(v any) {
	if !slices.Contains(m.members, v) {
		m.members = append(m.members, v)
	}
}

func (m *setModel) remove(v any) bool {
	i := slices.Index(m.members, v)
	if i < 0 {
		return false
	}

	m.members = slices.Delete(m.members, i, i+1)

	return true
}

func (m *setModel) has(v any) bool {
	return slices.Contains(m.members, v)
}

func label(v any) string {
	if obj, ok := v.(*object); ok {
		return obj.name
	}

	return fmt.Sprint(v)
}

func labels(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, label(v))
	}

	return out
}

// FuzzSet_Matches_Model_When_Random_Ops_Applied decodes fuzz bytes into
// add/delete/has/reclaim/enumerate operations and checks every result against
// an ordered-set model.
func FuzzSet_Matches_Model_When_Random_Ops_Applied(f *testing.F) {
	f.Add([]byte{0x00, 0x01, 0x02, 0x03, 0x04})
	f.Add([]byte{0x00, 0x10, 0x20, 0x03, 0x13, 0x04, 0x00, 0x04})
	f.Add([]byte("iterweak"))

	f.Fuzz(func(t *testing.T, data []byte) {
		pool := make([]any, 0, modelObjects+modelPrimitives)
		for i := range modelObjects {
			pool = append(pool, newObject(fmt.Sprintf("o%d", i)))
		}

		for i := range modelPrimitives {
			pool = append(pool, i)
		}

		reg := weakreftest.NewRegistry()
		s := iterweak.NewSetWithOptions[any](iterweak.Options{Registry: reg})
		model := &setModel{}

		for step, b := range data {
			v := pool[int(b>>3)%len(pool)]

			switch b % 5 {
			case 0:
				s.Add(v)
				model.add(v)
			case 1:
				if got, want := s.Delete(v), model.remove(v); got != want {
					t.Fatalf("step %d: Delete(%s) = %v, model %v", step, label(v), got, want)
				}
			case 2:
				if got, want := s.Has(v), model.has(v); got != want {
					t.Fatalf("step %d: Has(%s) = %v, model %v", step, label(v), got, want)
				}
			case 3:
				if weakreftest.Reclaim(reg, v) {
					model.remove(v)
				}
			case 4:
				got := labels(slices.Collect(s.Values()))
				if diff := cmp.Diff(labels(model.members), got); diff != "" {
					t.Fatalf("step %d: Values mismatch (-model +set):\n%s", step, diff)
				}

				if s.Slots() != len(model.members) {
					t.Fatalf("step %d: %d slots after full pass, want %d", step, s.Slots(), len(model.members))
				}
			}
		}

		if got, want := s.Len(), len(model.members); got != want {
			t.Fatalf("Len = %d, model %d", got, want)
		}

		// only forced reclamation may happen
		runtime.KeepAlive(pool)
	})
}
