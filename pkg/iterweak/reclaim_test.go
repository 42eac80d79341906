package iterweak_test

import (
	"slices"
	"testing"
	"unique"
	"weak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/iterweak/pkg/iterweak"
	"github.com/calvinalkan/iterweak/pkg/weakref"
)

// These tests rely on the real garbage collector. Every object that must
// become garbage is allocated in a non-inlined helper, so no test frame keeps
// it reachable.

//go:noinline
func newScenarioSet(t *testing.T, opts iterweak.Options) *iterweak.Set[any] {
	obj := &object{name: "a"}
	fn := &callback{fn: func() {}}

	s := iterweak.NewSetWithOptions[any](opts, 1, "foo", obj, nil, unique.Make("bar"), fn)

	require.Equal(t, 6, s.Len(), "all members reachable")
	require.True(t, s.Has(obj))
	require.True(t, s.Has(fn))

	return s
}

//go:noinline
func addGarbage(s *iterweak.Set[*object], n int) {
	for i := range n {
		s.Add(&object{name: string(rune('a' + i))})
	}
}

//go:noinline
func setGarbageKey(m *iterweak.Map[*object, *object]) weak.Pointer[object] {
	v := &object{name: "value"}
	m.Set(&object{name: "key"}, v)

	return weak.Make(v)
}

//go:noinline
func setGarbageValue(m *iterweak.Map[*object, *object], k *object) weak.Pointer[object] {
	v := &object{name: "value"}
	m.Set(k, v)

	return weak.Make(v)
}

// dropStrongSet fills a best-effort set and lets it, and its registry, go out
// of scope.
//
//go:noinline
func dropStrongSet(eager bool) weak.Pointer[object] {
	obj := &object{name: "member"}
	opts := iterweak.Options{Registry: weakref.NewRegistry(weakref.Strong{}), EagerEviction: eager}

	s := iterweak.NewSetWithOptions[*object](opts, obj)
	if !s.Has(obj) {
		panic("member missing from strong set")
	}

	return weak.Make(obj)
}

func Test_Set_Drops_Objects_When_Scenario_Members_Become_Unreachable(t *testing.T) {
	s := newScenarioSet(t, iterweak.Options{Registry: weakref.NewRegistry(nil)})

	collectUntil(t, func() bool { return s.Len() == 4 })

	assert.Equal(t, []any{1, "foo", nil, unique.Make("bar")}, slices.Collect(s.Values()))
	assert.Equal(t, 4, s.Slots())
}

func Test_Set_Keeps_Object_When_Still_Referenced(t *testing.T) {
	s := iterweak.NewSet[*object]()
	keep := &object{name: "keep"}

	s.Add(keep)
	addGarbage(s, 3)

	collectUntil(t, func() bool { return s.Len() == 1 })

	assert.True(t, s.Has(keep))
	assert.Equal(t, []string{"keep"}, names(s.Values()))
}

func Test_Set_Evicts_Without_Enumeration_When_Eager_Eviction_Enabled(t *testing.T) {
	s := iterweak.NewSetWithOptions[*object](iterweak.Options{EagerEviction: true})

	addGarbage(s, 3)
	require.Equal(t, 3, s.Slots())

	// Slots never evicts; only the cleanups can shrink it.
	collectUntil(t, func() bool { return s.Slots() == 0 })
}

func Test_Map_Releases_Value_When_Key_Reclaimed(t *testing.T) {
	m := iterweak.NewMap[*object, *object]()
	value := setGarbageKey(m)

	collectUntil(t, func() bool { return m.Len() == 0 })
	collectUntil(t, func() bool { return value.Value() == nil })

	assert.Equal(t, 0, m.Slots())
}

func Test_Map_Releases_Value_When_Key_Forced_Stale(t *testing.T) {
	opts, reg := forcedOptions()
	m := iterweak.NewMapWithOptions[*object, *object](opts)
	k := &object{name: "key"}

	value := setGarbageValue(m, k)
	require.NotNil(t, value.Value(), "value is strongly held while its key is live")

	mustReclaim(t, reg, k)

	_, ok := m.Get(k)
	require.False(t, ok)

	collectUntil(t, func() bool { return value.Value() == nil })
}

func Test_Set_Releases_Members_When_Strong_Collection_Dropped(t *testing.T) {
	for _, eager := range []bool{false, true} {
		member := dropStrongSet(eager)

		collectUntil(t, func() bool { return member.Value() == nil })
	}
}
