package iterweak

import (
	"sync"
	"weak"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/calvinalkan/iterweak/pkg/weakref"
)

// slot is one backing-store record. seq is the insertion sequence number; it
// never changes for the life of the slot, so slots are always sorted by seq.
type slot[V any] struct {
	seq uint64
	val V
}

// store is the ordered backing store shared by Set and Map. Keys are the
// registry's storage representation: a primitive value or a *weakref.Handle.
type store[V any] struct {
	opts Options
	reg  *weakref.Registry

	mu    sync.Mutex
	slots *orderedmap.OrderedMap[any, slot[V]]
	seq   uint64
}

func newStore[V any](opts Options) *store[V] {
	return &store[V]{
		opts:  opts,
		reg:   opts.registry(),
		slots: orderedmap.New[any, slot[V]](),
	}
}

// put inserts v with val. An existing slot keeps its position; its value is
// replaced only when overwrite is set.
func (st *store[V]) put(v any, val V, overwrite bool) {
	key := st.reg.Resolve(v)

	st.mu.Lock()

	if p := st.slots.GetPair(key); p != nil {
		if overwrite {
			p.Value.val = val
		}

		st.mu.Unlock()

		return
	}

	st.seq++
	st.slots.Set(key, slot[V]{seq: st.seq, val: val})

	st.mu.Unlock()

	if st.opts.EagerEviction {
		st.evictOnReclaim(v, key)
	}
}

// evictOnReclaim registers a cleanup for v. The cleanup holds the store and
// the handle weakly: a Strong handle reaches v, and a dropped collection must
// not be kept alive by its members.
func (st *store[V]) evictOnReclaim(v, key any) {
	h, ok := key.(*weakref.Handle)
	if !ok {
		return
	}

	ws, wh := weak.Make(st), weak.Make(h)

	weakref.OnReclaim(v, func() {
		st, h := ws.Value(), wh.Value()
		if st != nil && h != nil {
			st.evict(h)
		}
	})
}

func (st *store[V]) evict(key any) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.reg.IsStale(key) {
		st.slots.Delete(key)
	}
}

// find returns the value stored for v. A stale slot is evicted and reported
// as absent.
func (st *store[V]) find(v any) (V, bool) {
	var zero V

	key, ok := st.reg.Lookup(v)
	if !ok {
		return zero, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.slots.Get(key)
	if !ok {
		return zero, false
	}

	if st.reg.IsStale(key) {
		st.slots.Delete(key)

		return zero, false
	}

	return s.val, true
}

// remove deletes the slot for v. Removing a stale slot reports false: its
// member was already gone.
func (st *store[V]) remove(v any) bool {
	key, ok := st.reg.Lookup(v)
	if !ok {
		return false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.slots.Delete(key); !ok {
		return false
	}

	return !st.reg.IsStale(key)
}

func (st *store[V]) clear() {
	st.mu.Lock()
	st.slots = orderedmap.New[any, slot[V]]()
	st.mu.Unlock()
}

// physical returns the number of slots, stale ones included.
func (st *store[V]) physical() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.slots.Len()
}

// live walks the slots in insertion order, yields the member and value of
// every live slot and deletes every stale slot it passes. Every enumeration
// of Set and Map goes through here.
//
// The lock is released while yield runs. Stopping early leaves the slots
// after the stop point untouched.
func (st *store[V]) live(yield func(member any, val V) bool) {
	st.mu.Lock()

	p := st.slots.Oldest()
	for p != nil {
		member, ok := st.reg.Deref(p.Key)
		if !ok {
			next := p.Next()
			st.slots.Delete(p.Key)
			p = next

			continue
		}

		key, cur := p.Key, p.Value

		st.mu.Unlock()

		if !yield(member, cur.val) {
			return
		}

		st.mu.Lock()

		p = st.nextLocked(key, cur.seq)
	}

	st.mu.Unlock()
}

// nextLocked returns the slot after the one stored under key with sequence
// number seq. If that slot was removed (or replaced) while the lock was
// released, the walk resumes at the first slot with a higher sequence number.
func (st *store[V]) nextLocked(key any, seq uint64) *orderedmap.Pair[any, slot[V]] {
	if p := st.slots.GetPair(key); p != nil && p.Value.seq == seq {
		return p.Next()
	}

	for p := st.slots.Oldest(); p != nil; p = p.Next() {
		if p.Value.seq > seq {
			return p
		}
	}

	return nil
}

// count runs a full live pass and returns the number of live slots.
func (st *store[V]) count() int {
	n := 0

	st.live(func(any, V) bool {
		n++

		return true
	})

	return n
}
