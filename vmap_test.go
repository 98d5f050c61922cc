package nbmap

import (
	"fmt"

	"github.com/go-nbmap/nbmap/internal/keys"
)

// vmap is a self-validating wrapper around a *Map, adapted from the
// teacher package's own Vmap. Unlike the teacher's version it carries
// no bulk or Range operations: those are explicitly out of nbmap's
// public contract (spec.md §1 Non-goals).
type vmap struct {
	m      *Map
	mirror map[int64]int64
}

func newVmap(capacity int) *vmap {
	if capacity < 1 {
		capacity = 1
	}
	keys.ResetDestroyedCount()
	return &vmap{
		m:      New(keys.HashInt, keys.EqualsInt, keys.DestroyInt, WithInitialCapacity(capacity)),
		mirror: make(map[int64]int64),
	}
}

func (vm *vmap) Get(k int64) (int64, bool) {
	got := vm.m.Get(keys.NewInt(k))
	want, wantOk := vm.mirror[k]

	gotOk := got != nil
	var gotVal int64
	if gotOk {
		gotVal = int64(*(*keys.Int)(got))
	}
	if gotOk != wantOk || (gotOk && gotVal != want) {
		panic(fmt.Sprintf("vmap.Get(%d) = (%v, %v), want (%v, %v)", k, gotVal, gotOk, want, wantOk))
	}
	return gotVal, gotOk
}

func (vm *vmap) Put(k, v int64) {
	vm.m.Put(keys.NewInt(k), keys.NewInt(v))
	vm.mirror[k] = v
}

func (vm *vmap) Delete(k int64) {
	vm.m.Delete(keys.NewInt(k))
	delete(vm.mirror, k)
}

func (vm *vmap) Size() int {
	got := vm.m.Size()
	want := len(vm.mirror)
	if got != want {
		panic(fmt.Sprintf("vmap.Size() = %d, want %d", got, want))
	}
	return got
}

// snapshotInt walks the live entries of m's current table directly
// (reaching into the unexported representation, since iteration is not
// part of the public contract) and returns them as a plain map for
// final validation against a mirror.
func snapshotInt(m *Map) map[int64]int64 {
	t := m.current.Load()
	out := make(map[int64]int64)
	for i := range t.slots {
		s := &t.slots[i]
		k := s.loadKey()
		if k == nil || k == sized {
			continue
		}
		v := s.loadVal()
		if v == nil || v == sized {
			continue
		}
		out[int64(*(*keys.Int)(k))] = int64(*(*keys.Int)(v))
	}
	return out
}
