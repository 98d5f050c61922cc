package nbmap

import (
	"sync/atomic"
	"unsafe"
)

// slot is one (key, hash, value) triple in a table. All three fields are
// read and written through atomic/ordered accesses; see the state table
// in spec.md §3 for the legal transitions.
//
//   FREE         (nil,      _, _)          claim -> PARTIAL
//   PARTIAL      (k != nil, 0, _)          wait-hash -> VALUE
//   VALUE        (k,        h, v)          update -> VALUE; resize-start -> SIZED-VALUE
//   SIZED-FREE   (sized,    _, _)          terminal in this table
//   SIZED-VALUE  (k,        h, sized)      terminal in this table (key later -> sized on delete-copy)
//
// A slot's key transitions at most twice: nil -> k, then optionally
// k -> sized (only while copying a deleted entry during resize). A
// slot's hash transitions at most once: 0 -> h != 0. A slot's value is
// mutated freely by CAS between nil (tombstone), a caller value, and
// sized.
type slot struct {
	key  unsafe.Pointer
	hash atomic.Uint32
	val  unsafe.Pointer
}

func (s *slot) loadKey() unsafe.Pointer {
	return atomic.LoadPointer(&s.key)
}

func (s *slot) casKey(old, new unsafe.Pointer) bool {
	return atomic.CompareAndSwapPointer(&s.key, old, new)
}

func (s *slot) storeKey(k unsafe.Pointer) {
	atomic.StorePointer(&s.key, k)
}

func (s *slot) loadVal() unsafe.Pointer {
	return atomic.LoadPointer(&s.val)
}

func (s *slot) casVal(old, new unsafe.Pointer) bool {
	return atomic.CompareAndSwapPointer(&s.val, old, new)
}

func (s *slot) storeVal(v unsafe.Pointer) {
	atomic.StorePointer(&s.val, v)
}

// loadHash spins with yield until the slot's hash has been published by
// whichever goroutine claimed the key (see sentinel.go's remapHash: a
// published hash is never 0). This is the handshake that guarantees a
// reader observing a non-nil key also observes that key's hash once it
// waits here.
func (s *slot) loadHash() uint32 {
	for {
		if h := s.hash.Load(); h != 0 {
			return h
		}
		yieldToClaimer()
	}
}
