// Package nbmap implements a lock-free, concurrent, open-addressing
// hash table mapping opaque caller-owned keys to opaque caller-owned
// values. Multiple goroutines may call Get and PutIf concurrently
// without any of them ever holding a lock; a successful PutIf
// publishes a happens-before edge that subsequent Get calls for the
// same key observe.
//
// Keys and values are unsafe.Pointer: the table never dereferences
// them itself, only passing them to the caller-supplied HashFunc,
// EqualsFunc, and DestroyFunc. Iteration, snapshotting, and bulk
// operations are not part of the contract; ordering across distinct
// keys is unspecified.
package nbmap

import (
	"sync/atomic"
	"unsafe"
)

// Map is the top-level handle: the current table pointer, the
// in-progress resize state, the live-entry counter, and the three
// caller-supplied key capabilities.
type Map struct {
	current  atomic.Pointer[table]
	resizing atomic.Pointer[table]

	size    atomic.Int64
	changes atomic.Uint64

	hash    HashFunc
	equals  EqualsFunc
	destroy DestroyFunc
}

// Option configures a Map at construction time.
type Option func(*options)

type options struct {
	initialCapacity int
}

// WithInitialCapacity hints at the number of entries the Map should be
// able to hold before its first resize. The hint is rounded up to the
// next power of two, with a floor of 4 (spec.md §8 scenario 3's
// "initial capacity of 4").
func WithInitialCapacity(n int) Option {
	return func(o *options) { o.initialCapacity = n }
}

// New constructs an empty Map using the given key capabilities. hash
// and equals are invoked concurrently from any goroutine calling Get or
// PutIf; destroy is invoked at most once per key ever passed to PutIf.
func New(hash HashFunc, equals EqualsFunc, destroy DestroyFunc, opts ...Option) *Map {
	cfg := options{initialCapacity: minTableLength}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Map{
		hash:    hash,
		equals:  equals,
		destroy: destroy,
	}
	m.current.Store(newTable(nextPow2(cfg.initialCapacity)))
	return m
}

// Free releases every table the Map still references (the current
// table and anything left on its retirement chain) and invokes destroy
// on every live key in the current table. Free is not thread-safe: the
// caller must guarantee no other goroutine is using the Map.
func (m *Map) Free() {
	cur := m.current.Load()

	node := cur.prev.Load()
	for node != nil {
		next := node.prev.Load()
		node.prev.Store(nil)
		node = next
	}
	cur.prev.Store(nil)

	for i := range cur.slots {
		s := &cur.slots[i]
		k := s.loadKey()
		if k != nil && k != sized {
			m.destroy(k)
		}
	}
}

// Size returns the number of live mappings. It may lag concurrent
// updates; the internal counter can transiently go negative under
// out-of-order increments, in which case Size clamps to 0.
func (m *Map) Size() int {
	n := m.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Get returns the value currently mapped to key, or nil if there is no
// mapping. key is borrowed: ownership remains with the caller.
func (m *Map) Get(key unsafe.Pointer) unsafe.Pointer {
	hash := remapHash(m.hash(key))
	for {
		t := m.current.Load()
		v := lookupInTable(t, hash, key, m.equals)
		if v == sized {
			m.helpIfResizing()
			continue
		}
		return v
	}
}

// PutIf conditionally inserts, updates, or deletes the mapping for
// key, and returns the value that was mapped immediately before this
// call's successful CAS (nil if there was none).
//
// Ownership of key always transfers to the Map at the call boundary:
// on success it is either stored (a fresh slot) or immediately freed
// via destroy (the slot already had an equal key); on a failed
// oldval comparison it is likewise either kept in the slot it just
// claimed or freed via destroy, so the caller never needs to free key
// itself once PutIf returns.
//
// oldval = Ignore requests an unconditional update. val = nil deletes
// the mapping (the slot becomes a tombstone). A non-nil, non-Ignore
// oldval requires the value currently mapped to equal it, or PutIf
// returns that current value (or nil if absent) without making any
// change.
func (m *Map) PutIf(key, val, oldval unsafe.Pointer) unsafe.Pointer {
	hash := remapHash(m.hash(key))
	for {
		t := m.current.Load()
		res := putifInTable(m, t, hash, key, val, oldval, false)
		if res == sized {
			m.helpIfResizing()
			continue
		}
		return res
	}
}

// Put is PutIf(key, val, Ignore): an unconditional insert or update.
func (m *Map) Put(key, val unsafe.Pointer) unsafe.Pointer {
	return m.PutIf(key, val, Ignore)
}

// Delete is PutIf(key, nil, Ignore): an unconditional delete.
func (m *Map) Delete(key unsafe.Pointer) unsafe.Pointer {
	return m.PutIf(key, nil, Ignore)
}

// helpIfResizing is the cooperative-help wrapper described in spec.md
// §2's control-flow summary: a caller that observed sized helps finish
// whatever resize is in progress, then returns so the caller can
// reload Map.current and retry.
func (m *Map) helpIfResizing() {
	for {
		r := m.resizing.Load()
		if r == nil {
			// No resize in progress (or it just finished); nothing to
			// help with, the caller will simply reload current.
			return
		}
		if r == promiseTable {
			yieldToResizer()
			continue
		}

		old := m.current.Load()
		if old == r {
			// Already promoted.
			return
		}

		m.doResizeWork(old, r)
		// Wait for the winner to promote r and clear the in-progress
		// pointer. current may already have moved past r by the time
		// this goroutine looks, so it is not compared against r.
		for m.resizing.Load() == r {
			yieldToResizer()
		}
		return
	}
}
