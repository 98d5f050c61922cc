package nbmap

// promiseTable is the sentinel occupying Map.resizing while the resize
// winner is still allocating the new table: a unique address that is
// never a real table produced by newTable.
var promiseTable = &table{}

// triggerResize is the resize coordinator (spec.md §4.4). It is called
// by putifInTable once a probe chain on old exceeds reprobeLimit. If
// another resize is already in progress or old is no longer current, it
// returns without doing anything; otherwise it runs the resize to
// completion (zeroing, copying, retiring, promoting) before returning.
func (m *Map) triggerResize(old *table) {
	debugf("resize: trigger old length=%d size=%d changes=%d\n", old.length, m.Size(), m.changes.Load())

	if m.resizing.Load() != nil {
		// Someone else is already ahead of us.
		return
	}
	if m.current.Load() != old {
		// old has already been superseded; nothing to do.
		return
	}
	if !m.resizing.CompareAndSwap(nil, promiseTable) {
		return
	}
	if m.current.Load() != old {
		m.resizing.CompareAndSwap(promiseTable, nil)
		return
	}

	newLen := old.length * 2
	if m.changes.Load() > uint64(old.length)/4 && float64(m.Size())/float64(old.length) < 0.3 {
		// High churn, low occupancy: compact at the same length to
		// erase tombstones instead of growing.
		newLen = old.length
	}
	newT := newTable(newLen)

	// The copy phase coordinates over old's own block counters; they
	// may hold stale values from when old itself was zeroed as a
	// freshly allocated table during a previous resize.
	old.resetBlockCounters()

	// Publish the new table, replacing the PROMISE marker. The atomic
	// store is the release barrier: any helper that observes newT here
	// also observes old's reset counters and newT's zero-valued slots.
	m.resizing.Store(newT)

	m.doResizeWork(old, newT)

	m.retireTable(old, newT)

	if !m.current.CompareAndSwap(old, newT) {
		panic("nbmap: lost CAS promoting resized table to current")
	}
	if !m.resizing.CompareAndSwap(newT, nil) {
		panic("nbmap: lost CAS clearing in-progress table pointer")
	}
	m.changes.Store(0)
}

// doResizeWork drains the zero-work phase over newT and then the
// copy-work phase over old, to completion. Both the resize winner and
// any helper that observes the resize in progress call this; the
// claim/execute/acknowledge protocol on each table's btodo/bdone pair
// (spec.md §4.5) makes concurrent calls safe and non-duplicative.
func (m *Map) doResizeWork(old, newT *table) {
	drainBlocks(newT, func(start, end uint32) {
		zeroBlock(newT, start, end)
	})
	drainBlocks(old, func(start, end uint32) {
		copyBlock(m, old, newT, start, end)
	})
}

// drainBlocks claims and executes blocks of t until every block has
// been accounted for, matching the claim/execute/acknowledge loop of
// spec.md §4.5.
func drainBlocks(t *table, execute func(start, end uint32)) {
	total := t.numBlocks()
	for {
		blockIdx := t.btodo.Add(1) - 1
		if blockIdx >= total {
			// No work left to claim; wait for the remaining cohort to
			// finish acknowledging their blocks.
			for t.bdone.Load() < total {
				yieldToHelpers()
			}
			return
		}

		debugf("resize: claimed block %d/%d\n", blockIdx, total)
		start, end := t.blockBounds(blockIdx)
		execute(start, end)

		done := t.bdone.Add(1)
		debugf("resize: acked block %d/%d (done=%d)\n", blockIdx, total, done)
		if done >= total {
			return
		}
	}
}

// zeroBlock initializes slots [start,end) of t to the FREE state.
// make([]slot, length) already zero-fills in Go, so this is a fast
// defensive pass rather than a necessity; it is kept so the zero-work
// phase remains a real, cooperatively-claimed block of work as spec'd,
// rather than being silently folded away.
func zeroBlock(t *table, start, end uint32) {
	for i := start; i < end; i++ {
		s := &t.slots[i]
		s.storeVal(nil)
		s.hash.Store(0)
		s.storeKey(nil)
	}
}

// copyBlock migrates slots [start,end) of old into newT.
func copyBlock(m *Map, old, newT *table, start, end uint32) {
	for i := start; i < end; i++ {
		copySlot(m, old, newT, i)
	}
}

// copySlot repeatedly attempts to finalize old.slots[idx] (spec.md
// §4.5 "Copy of a single old-Table slot") until it reaches a terminal
// SIZED-FREE or SIZED-VALUE state.
func copySlot(m *Map, old, newT *table, idx uint32) {
	s := &old.slots[idx]
	for {
		k := s.loadKey()

		if k == nil {
			if s.casKey(nil, sized) {
				return
			}
			// A late writer claimed this slot concurrently; re-read
			// and handle it as a real key below.
			continue
		}

		if k == sized {
			return
		}

		v := s.loadVal()
		if v == sized {
			return
		}
		if !s.casVal(v, sized) {
			continue
		}

		h := s.loadHash()
		result := putifInTable(m, newT, h, k, v, nil, true)
		if result == deleted {
			if !s.casKey(k, sized) {
				panic("nbmap: lost CAS finalizing deleted key during resize copy")
			}
			m.destroy(k)
		}
		// Otherwise the key has moved into newT; this slot is left as
		// (k, h, sized) permanently, per spec.md §3's SIZED-VALUE state.
		return
	}
}
