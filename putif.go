package nbmap

import "unsafe"

// putifInTable is the conditional insert/update/delete engine (spec.md
// §4.3). hash must already be the caller's memoized, non-zero hash for
// key (see remapHash). It returns:
//
//   - the value mapped immediately before this call's successful CAS
//     (nil if the slot was freshly claimed), on an ordinary update;
//   - deleted, when running in resizeCopyMode and the migrated value
//     was a tombstone (val == nil): the caller must finalize the old
//     slot itself and invoke the destructor;
//   - sized, when the probe chain runs into a migrated slot, the
//     reprobe limit is exceeded, or a resize is observed in progress:
//     the caller must help the resize, reload the current table, and
//     retry. This can only happen outside resizeCopyMode: a migration
//     has no Map.current to retry against, so it never abandons.
//
// resizeCopyMode is set only by the resize coordinator's copy phase,
// migrating one old-table slot into the new table; it disables the
// reprobe-triggers-another-resize behavior and the opportunistic
// abandon check (neither of which make sense while already inside a
// resize), and replaces the reprobe-limit abandon with unbounded
// reprobing across the whole table, since a migration must never drop
// a key.
func putifInTable(m *Map, t *table, hash uint32, key, val, oldval unsafe.Pointer, resizeCopyMode bool) unsafe.Pointer {
	idx := t.slotIndex(hash)
	mask := t.length - 1

	var redundant bool
	var s *slot
	var reprobes uint32

	// Phase A: locate the slot this key belongs in, or claim a free one.
	for {
		s = &t.slots[idx]
		k := s.loadKey()

		if k == nil {
			isDelete := val == nil && (oldval == Ignore || oldval == nil)
			if isDelete {
				if resizeCopyMode {
					// Let the copier finalize the old slot and invoke
					// the destructor exactly once.
					return deleted
				}
				m.destroy(key)
				return nil
			}

			// Publish the key (the CAS itself is the release barrier
			// under Go's memory model: any write a racing reader
			// observes via this slot's key happens-after this CAS).
			if s.casKey(nil, key) {
				s.hash.Store(hash)
				debugf("putif: claimed free slot idx=%d hash=%d\n", idx, hash)
				break
			}
			// Lost the claim race; re-examine this same index.
			continue
		}

		if k == sized {
			return sized
		}

		h := s.loadHash()
		if h == hash && m.equals(k, key) {
			redundant = true
			break
		}

		idx = (idx + 1) & mask
		reprobes++
		debugf("putif: reprobe %d idx=%d resizeCopyMode=%v\n", reprobes, idx, resizeCopyMode)

		if resizeCopyMode {
			// A migration has no Map.current to retry against: it must
			// never abandon the key. Keep reprobing past reprobeLimit,
			// exactly like lookupInTable, bounded only by the table
			// itself (which always has room for every key the old
			// table held).
			if reprobes >= t.length {
				panic("nbmap: resize copy exhausted probe sequence without finding a slot")
			}
			continue
		}

		if reprobes >= reprobeLimit {
			m.triggerResize(t)
			return sized
		}
	}

	// Phase B: update the value.
	for {
		cur := s.loadVal()
		if cur == sized {
			return sized
		}

		if !resizeCopyMode {
			if inProgress := m.resizing.Load(); inProgress != nil && inProgress != promiseTable {
				// A resize has been published; this table may be
				// retired before our write is visible to it. Abandon
				// and let the caller retry against the current table.
				return sized
			}
		}

		if oldval != Ignore && cur != oldval {
			if redundant {
				// key is the caller's duplicate of the key already
				// stored in this slot: ownership still transferred to
				// us, even on a failed CAS comparison.
				m.destroy(key)
			}
			return cur
		}

		if !s.casVal(cur, val) {
			continue
		}

		// A migration moves an entry the size counter already counts, so
		// only ordinary updates adjust it.
		if !resizeCopyMode {
			wasLive := cur != nil && cur != sized
			isLive := val != nil && val != sized
			switch {
			case isLive && !wasLive:
				m.size.Add(1)
			case !isLive && wasLive:
				m.size.Add(-1)
			}
		}
		m.changes.Add(1)

		if redundant {
			m.destroy(key)
		}

		if resizeCopyMode && val == nil {
			return deleted
		}
		return cur
	}
}
