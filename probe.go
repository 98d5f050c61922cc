package nbmap

import "unsafe"

// lookupInTable is the probe/lookup engine (spec.md §4.2). It returns
// the value currently mapped to key in t, nil if absent, or sized if
// the probe chain runs into a slot that has migrated to a newer table
// (in which case the caller must help the resize to completion, reload
// the current table, and retry).
func lookupInTable(t *table, hash uint32, key unsafe.Pointer, equals EqualsFunc) unsafe.Pointer {
	idx := t.slotIndex(hash)
	mask := t.length - 1

	for probed := uint32(0); probed < t.length; probed++ {
		s := &t.slots[idx]

		k := s.loadKey()
		switch k {
		case nil:
			// Inserts always populate the key before the value, so a
			// FREE slot on a linear probe chain terminates the search.
			return nil
		case sized:
			return sized
		}

		h := s.loadHash() // spin-wait for the claimer's publish handshake
		if h == hash && equals(k, key) {
			return s.loadVal()
		}

		idx = (idx + 1) & mask
	}

	return nil
}
