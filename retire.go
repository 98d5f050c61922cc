package nbmap

import "time"

// retireTable chains old under newT's retirement list, stamps it with
// the current time, and sweeps any retirees that have aged out of the
// retention window (spec.md §4.6).
func (m *Map) retireTable(old, newT *table) {
	old.retiredAt.Store(time.Now().Unix())
	newT.prev.Store(old)
	sweepRetired(newT)
}

// sweepRetired walks the retirement chain rooted at t and drops
// everything from the first table older than retentionWindowSeconds
// onward. The chain is in strictly non-decreasing age order (each
// table was retired no earlier than the one ahead of it), so one walk
// suffices: once a stale entry is found, everything beyond it is at
// least as stale.
//
// This is best-effort, exactly as spec.md describes: under a
// continuous resize workload a retiree can outlive the window by a
// wide margin, because the walk only ever starts from the newest
// table's prev pointer.
func sweepRetired(t *table) {
	cutoff := time.Now().Unix() - retentionWindowSeconds
	node := t
	for {
		prev := node.prev.Load()
		if prev == nil {
			return
		}
		if prev.retiredAt.Load() < cutoff {
			node.prev.Store(nil)
			return
		}
		node = prev
	}
}
