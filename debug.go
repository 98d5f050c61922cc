package nbmap

import (
	"fmt"
	"runtime"
)

// debugEnabled gates trace printlns at the hot paths below, mirroring
// the teacher package's own `debug` constant. It is not part of the
// public contract: callers configure their own logging around the Map,
// this is purely an implementation-development aid.
const debugEnabled = false

func debugf(format string, args ...any) {
	if debugEnabled {
		fmt.Printf(format, args...)
	}
}

// yieldToClaimer is the suspension point used while spinning for a
// racing claimer to publish a slot's hash (spec.md §5, suspension (a)).
func yieldToClaimer() {
	runtime.Gosched()
}

// yieldToHelpers is the suspension point used while waiting for other
// helpers to finish a block cohort (spec.md §5, suspension (b)).
func yieldToHelpers() {
	runtime.Gosched()
}

// yieldToResizer is the suspension point used while waiting for a
// resize winner to publish the new table after announcing promiseTable,
// or to promote it to current (spec.md §5, suspensions (c) and (d)).
func yieldToResizer() {
	runtime.Gosched()
}
