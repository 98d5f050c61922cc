package nbmap

import "unsafe"

// HashFunc computes a 32-bit hash for a key. Callers control collision
// quality; a return of 0 is remapped internally to 1 (0 is reserved to
// mean "key claimed, hash not yet published").
type HashFunc func(key unsafe.Pointer) uint32

// EqualsFunc reports whether two keys are equal. It must be total on the
// set of pointers ever inserted into the Map, *plus* any key pointer the
// Map has already freed via DestroyFunc: a reader racing a resize may
// still invoke equals on a freed pointer (see Map.Get). The return value
// in that case is immaterial, but equals must not fault.
type EqualsFunc func(a, b unsafe.Pointer) bool

// DestroyFunc releases a key the Map no longer needs. It is invoked at
// most once per key ever passed to PutIf.
type DestroyFunc func(key unsafe.Pointer)

// Ignore is passed as the oldval argument to PutIf to request an
// unconditional update (insert, overwrite, or delete regardless of the
// value currently mapped).
var Ignore = unsafe.Pointer(new(byte))

// sized marks a slot, or a slot's key/value field, as migrated to a
// newer table. It is also returned internally from the lookup and
// putif engines as a "retry against the current table" signal; it never
// crosses the public Get/PutIf boundary.
var sized = unsafe.Pointer(new(byte))

// deleted is returned internally by putif, when running in resize-copy
// mode, to tell the copier that the migrated value was a tombstone and
// the old slot's key should be freed rather than left migrated.
var deleted = unsafe.Pointer(new(byte))

// remapHash rewrites a caller hash of 0 to 1, since 0 is reserved to mean
// "this slot's key has been claimed but its hash has not been published
// yet".
func remapHash(h uint32) uint32 {
	if h == 0 {
		return 1
	}
	return h
}
