// Package keys provides example key capabilities (hash, equals,
// destroy) for demos and tests. These are deliberately not part of the
// nbmap package itself: spec.md scopes hash/equals/destroy as
// caller-supplied capabilities, external to the concurrent table.
package keys

import (
	"sync/atomic"
	"unsafe"
)

//go:linkname memhash runtime.memhash
//go:noescape
func memhash(p unsafe.Pointer, seed, s uintptr) uintptr

// String boxes a Go string as a heap-allocated key usable as an
// unsafe.Pointer nbmap key.
type String string

// NewString allocates a new key holding s.
func NewString(s string) unsafe.Pointer {
	v := new(String)
	*v = String(s)
	return unsafe.Pointer(v)
}

// HashString hashes the string key pointed to by p.
func HashString(p unsafe.Pointer) uint32 {
	s := (*String)(p)
	h := memhash(unsafe.Pointer(unsafe.StringData(string(*s))), 0, uintptr(len(*s)))
	return uint32(h)
}

// EqualsString compares two string keys by value.
func EqualsString(a, b unsafe.Pointer) bool {
	return *(*String)(a) == *(*String)(b)
}

// destroyedCount, exposed via DestroyedCount, lets tests assert that
// every key handed to a Map is eventually destroyed exactly once.
var destroyedCount atomic.Int64

// DestroyString frees a key allocated by NewString and records the
// destruction for DestroyedCount.
func DestroyString(p unsafe.Pointer) {
	destroyedCount.Add(1)
	_ = (*String)(p) // no explicit free under the Go GC; this documents the call site
}

// DestroyedCount returns how many keys DestroyString has processed
// since the package was loaded (or ResetDestroyedCount was last
// called).
func DestroyedCount() int64 {
	return destroyedCount.Load()
}

// ResetDestroyedCount zeroes the destruction counter; tests call this
// between independent scenarios.
func ResetDestroyedCount() {
	destroyedCount.Store(0)
}

// Int boxes an int64 as a heap-allocated key.
type Int int64

// NewInt allocates a new key holding n.
func NewInt(n int64) unsafe.Pointer {
	v := new(Int)
	*v = Int(n)
	return unsafe.Pointer(v)
}

// HashInt hashes the int64 key pointed to by p.
func HashInt(p unsafe.Pointer) uint32 {
	n := *(*Int)(p)
	h := memhash(unsafe.Pointer(&n), 0, unsafe.Sizeof(n))
	return uint32(h)
}

// EqualsInt compares two int64 keys by value.
func EqualsInt(a, b unsafe.Pointer) bool {
	return *(*Int)(a) == *(*Int)(b)
}

// DestroyInt records the destruction for DestroyedCount.
func DestroyInt(p unsafe.Pointer) {
	destroyedCount.Add(1)
	_ = (*Int)(p)
}
