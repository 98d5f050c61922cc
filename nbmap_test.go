package nbmap

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/go-nbmap/nbmap/internal/keys"
)

func newTestMap(opts ...Option) *Map {
	keys.ResetDestroyedCount()
	return New(keys.HashString, keys.EqualsString, keys.DestroyString, opts...)
}

func strval(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	return string(*(*keys.String)(p))
}

// TestMap_Singleton covers spec.md §8 scenario 1.
func TestMap_Singleton(t *testing.T) {
	m := newTestMap()

	valA := keys.NewString("A")
	valB := keys.NewString("B")

	if got := m.PutIf(keys.NewString("hello"), valA, Ignore); got != nil {
		t.Fatalf("PutIf(hello, A, Ignore) = %v, want nil", got)
	}
	if got := m.Get(keys.NewString("hello")); strval(got) != "A" {
		t.Fatalf("Get(hello) = %q, want A", strval(got))
	}

	if got := m.PutIf(keys.NewString("hello"), valB, valA); strval(got) != "A" {
		t.Fatalf("PutIf(hello, B, A) = %q, want A", strval(got))
	}
	if got := m.Get(keys.NewString("hello")); strval(got) != "B" {
		t.Fatalf("Get(hello) = %q, want B", strval(got))
	}

	if got := m.PutIf(keys.NewString("hello"), nil, Ignore); strval(got) != "B" {
		t.Fatalf("PutIf(hello, nil, Ignore) = %q, want B", strval(got))
	}
	if got := m.Get(keys.NewString("hello")); got != nil {
		t.Fatalf("Get(hello) after delete = %v, want nil", got)
	}
	if got := m.Size(); got != 0 {
		t.Fatalf("Size() = %d, want 0", got)
	}
}

// TestMap_CASMiss covers spec.md §8 scenario 2.
func TestMap_CASMiss(t *testing.T) {
	m := newTestMap()

	valA := keys.NewString("A")
	valB := keys.NewString("B")
	valC := keys.NewString("C")

	if got := m.PutIf(keys.NewString("k"), valA, Ignore); got != nil {
		t.Fatalf("PutIf(k, A, Ignore) = %v, want nil", got)
	}
	if got := m.PutIf(keys.NewString("k"), valC, valB); strval(got) != "A" {
		t.Fatalf("PutIf(k, C, B) = %q, want A (CAS miss keeps A)", strval(got))
	}
	if got := m.Get(keys.NewString("k")); strval(got) != "A" {
		t.Fatalf("Get(k) = %q, want A", strval(got))
	}
}

// TestMap_CASChain exercises put(k,A,IGNORE); put(k,B,A)=A; put(k,C,A)=B; get(k)=B.
func TestMap_CASChain(t *testing.T) {
	m := newTestMap()

	valA := keys.NewString("A")
	valB := keys.NewString("B")
	valC := keys.NewString("C")

	if got := m.PutIf(keys.NewString("k"), valA, Ignore); got != nil {
		t.Fatalf("PutIf(k, A, Ignore) = %v, want nil", got)
	}
	if got := m.PutIf(keys.NewString("k"), valB, valA); strval(got) != "A" {
		t.Fatalf("PutIf(k, B, A) = %q, want A", strval(got))
	}
	if got := m.PutIf(keys.NewString("k"), valC, valA); strval(got) != "B" {
		t.Fatalf("PutIf(k, C, A) = %q, want B (stale oldval, no-op)", strval(got))
	}
	if got := m.Get(keys.NewString("k")); strval(got) != "B" {
		t.Fatalf("Get(k) = %q, want B", strval(got))
	}
}

// TestMap_PutIdempotent: put(k,v); put(k,v) yields a single mapping.
func TestMap_PutIdempotent(t *testing.T) {
	m := newTestMap()
	valV := keys.NewString("v")

	m.PutIf(keys.NewString("k"), valV, Ignore)
	second := m.PutIf(keys.NewString("k"), valV, Ignore)
	if strval(second) != "v" {
		t.Fatalf("second PutIf = %q, want v", strval(second))
	}
	if got := m.Size(); got != 1 {
		t.Fatalf("Size() = %d, want 1", got)
	}
}

// TestMap_DeleteIdempotent: put(k,v); put(k,0); put(k,0) yields no mapping,
// net size change of 0 from the initial (empty) state.
func TestMap_DeleteIdempotent(t *testing.T) {
	m := newTestMap()
	valV := keys.NewString("v")

	m.PutIf(keys.NewString("k"), valV, Ignore)
	m.PutIf(keys.NewString("k"), nil, Ignore)
	m.PutIf(keys.NewString("k"), nil, Ignore)

	if got := m.Size(); got != 0 {
		t.Fatalf("Size() = %d, want 0", got)
	}
	if got := m.Get(keys.NewString("k")); got != nil {
		t.Fatalf("Get(k) = %v, want nil", got)
	}
}

// TestMap_ZeroHash covers the boundary behavior where the caller's hash
// function returns 0: the hash is remapped to 1, and the insert still
// succeeds and resolves correctly.
func TestMap_ZeroHash(t *testing.T) {
	alwaysZero := func(unsafe.Pointer) uint32 { return 0 }
	keys.ResetDestroyedCount()
	m := New(alwaysZero, keys.EqualsString, keys.DestroyString)

	got := m.PutIf(keys.NewString("zero-hash-key"), keys.NewString("value"), Ignore)
	if got != nil {
		t.Fatalf("PutIf = %v, want nil", got)
	}
	if got := m.Get(keys.NewString("zero-hash-key")); strval(got) != "value" {
		t.Fatalf("Get = %q, want value", strval(got))
	}
}

// TestMap_ForcedResize covers spec.md §8 scenario 3: 64 distinct keys
// whose hashes all collide modulo the initial capacity of 4 still all
// round-trip correctly, and the table has grown well beyond its
// starting capacity.
func TestMap_ForcedResize(t *testing.T) {
	allCollide := func(p unsafe.Pointer) uint32 { return uint32(*(*keys.Int)(p)+1) * 64 }
	keys.ResetDestroyedCount()
	m := New(allCollide, keys.EqualsInt, keys.DestroyInt, WithInitialCapacity(4))

	const n = 64
	want := make([]unsafe.Pointer, n)
	for i := 0; i < n; i++ {
		k := keys.NewInt(int64(i))
		want[i] = keys.NewInt(int64(i * 1000))
		if got := m.PutIf(k, want[i], Ignore); got != nil {
			t.Fatalf("PutIf(%d) = %v, want nil", i, got)
		}
	}

	for i := 0; i < n; i++ {
		got := m.Get(keys.NewInt(int64(i)))
		if got == nil || *(*keys.Int)(got) != *(*keys.Int)(want[i]) {
			t.Fatalf("Get(%d) = %v, want %v", i, got, want[i])
		}
	}

	if got := m.Size(); got != n {
		t.Fatalf("Size() = %d, want %d", got, n)
	}

	finalLen := m.current.Load().length
	if finalLen < 128 {
		t.Fatalf("final table length = %d, want >= 128", finalLen)
	}
}

// TestMap_DestroyedExactlyOnce tracks, via a counting destructor, that
// every key passed to PutIf is eventually freed exactly once.
func TestMap_DestroyedExactlyOnce(t *testing.T) {
	m := newTestMap()
	valV := keys.NewString("v")

	const n = 500
	for i := 0; i < n; i++ {
		m.PutIf(keys.NewString(fmt.Sprintf("key-%d", i)), valV, Ignore)
	}
	// Overwrite every key once: the redundant key passed in is freed.
	for i := 0; i < n; i++ {
		m.PutIf(keys.NewString(fmt.Sprintf("key-%d", i)), valV, Ignore)
	}
	// No deletes: every stored key is still in its slot and is freed by
	// Free.
	m.Free()

	if got, want := keys.DestroyedCount(), int64(2*n); got != want {
		t.Fatalf("DestroyedCount() = %d, want %d (every key ever passed to PutIf, freed exactly once)", got, want)
	}
}
