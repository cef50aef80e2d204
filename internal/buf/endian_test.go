package buf

import (
	"testing"
	"unsafe"
)

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U16LE(data); got != 0x2301 {
		t.Fatalf("U16LE = 0x%x, want 0x2301", got)
	}
	if got := U32LE(data); got != 0x67452301 {
		t.Fatalf("U32LE = 0x%x, want 0x67452301", got)
	}
	if got := U64LE(data); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE = 0x%x, want 0xefcdab8967452301", got)
	}

	short := []byte{0xAA}
	if U16LE(short) != 0 || U32LE(short) != 0 || U64LE(short) != 0 || Uintptr(short) != 0 {
		t.Fatalf("short reads should return 0")
	}
}

func TestPutU16LE(t *testing.T) {
	b := make([]byte, 3)
	PutU16LE(b[1:], 0x0004)
	if b[0] != 0 || b[1] != 0x04 || b[2] != 0x00 {
		t.Fatalf("PutU16LE wrote %x", b)
	}
}

func TestUintptrUnaligned(t *testing.T) {
	b := make([]byte, UintptrSize+3)
	for off := 0; off < 3; off++ {
		want := uintptr(0x1122334455667788 & uint64(^uintptr(0)))
		PutUintptr(b[off:], want)
		if got := Uintptr(b[off:]); got != want {
			t.Fatalf("offset %d: Uintptr = %#x, want %#x", off, got, want)
		}
	}
}

func TestAt(t *testing.T) {
	backing := []byte{1, 2, 3, 4}
	view := At(unsafe.Pointer(&backing[1]), 2)
	if len(view) != 2 || view[0] != 2 || view[1] != 3 {
		t.Fatalf("At returned %v", view)
	}
	view[0] = 9
	if backing[1] != 9 {
		t.Fatalf("At should alias the underlying memory")
	}
	if len(At(unsafe.Pointer(&backing[0]), 0)) != 0 {
		t.Fatalf("zero-length view should be empty")
	}
}
