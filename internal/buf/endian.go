// Package buf contains bounds and endian helpers for reading host-owned memory.
//
// All loads and stores here go through byte slices, so they are safe at any
// alignment. Firmware structures such as the device path header have 1-byte
// alignment and must never be read through a typed pointer.
package buf

import (
	"encoding/binary"
	"unsafe"
)

// UintptrSize is the width of the machine word used for allocator bookkeeping.
const UintptrSize = int(unsafe.Sizeof(uintptr(0)))

// U16LE reads a little-endian uint16 from b. Returns 0 when b is too short.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64LE reads a little-endian uint64 from b. Returns 0 when b is too short.
func U64LE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// PutU16LE stores v little-endian into b. b must hold at least 2 bytes.
func PutU16LE(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

// Uintptr reads a native-endian machine word from b regardless of alignment.
// Returns 0 when b is too short.
func Uintptr(b []byte) uintptr {
	if len(b) < UintptrSize {
		return 0
	}
	if UintptrSize == 4 {
		return uintptr(binary.NativeEndian.Uint32(b))
	}
	return uintptr(binary.NativeEndian.Uint64(b))
}

// PutUintptr stores a native-endian machine word into b regardless of alignment.
func PutUintptr(b []byte, v uintptr) {
	if UintptrSize == 4 {
		binary.NativeEndian.PutUint32(b, uint32(v))
		return
	}
	binary.NativeEndian.PutUint64(b, uint64(v))
}

// At returns an n-byte slice over raw memory starting at p.
// The caller guarantees the range is valid for the lifetime of the slice.
func At(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}
