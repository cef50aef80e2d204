package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false on
// overflow or when either operand is negative.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CheckRecordBounds validates that record index i of a table with the given
// stride lies within a buffer of bufLen bytes. Returns the record's offset.
//
//	off, err := buf.CheckRecordBounds(len(data), i, stride, recordSize)
//	if err != nil {
//	    return fmt.Errorf("memory map: %w", err)
//	}
func CheckRecordBounds(bufLen, i, stride, recordSize int) (int, error) {
	if i < 0 {
		return 0, fmt.Errorf("negative index: %d", i)
	}
	if stride < recordSize {
		return 0, fmt.Errorf("stride %d smaller than record size %d", stride, recordSize)
	}
	off, ok := MulOverflowSafe(i, stride)
	if !ok {
		return 0, fmt.Errorf("overflow: index=%d * stride=%d", i, stride)
	}
	end, ok := AddOverflowSafe(off, recordSize)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", off, recordSize)
	}
	if end > bufLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return off, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
