//go:build !unix

// Package mmap provides page-aligned memory outside the normal allocation
// path, used as backing store for the simulated firmware pool and pages.
package mmap

import (
	"fmt"
	"unsafe"
)

const pageSize = 4096

// Anon returns size bytes of zeroed, page-aligned memory carved from an
// over-sized heap slice when anonymous mappings are not available.
func Anon(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	raw := make([]byte, size+pageSize)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	shift := int((pageSize - addr%pageSize) % pageSize)
	data := raw[shift : shift+size : shift+size]
	return data, func() error { return nil }, nil
}
