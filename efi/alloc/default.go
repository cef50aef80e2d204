package alloc

import "sync/atomic"

var defaultAllocator atomic.Pointer[Allocator]

// SetDefault installs the process-wide allocator. It must be called once,
// before any code asks for Default; a second call panics.
func SetDefault(a *Allocator) {
	if a == nil {
		panic("alloc: nil default allocator")
	}
	if !defaultAllocator.CompareAndSwap(nil, a) {
		panic("alloc: default allocator already set")
	}
}

// Default returns the process-wide allocator. It panics if SetDefault has not
// been called, since no dynamic allocation is possible before the host pool
// is known.
func Default() *Allocator {
	a := defaultAllocator.Load()
	if a == nil {
		panic("alloc: default allocator not set")
	}
	return a
}
