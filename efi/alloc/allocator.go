package alloc

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/internal/buf"
)

// Allocator adapts a host pool to arbitrary power-of-two alignments.
type Allocator struct {
	mu    sync.Mutex
	pool  host.Pool
	mt    efi.MemoryType
	stats Stats
}

// Stats counts allocator activity.
type Stats struct {
	Allocs      int // successful Alloc calls
	Failures    int // Alloc calls refused by the pool
	Frees       int
	LiveBytes   int // sum of Layout.Size over outstanding blocks
	LiveBlocks  int
	PeakBlocks  int
	PoolRequest int // bytes requested from the pool, including padding
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithMemoryType sets the memory type passed to the pool. Default: LoaderData.
func WithMemoryType(mt efi.MemoryType) Option {
	return func(a *Allocator) { a.mt = mt }
}

// New returns an allocator drawing from pool.
func New(pool host.Pool, opts ...Option) *Allocator {
	a := &Allocator{pool: pool, mt: efi.LoaderData}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Alloc returns a pointer to l.Size bytes aligned to l.Align. The memory is
// not zeroed. Pool failures return ErrNoMemory; Alloc never retries.
func (a *Allocator) Alloc(l Layout) (unsafe.Pointer, error) {
	if l.Size < 0 || l.Align <= 0 || l.Align&(l.Align-1) != 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadLayout, l)
	}
	size, ok := l.padded()
	if !ok {
		return nil, fmt.Errorf("%w: %v overflows", ErrNoMemory, l)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	raw, st := a.pool.AllocatePool(a.mt, size)
	if !st.IsSuccess() || raw == nil {
		a.stats.Failures++
		if st.IsSuccess() {
			st = efi.OutOfResources
		}
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrNoMemory, size, st)
	}

	var adjust uintptr
	if mis := uintptr(raw) % uintptr(l.Align); mis != 0 {
		adjust = uintptr(l.Align) - mis
	}
	p := unsafe.Add(raw, adjust)
	buf.PutUintptr(buf.At(unsafe.Add(p, l.Size), buf.UintptrSize), adjust)

	a.stats.Allocs++
	a.stats.LiveBlocks++
	a.stats.LiveBytes += l.Size
	a.stats.PoolRequest += size
	a.stats.PeakBlocks = max(a.stats.PeakBlocks, a.stats.LiveBlocks)
	return p, nil
}

// Free releases p, which must have been returned by Alloc with the same
// layout. Any host failure means the pointer or layout was wrong and the
// heap may be corrupt, so Free panics instead of returning an error.
func (a *Allocator) Free(p unsafe.Pointer, l Layout) {
	if p == nil {
		panic("alloc: free of nil pointer")
	}
	adjust := buf.Uintptr(buf.At(unsafe.Add(p, l.Size), buf.UintptrSize))
	if adjust >= uintptr(max(l.Align, 1)) {
		panic(fmt.Sprintf("alloc: corrupt adjustment %d for %p with %v", adjust, p, l))
	}
	raw := unsafe.Add(p, -int(adjust))

	a.mu.Lock()
	defer a.mu.Unlock()

	if st := a.pool.FreePool(raw); !st.IsSuccess() {
		panic(fmt.Sprintf("alloc: free_pool(%p) for %v: %v", raw, l, st))
	}
	a.stats.Frees++
	a.stats.LiveBlocks--
	a.stats.LiveBytes -= l.Size
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
