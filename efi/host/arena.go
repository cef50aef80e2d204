package host

import (
	"slices"
	"sync"
	"unsafe"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/internal/mmap"
)

// Arena is a Pool over a single anonymous mapping. It hands out first-fit
// spans rounded to BaselineAlign and coalesces neighbours on free, which is
// enough to reproduce firmware pool behaviour: 8-byte alignment and nothing
// stronger.
type Arena struct {
	mu      sync.Mutex
	mem     []byte
	base    uintptr
	free    []span      // sorted by off, never adjacent
	live    map[int]int // off -> size
	inUse   int
	release func() error
}

type span struct {
	off, size int
}

// NewArena maps size bytes (rounded up to BaselineAlign) of pool memory.
func NewArena(size int) (*Arena, error) {
	size = roundUp(size, BaselineAlign)
	mem, release, err := mmap.Anon(size)
	if err != nil {
		return nil, err
	}
	return &Arena{
		mem:     mem,
		base:    uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
		free:    []span{{0, len(mem)}},
		live:    make(map[int]int),
		release: release,
	}, nil
}

func roundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// AllocatePool implements Pool.
func (a *Arena) AllocatePool(_ efi.MemoryType, size int) (unsafe.Pointer, efi.Status) {
	if size < 0 {
		return nil, efi.InvalidParameter
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mem == nil {
		return nil, efi.NotReady
	}
	// Checked before rounding so huge sizes cannot wrap.
	if size > len(a.mem) {
		return nil, efi.OutOfResources
	}
	need := max(roundUp(size, BaselineAlign), BaselineAlign)
	for i, s := range a.free {
		if s.size < need {
			continue
		}
		off := s.off
		if s.size == need {
			a.free = slices.Delete(a.free, i, i+1)
		} else {
			a.free[i] = span{s.off + need, s.size - need}
		}
		a.live[off] = need
		a.inUse += need
		return unsafe.Pointer(&a.mem[off]), efi.Success
	}
	return nil, efi.OutOfResources
}

// FreePool implements Pool. Pointers not returned by AllocatePool, or already
// freed, yield InvalidParameter.
func (a *Arena) FreePool(p unsafe.Pointer) efi.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mem == nil {
		return efi.NotReady
	}
	addr := uintptr(p)
	if addr < a.base || addr >= a.base+uintptr(len(a.mem)) {
		return efi.InvalidParameter
	}
	off := int(addr - a.base)
	size, ok := a.live[off]
	if !ok {
		return efi.InvalidParameter
	}
	delete(a.live, off)
	a.inUse -= size

	i, _ := slices.BinarySearchFunc(a.free, off, func(s span, off int) int { return s.off - off })
	a.free = slices.Insert(a.free, i, span{off, size})
	// Coalesce with the following span, then the preceding one.
	if i+1 < len(a.free) && a.free[i].off+a.free[i].size == a.free[i+1].off {
		a.free[i].size += a.free[i+1].size
		a.free = slices.Delete(a.free, i+1, i+2)
	}
	if i > 0 && a.free[i-1].off+a.free[i-1].size == a.free[i].off {
		a.free[i-1].size += a.free[i].size
		a.free = slices.Delete(a.free, i, i+1)
	}
	return efi.Success
}

// InUse returns the number of bytes currently allocated.
func (a *Arena) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}

// Live returns the number of outstanding allocations.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Contains reports whether p points into the arena.
func (a *Arena) Contains(p unsafe.Pointer) bool {
	addr := uintptr(p)
	return addr >= a.base && addr < a.base+uintptr(len(a.mem))
}

// Close unmaps the arena. Outstanding pointers become invalid.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mem == nil {
		return nil
	}
	a.mem = nil
	a.live = nil
	a.free = nil
	return a.release()
}
