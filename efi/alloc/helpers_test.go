package alloc

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/host"
)

// recordingPool wraps a real arena and remembers every raw address it hands
// out, so tests can check that frees only ever see addresses the pool issued.
type recordingPool struct {
	t     testing.TB
	inner host.Pool
	mu    sync.Mutex
	live  map[uintptr]int
	sizes []int // sizes of every successful AllocatePool, in order
	raws  []unsafe.Pointer
	freed []unsafe.Pointer
	fail  bool

	allowForeign bool // set by tests that free bad pointers on purpose
}

func newRecordingPool(t testing.TB, size int) *recordingPool {
	t.Helper()
	arena, err := host.NewArena(size)
	require.NoError(t, err)
	t.Cleanup(func() { _ = arena.Close() })
	return &recordingPool{t: t, inner: arena, live: make(map[uintptr]int)}
}

func (r *recordingPool) AllocatePool(mt efi.MemoryType, size int) (unsafe.Pointer, efi.Status) {
	if r.fail {
		return nil, efi.OutOfResources
	}
	p, st := r.inner.AllocatePool(mt, size)
	if st.IsSuccess() {
		r.mu.Lock()
		r.live[uintptr(p)] = size
		r.sizes = append(r.sizes, size)
		r.raws = append(r.raws, p)
		r.mu.Unlock()
	}
	return p, st
}

func (r *recordingPool) FreePool(p unsafe.Pointer) efi.Status {
	r.mu.Lock()
	_, ok := r.live[uintptr(p)]
	delete(r.live, uintptr(p))
	r.freed = append(r.freed, p)
	r.mu.Unlock()
	if !ok && !r.allowForeign {
		r.t.Errorf("free of address %p never returned by the pool", p)
	}
	return r.inner.FreePool(p)
}

func (r *recordingPool) lastRaw() unsafe.Pointer { return r.raws[len(r.raws)-1] }

func (r *recordingPool) lastFreed() unsafe.Pointer { return r.freed[len(r.freed)-1] }

func resetDefault() { defaultAllocator.Store(nil) }
