// Package sim is an in-process firmware that implements the host tables on
// ordinary operating-system memory and an afero file system. Pool memory is
// a real mapping with only the baseline 8-byte alignment, so alignment bugs
// in callers surface here the same way they would on hardware.
package sim

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/spf13/afero"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/devpath"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/internal/logger"
	"github.com/joshuapare/efikit/internal/mmap"
)

// Firmware is a simulated machine with one volume and one loaded image.
type Firmware struct {
	cfg      Config
	revision uint32
	arena    *host.Arena

	mu     sync.Mutex
	pages  map[uintptr]*pageRun
	mapKey uintptr
	exited bool

	volume *volume
	image  *image
	open   atomic.Int64
}

type pageRun struct {
	mem     []byte
	mt      efi.MemoryType
	release func() error
}

var (
	_ host.SystemTable  = (*Firmware)(nil)
	_ host.BootServices = (*Firmware)(nil)
)

// New boots a firmware over fsys. The device path of the volume and the
// image file path are placed in pool memory, as real firmware does.
func New(cfg Config, fsys afero.Fs) (*Firmware, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rev, _ := cfg.revision()
	arena, err := host.NewArena(cfg.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("sim: pool: %w", err)
	}
	fw := &Firmware{
		cfg:      cfg,
		revision: rev,
		arena:    arena,
		pages:    make(map[uintptr]*pageRun),
	}

	devPath := devpath.NewPathBuf()
	if err := devPath.Push(devpath.HardwareType, 1, []byte{0x00, 0x1F}); err != nil {
		_ = arena.Close()
		return nil, err
	}
	devPtr, err := fw.place(devPath.Bytes())
	if err != nil {
		_ = arena.Close()
		return nil, err
	}
	fw.volume = &volume{fw: fw, fs: fsys, path: devPtr}

	filePath := devpath.NewPathBuf()
	if err := filePath.PushMediaFilePath(cfg.ImagePath); err != nil {
		_ = arena.Close()
		return nil, fmt.Errorf("sim: image path: %w", err)
	}
	filePtr, err := fw.place(filePath.Bytes())
	if err != nil {
		_ = arena.Close()
		return nil, err
	}
	fw.image = &image{dev: fw.volume, path: filePtr}

	logger.Debug("sim: firmware up", "revision", cfg.Revision, "pool", cfg.PoolSize,
		"image", cfg.ImagePath)
	return fw, nil
}

// place copies b into pool memory owned by the firmware.
func (fw *Firmware) place(b []byte) (unsafe.Pointer, error) {
	p, st := fw.arena.AllocatePool(efi.BootServicesData, len(b))
	if st.IsError() {
		return nil, fmt.Errorf("sim: place %d bytes: %w", len(b), st)
	}
	copy(unsafe.Slice((*byte)(p), len(b)), b)
	return p, nil
}

// Close releases the pool and every page run still allocated.
func (fw *Firmware) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for addr, run := range fw.pages {
		_ = run.release()
		delete(fw.pages, addr)
	}
	return fw.arena.Close()
}

// Arena exposes the pool for inspection.
func (fw *Firmware) Arena() *host.Arena { return fw.arena }

// OpenFiles returns the number of file handles not yet closed.
func (fw *Firmware) OpenFiles() int { return int(fw.open.Load()) }

// Exited reports whether ExitBootServices has succeeded.
func (fw *Firmware) Exited() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.exited
}

// Revision implements host.SystemTable.
func (fw *Firmware) Revision() uint32 { return fw.revision }

// BootServices implements host.SystemTable.
func (fw *Firmware) BootServices() host.BootServices { return fw }

// Image implements host.SystemTable.
func (fw *Firmware) Image() host.Image { return fw.image }

// mutate reports whether boot services may be used and, if so, marks the
// memory map as changed. Callers hold fw.mu.
func (fw *Firmware) mutate() bool {
	if fw.exited {
		return false
	}
	fw.mapKey++
	return true
}

// AllocatePool implements host.Pool.
func (fw *Firmware) AllocatePool(mt efi.MemoryType, size int) (unsafe.Pointer, efi.Status) {
	fw.mu.Lock()
	ok := fw.mutate()
	fw.mu.Unlock()
	if !ok {
		return nil, efi.Unsupported
	}
	p, st := fw.arena.AllocatePool(mt, size)
	logger.Debug("sim: AllocatePool", "type", mt, "size", size, "status", st)
	return p, st
}

// FreePool implements host.Pool.
func (fw *Firmware) FreePool(p unsafe.Pointer) efi.Status {
	fw.mu.Lock()
	ok := fw.mutate()
	fw.mu.Unlock()
	if !ok {
		return efi.Unsupported
	}
	st := fw.arena.FreePool(p)
	logger.Debug("sim: FreePool", "status", st)
	return st
}

// AllocatePages implements host.PageAllocator. Only AllocateAnyPages is
// supported; the simulation cannot place memory at a chosen address.
func (fw *Firmware) AllocatePages(at efi.AllocateType, mt efi.MemoryType, pages int, _ uint64) (unsafe.Pointer, efi.Status) {
	if at != efi.AllocateAnyPages {
		return nil, efi.Unsupported
	}
	if pages <= 0 {
		return nil, efi.InvalidParameter
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.mutate() {
		return nil, efi.Unsupported
	}
	mem, release, err := mmap.Anon(pages * efi.PageSize)
	if err != nil {
		logger.Warn("sim: AllocatePages", "pages", pages, "err", err)
		return nil, efi.OutOfResources
	}
	p := unsafe.Pointer(unsafe.SliceData(mem))
	fw.pages[uintptr(p)] = &pageRun{mem: mem, mt: mt, release: release}
	logger.Debug("sim: AllocatePages", "type", mt, "pages", pages)
	return p, efi.Success
}

// FreePages implements host.PageAllocator.
func (fw *Firmware) FreePages(p unsafe.Pointer, pages int) efi.Status {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.mutate() {
		return efi.Unsupported
	}
	run, ok := fw.pages[uintptr(p)]
	if !ok {
		return efi.NotFound
	}
	if len(run.mem) != pages*efi.PageSize {
		return efi.InvalidParameter
	}
	delete(fw.pages, uintptr(p))
	if err := run.release(); err != nil {
		logger.Warn("sim: FreePages", "err", err)
		return efi.DeviceError
	}
	return efi.Success
}

// ExitBootServices implements host.BootServices. key must match the key of
// the latest memory map.
func (fw *Firmware) ExitBootServices(key uintptr) efi.Status {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.exited {
		return efi.Unsupported
	}
	if key != fw.mapKey {
		logger.Debug("sim: ExitBootServices stale key", "key", key, "want", fw.mapKey)
		return efi.InvalidParameter
	}
	fw.exited = true
	return efi.Success
}
