// Package boot wraps the boot services table and holds the process-wide
// system state established by Init.
package boot

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/alloc"
	"github.com/joshuapare/efikit/efi/devpath"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/efi/owned"
	"github.com/joshuapare/efikit/internal/buf"
)

// ErrNoDevice is returned when the host reports success but no device.
var ErrNoDevice = errors.New("boot: host returned no device")

// Services is the safe face of the boot services table.
type Services struct {
	raw host.BootServices
	a   *alloc.Allocator
}

// NewServices wraps raw. Buffers for queries are drawn from a.
func NewServices(raw host.BootServices, a *alloc.Allocator) *Services {
	return &Services{raw: raw, a: a}
}

// Allocator returns the allocator used for query buffers.
func (s *Services) Allocator() *alloc.Allocator { return s.a }

// AllocatePool allocates size bytes of pool memory with the baseline 8-byte
// alignment. Use the Allocator for stronger alignment.
func (s *Services) AllocatePool(mt efi.MemoryType, size int) (unsafe.Pointer, error) {
	p, st := s.raw.AllocatePool(mt, size)
	if st.IsError() {
		return nil, fmt.Errorf("boot: allocate pool %d bytes: %w", size, st)
	}
	return p, nil
}

// FreePool releases memory from AllocatePool.
func (s *Services) FreePool(p unsafe.Pointer) error {
	if st := s.raw.FreePool(p); st.IsError() {
		return fmt.Errorf("boot: free pool: %w", st)
	}
	return nil
}

// Pages is a run of whole pages.
type Pages struct {
	p     unsafe.Pointer
	count int
}

// Addr returns the address of the first page.
func (pg *Pages) Addr() uintptr { return uintptr(pg.p) }

// Count returns the number of pages.
func (pg *Pages) Count() int { return pg.count }

// Bytes returns the memory of the run.
func (pg *Pages) Bytes() []byte { return buf.At(pg.p, pg.count*efi.PageSize) }

// PageCount returns the number of pages needed to hold n bytes.
func PageCount(n int) int {
	return (n + efi.PageSize - 1) / efi.PageSize
}

// AllocatePages allocates pages and ties them to FreePages.
func (s *Services) AllocatePages(at efi.AllocateType, mt efi.MemoryType, pages int, addr uint64) (*owned.Owned[Pages], error) {
	p, st := s.raw.AllocatePages(at, mt, pages, addr)
	if st.IsError() {
		return nil, fmt.Errorf("boot: allocate %d pages: %w", pages, st)
	}
	return owned.New(&Pages{p: p, count: pages}, owned.Function(func(pg *Pages) efi.Status {
		return s.raw.FreePages(pg.p, pg.count)
	})), nil
}

// LocateDevicePath finds the device on path that supports proto. The
// returned remainder is the part of path after the device's own nodes and
// aliases path.
func (s *Services) LocateDevicePath(proto efi.Guid, path devpath.Path) (*Device, devpath.Path, error) {
	dev, rest, st := s.raw.LocateDevicePath(proto, unsafe.Pointer(unsafe.SliceData(path.Bytes())))
	if st.IsError() {
		return nil, devpath.Path{}, fmt.Errorf("boot: locate %v on %q: %w", proto, path.String(), st)
	}
	if dev == nil {
		return nil, devpath.Path{}, ErrNoDevice
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(path.Bytes())))
	if uintptr(rest) < base || uintptr(rest) >= base+uintptr(path.Size()) {
		return nil, devpath.Path{}, fmt.Errorf("boot: locate %v: remainder outside path", proto)
	}
	off := uintptr(rest) - base
	remainder, err := devpath.FromBytes(path.Bytes()[off:])
	if err != nil {
		return nil, devpath.Path{}, fmt.Errorf("boot: locate remainder: %w", err)
	}
	return &Device{raw: dev, a: s.a}, remainder, nil
}

// ExitBootServices terminates boot services. m must be the latest memory
// map; any allocation since then invalidates its key. After success nothing
// in this package may be used.
func (s *Services) ExitBootServices(m *MemoryMap) error {
	if st := s.raw.ExitBootServices(m.Key()); st.IsError() {
		return fmt.Errorf("boot: exit boot services: %w", st)
	}
	return nil
}
