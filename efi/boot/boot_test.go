package boot

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"unsafe"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/alloc"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/efi/host/sim"
)

// sizedPool records the size of every pool block it frees.
type sizedPool struct {
	host.Pool
	mu    sync.Mutex
	sizes map[unsafe.Pointer]int
	freed []int
}

func (p *sizedPool) AllocatePool(mt efi.MemoryType, size int) (unsafe.Pointer, efi.Status) {
	ptr, st := p.Pool.AllocatePool(mt, size)
	if st.IsSuccess() {
		p.mu.Lock()
		p.sizes[ptr] = size
		p.mu.Unlock()
	}
	return ptr, st
}

func (p *sizedPool) FreePool(ptr unsafe.Pointer) efi.Status {
	p.mu.Lock()
	p.freed = append(p.freed, p.sizes[ptr])
	delete(p.sizes, ptr)
	p.mu.Unlock()
	return p.Pool.FreePool(ptr)
}

func newSim(t *testing.T, cfg sim.Config) (*sim.Firmware, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	fw, err := sim.New(cfg, fsys)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close() })
	return fw, fsys
}

func TestMemoryMapGrowsThenTrims(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.MapSlack = 32
	fw, _ := newSim(t, cfg)
	pool := &sizedPool{Pool: fw, sizes: map[unsafe.Pointer]int{}}
	s := NewServices(fw, alloc.New(pool))

	m, err := s.MemoryMap(160)
	require.NoError(t, err)

	assert.Equal(t, 288, len(m.Bytes()))
	assert.Zero(t, len(m.Bytes())%m.DescriptorSize())
	assert.Equal(t, 48, m.DescriptorSize())
	assert.Equal(t, 6, m.Len())
	assert.Equal(t, 2, s.Allocator().Stats().Allocs)
	// One intermediate 160-byte buffer, plus its trailing adjustment word.
	assert.Equal(t, []int{160 + 8}, pool.freed)

	var types []efi.MemoryType
	for _, d := range m.All() {
		types = append(types, d.Type)
	}
	assert.Equal(t, []efi.MemoryType{
		efi.BootServicesCode, efi.ConventionalMemory, efi.ReservedMemoryType,
		efi.LoaderCode, efi.ConventionalMemory, efi.ACPIReclaimMemory,
	}, types)
	assert.Equal(t, uint64(0x1000), m.At(1).PhysicalStart)
	assert.Panics(t, func() { m.At(6) })

	m.Free()
	assert.Zero(t, s.Allocator().Stats().LiveBlocks)
}

// stridedMapper reports a map whose length is not a whole number of
// descriptors.
type stridedMapper struct {
	*sim.Firmware
	n       int
	version uint32
}

func (m *stridedMapper) GetMemoryMap(b []byte) (int, uintptr, int, uint32, efi.Status) {
	if len(b) < m.n {
		return m.n, 1, 48, m.version, efi.BufferTooSmall
	}
	return m.n, 1, 48, m.version, efi.Success
}

func TestMemoryMapStrideMismatchPanics(t *testing.T) {
	fw, _ := newSim(t, sim.DefaultConfig())
	a := alloc.New(fw)

	s := NewServices(&stridedMapper{Firmware: fw, n: 100, version: 1}, a)
	assert.Panics(t, func() { _, _ = s.MemoryMap(0) })
	assert.Zero(t, a.Stats().LiveBlocks, "buffer released before the panic")

	s = NewServices(&stridedMapper{Firmware: fw, n: 96, version: 2}, a)
	assert.Panics(t, func() { _, _ = s.MemoryMap(0) })
}

func TestPages(t *testing.T) {
	fw, _ := newSim(t, sim.DefaultConfig())
	s := NewServices(fw, alloc.New(fw))

	assert.Equal(t, 0, PageCount(0))
	assert.Equal(t, 1, PageCount(1))
	assert.Equal(t, 1, PageCount(efi.PageSize))
	assert.Equal(t, 2, PageCount(efi.PageSize+1))

	pg, err := s.AllocatePages(efi.AllocateAnyPages, efi.LoaderData, 2, 0)
	require.NoError(t, err)
	b := pg.Get().Bytes()
	require.Len(t, b, 2*efi.PageSize)
	assert.Zero(t, pg.Get().Addr()%efi.PageSize)
	b[0], b[len(b)-1] = 1, 2

	m, err := s.MemoryMap(0)
	require.NoError(t, err)
	assert.Equal(t, 7, m.Len())
	m.Free()

	require.NoError(t, pg.Close())
	require.NoError(t, pg.Close())

	_, err = s.AllocatePages(efi.AllocateAddress, efi.LoaderData, 1, 0x1000)
	require.ErrorIs(t, err, efi.Unsupported)
}

func TestPool(t *testing.T) {
	fw, _ := newSim(t, sim.DefaultConfig())
	s := NewServices(fw, alloc.New(fw))

	p, err := s.AllocatePool(efi.LoaderData, 24)
	require.NoError(t, err)
	assert.Zero(t, uintptr(p)%host.BaselineAlign)
	require.NoError(t, s.FreePool(p))
	require.ErrorIs(t, s.FreePool(p), efi.InvalidParameter)
}

func TestLocateDevicePathAndImage(t *testing.T) {
	fw, fsys := newSim(t, sim.DefaultConfig())
	require.NoError(t, afero.WriteFile(fsys, "/EFI/BOOT/BOOTX64.EFI", []byte("MZ"), 0o644))
	a := alloc.New(fw)
	s := NewServices(fw, a)
	im := NewLoadedImage(fw.Image(), a)

	fp, err := im.FilePath()
	require.NoError(t, err)
	assert.Equal(t, `\EFI\BOOT\BOOTX64.EFI`, fp.String())

	devPath, ok := im.Device().Path()
	require.True(t, ok)
	full := devPath.ToOwned()
	for n := range fp.All() {
		require.NoError(t, full.Push(n.Type(), n.SubType(), n.Payload()))
	}

	dev, rest, err := s.LocateDevicePath(efi.SimpleFileSystemProtocol, full.Path())
	require.NoError(t, err)
	assert.True(t, rest.Equal(fp))

	vol, ok := dev.FileSystem()
	require.True(t, ok)
	root, err := vol.OpenRoot()
	require.NoError(t, err)
	defer root.Close()
	f, err := root.Get().Open(rest.String(), efi.FileModeRead, 0)
	require.NoError(t, err)
	data, err := io.ReadAll(f.Get())
	require.NoError(t, err)
	assert.Equal(t, "MZ", string(data))
	require.NoError(t, f.Close())

	_, _, err = s.LocateDevicePath(efi.SimpleFileSystemProtocol, fp)
	require.ErrorIs(t, err, efi.NotFound)
}

func TestExitBootServices(t *testing.T) {
	fw, _ := newSim(t, sim.DefaultConfig())
	s := NewServices(fw, alloc.New(fw))

	m, err := s.MemoryMap(0)
	require.NoError(t, err)
	require.NoError(t, s.ExitBootServices(m))
	assert.True(t, fw.Exited())
}

func TestExitBootServicesStaleKey(t *testing.T) {
	fw, _ := newSim(t, sim.DefaultConfig())
	s := NewServices(fw, alloc.New(fw))

	m, err := s.MemoryMap(0)
	require.NoError(t, err)
	m.Free()
	require.ErrorIs(t, s.ExitBootServices(m), efi.InvalidParameter)
	assert.False(t, fw.Exited())
}

func resetSystem(t *testing.T) {
	t.Helper()
	prev := setDefaultAllocator
	setDefaultAllocator = func(*alloc.Allocator) {}
	current.Store(nil)
	t.Cleanup(func() {
		setDefaultAllocator = prev
		current.Store(nil)
	})
}

func TestInit(t *testing.T) {
	resetSystem(t)
	fw, _ := newSim(t, sim.DefaultConfig())

	var log bytes.Buffer
	sys, err := Init(fw, WithDebugWriter(func(s *System) (io.Writer, error) {
		_, err := s.Image().FilePath()
		return &log, err
	}))
	require.NoError(t, err)
	assert.Same(t, sys, Current())
	assert.Equal(t, fw.Revision(), sys.Revision())

	sys.Debugf("hello %d", 42)
	assert.Equal(t, "hello 42\n", log.String())

	_, err = Init(fw)
	require.ErrorIs(t, err, ErrInitialized)
}

func TestInitDebugWriterFailure(t *testing.T) {
	resetSystem(t)
	fw, _ := newSim(t, sim.DefaultConfig())

	sys, err := Init(fw, WithDebugWriter(func(*System) (io.Writer, error) {
		return nil, errors.New("no volume")
	}))
	require.NoError(t, err)
	assert.Nil(t, sys.DebugWriter())
	sys.Debugf("dropped")
}

func TestInitRejectsOldFirmware(t *testing.T) {
	resetSystem(t)
	cfg := sim.DefaultConfig()
	cfg.Revision = "1.2"
	fw, _ := newSim(t, cfg)

	_, err := Init(fw)
	require.ErrorIs(t, err, ErrRevision)
	assert.Panics(t, func() { Current() })
}

func TestDeviceWithoutProtocols(t *testing.T) {
	d := &Device{raw: pathless{}}
	_, ok := d.Path()
	assert.False(t, ok)
	_, ok = d.FileSystem()
	assert.False(t, ok)
}

type pathless struct{}

func (pathless) Path() unsafe.Pointer                { return nil }
func (pathless) FileSystem() (host.FileSystem, bool) { return nil, false }
