package sim

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/devpath"
	"github.com/joshuapare/efikit/efi/ucs2"
	"github.com/joshuapare/efikit/internal/format"
)

func newFirmware(t *testing.T, cfg Config) (*Firmware, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	fw, err := New(cfg, fsys)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, fw.Close()) })
	return fw, fsys
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(`
revision = "2.10"
descriptor_size = 56
map_slack = 32

[[region]]
type = "Conventional"
start = 0x1000
pages = 4
`)
	require.NoError(t, err)
	assert.Equal(t, 56, cfg.DescriptorSize)
	assert.Equal(t, 32, cfg.MapSlack)
	assert.Equal(t, DefaultConfig().PoolSize, cfg.PoolSize)
	require.Len(t, cfg.Regions, 1)
	rev, err := cfg.revision()
	require.NoError(t, err)
	assert.Equal(t, uint32(2<<16|10), rev)
}

func TestParseConfigRejects(t *testing.T) {
	for name, data := range map[string]string{
		"unknown key":     `colour = "blue"`,
		"bad revision":    `revision = "two"`,
		"small stride":    `descriptor_size = 24`,
		"unaligned":       `descriptor_size = 44`,
		"unknown region":  "[[region]]\ntype = \"Mystery\"",
		"negative slack":  `map_slack = -1`,
		"empty pool size": `pool_size = 0`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig(data)
			require.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fw.toml")
	require.NoError(t, os.WriteFile(p, []byte(`image_path = '\EFI\app.efi'`), 0o644))
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, `\EFI\app.efi`, cfg.ImagePath)
}

func TestImageAndDevicePaths(t *testing.T) {
	fw, _ := newFirmware(t, DefaultConfig())
	assert.Equal(t, uint32(2<<16|70), fw.Revision())

	fp, err := devpath.FromPointer(fw.Image().FilePath())
	require.NoError(t, err)
	assert.Equal(t, `\EFI\BOOT\BOOTX64.EFI`, fp.String())
	assert.True(t, fw.Arena().Contains(fw.Image().FilePath()))

	dp, err := devpath.FromPointer(fw.Image().Device().Path())
	require.NoError(t, err)
	full := dp.ToOwned()
	require.NoError(t, full.PushMediaFilePath(`\x`))

	dev, rest, st := fw.LocateDevicePath(efi.SimpleFileSystemProtocol, unsafe.Pointer(unsafe.SliceData(full.Bytes())))
	require.Equal(t, efi.Success, st)
	_, ok := dev.FileSystem()
	assert.True(t, ok)
	rem, err := devpath.FromPointer(rest)
	require.NoError(t, err)
	assert.Equal(t, `\x`, rem.String())

	other := devpath.NewPathBuf()
	require.NoError(t, other.PushMediaFilePath(`\x`))
	_, _, st = fw.LocateDevicePath(efi.SimpleFileSystemProtocol, unsafe.Pointer(unsafe.SliceData(other.Bytes())))
	assert.Equal(t, efi.NotFound, st)
	_, _, st = fw.LocateDevicePath(efi.LoadedImageProtocol, unsafe.Pointer(unsafe.SliceData(full.Bytes())))
	assert.Equal(t, efi.NotFound, st)
}

func TestGetMemoryMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MapSlack = 32
	fw, _ := newFirmware(t, cfg)

	n, _, stride, ver, st := fw.GetMemoryMap(make([]byte, 160))
	require.Equal(t, efi.BufferTooSmall, st)
	assert.Equal(t, 6*48+32, n)
	assert.Equal(t, 48, stride)
	assert.Equal(t, uint32(1), ver)

	buf := make([]byte, n)
	n, key, _, _, st := fw.GetMemoryMap(buf)
	require.Equal(t, efi.Success, st)
	require.Equal(t, 288, n)
	d, err := format.DecodeMemoryDescriptor(buf[48:])
	require.NoError(t, err)
	assert.Equal(t, efi.ConventionalMemory, d.Type)
	assert.Equal(t, uint64(159), d.NumberOfPages)

	p, st := fw.AllocatePages(efi.AllocateAnyPages, efi.LoaderData, 2, 0)
	require.Equal(t, efi.Success, st)
	n, key2, _, _, st := fw.GetMemoryMap(make([]byte, 1024))
	require.Equal(t, efi.Success, st)
	assert.Equal(t, 7*48, n)
	assert.NotEqual(t, key, key2)

	assert.Equal(t, efi.InvalidParameter, fw.FreePages(p, 1))
	assert.Equal(t, efi.Success, fw.FreePages(p, 2))
	assert.Equal(t, efi.NotFound, fw.FreePages(p, 2))
	_, st = fw.AllocatePages(efi.AllocateAddress, efi.LoaderData, 1, 0x1000)
	assert.Equal(t, efi.Unsupported, st)
}

func TestExitBootServices(t *testing.T) {
	fw, _ := newFirmware(t, DefaultConfig())
	_, key, _, _, _ := fw.GetMemoryMap(make([]byte, 4096))

	p, st := fw.AllocatePool(efi.LoaderData, 16)
	require.Equal(t, efi.Success, st)
	require.Equal(t, efi.InvalidParameter, fw.ExitBootServices(key), "pool allocation changes the key")

	require.Equal(t, efi.Success, fw.FreePool(p))
	_, key, _, _, _ = fw.GetMemoryMap(make([]byte, 4096))
	require.Equal(t, efi.Success, fw.ExitBootServices(key))
	assert.True(t, fw.Exited())

	_, st = fw.AllocatePool(efi.LoaderData, 16)
	assert.Equal(t, efi.Unsupported, st)
}

func TestVolumeFiles(t *testing.T) {
	fw, fsys := newFirmware(t, DefaultConfig())
	require.NoError(t, afero.WriteFile(fsys, "/EFI/BOOT/BOOTX64.EFI", []byte("MZ"), 0o644))

	fsp, ok := fw.Image().Device().FileSystem()
	require.True(t, ok)
	root, st := fsp.OpenVolume()
	require.Equal(t, efi.Success, st)
	require.Equal(t, 1, fw.OpenFiles())

	name := ucs2.MustNew(`\EFI\BOOT\BOOTX64.EFI`)
	f, st := root.Open(name.Units(), efi.FileModeRead, 0)
	require.Equal(t, efi.Success, st)

	buf := make([]byte, 8)
	n, st := f.Read(buf)
	require.Equal(t, efi.Success, st)
	assert.Equal(t, "MZ", string(buf[:n]))
	n, st = f.Read(buf)
	require.Equal(t, efi.Success, st)
	assert.Zero(t, n)

	_, st = f.Write([]byte("x"))
	assert.Equal(t, efi.AccessDenied, st)

	n, st = f.GetInfo(efi.FileInfoID, make([]byte, format.FileInfoHeaderSize))
	require.Equal(t, efi.BufferTooSmall, st)
	info := make([]byte, n)
	n, st = f.GetInfo(efi.FileInfoID, info)
	require.Equal(t, efi.Success, st)
	fi, units, err := format.ParseFileInfo(info[:n])
	require.NoError(t, err)
	assert.Equal(t, uint64(2), fi.FileSize)
	got, err := ucs2.FromUnits(units)
	require.NoError(t, err)
	assert.Equal(t, "BOOTX64.EFI", got.String())

	require.Equal(t, efi.Success, f.Close())
	require.Equal(t, efi.InvalidParameter, f.Close())

	missing := ucs2.MustNew(`nope`)
	_, st = root.Open(missing.Units(), efi.FileModeRead, 0)
	assert.Equal(t, efi.NotFound, st)
	_, st = root.Open(missing.Units(), efi.FileModeWrite, 0)
	assert.Equal(t, efi.InvalidParameter, st)

	require.Equal(t, efi.Success, root.Close())
	assert.Zero(t, fw.OpenFiles())
}

func TestCreateWriteTruncate(t *testing.T) {
	fw, fsys := newFirmware(t, DefaultConfig())
	fsp, _ := fw.Image().Device().FileSystem()
	root, _ := fsp.OpenVolume()
	defer root.Close()

	name := ucs2.MustNew(`log.txt`)
	f, st := root.Open(name.Units(), efi.FileModeRead|efi.FileModeWrite|efi.FileModeCreate, 0)
	require.Equal(t, efi.Success, st)
	defer f.Close()

	_, st = f.Write([]byte("hello world"))
	require.Equal(t, efi.Success, st)
	require.Equal(t, efi.Success, f.Flush())

	info := make([]byte, 256)
	n, st := f.GetInfo(efi.FileInfoID, info)
	require.Equal(t, efi.Success, st)
	format.PutU64(info, format.FileInfoFileSizeOffset, 5)
	require.Equal(t, efi.Success, f.SetInfo(efi.FileInfoID, info[:n]))

	data, err := afero.ReadFile(fsys, "/log.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.Equal(t, efi.Success, f.SetPosition(^uint64(0)))
	_, st = f.Write([]byte("!"))
	require.Equal(t, efi.Success, st)
	data, _ = afero.ReadFile(fsys, "/log.txt")
	assert.Equal(t, "hello!", string(data))
}

func TestDirectoryRead(t *testing.T) {
	fw, fsys := newFirmware(t, DefaultConfig())
	require.NoError(t, afero.WriteFile(fsys, "/a.txt", []byte("1"), 0o644))
	require.NoError(t, fsys.Mkdir("/sub", 0o755))

	fsp, _ := fw.Image().Device().FileSystem()
	root, _ := fsp.OpenVolume()
	defer root.Close()

	var names []string
	for {
		buf := make([]byte, format.FileInfoHeaderSize)
		n, st := root.Read(buf)
		if st == efi.BufferTooSmall {
			buf = make([]byte, n)
			n, st = root.Read(buf)
		}
		require.Equal(t, efi.Success, st)
		if n == 0 {
			break
		}
		_, units, err := format.ParseFileInfo(buf[:n])
		require.NoError(t, err)
		s, _ := ucs2.FromUnits(units)
		names = append(names, s.String())
	}
	assert.Equal(t, []string{"a.txt", "sub"}, names)
	assert.Equal(t, efi.Unsupported, root.SetPosition(3))
	assert.Equal(t, efi.Success, root.SetPosition(0))
}
