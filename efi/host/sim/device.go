package sim

import (
	"bytes"
	"unsafe"

	"github.com/spf13/afero"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/devpath"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/internal/format"
	"github.com/joshuapare/efikit/internal/logger"
)

// volume is the single block device. It carries a device path and the
// simple file system protocol.
type volume struct {
	fw   *Firmware
	fs   afero.Fs
	path unsafe.Pointer
}

func (v *volume) Path() unsafe.Pointer { return v.path }

func (v *volume) FileSystem() (host.FileSystem, bool) { return v, true }

// OpenVolume implements host.FileSystem.
func (v *volume) OpenVolume() (host.File, efi.Status) {
	fi, err := v.fs.Stat("/")
	if err != nil || !fi.IsDir() {
		return nil, efi.NoMedia
	}
	return v.fw.newHandle(v, "/", efi.FileModeRead), efi.Success
}

// image is the loaded image of the running program.
type image struct {
	dev  *volume
	path unsafe.Pointer
}

func (im *image) Device() host.Device      { return im.dev }
func (im *image) FilePath() unsafe.Pointer { return im.path }

// LocateDevicePath implements host.BootServices. The volume matches when its
// device path is a prefix of path; the remainder starts right after it.
func (fw *Firmware) LocateDevicePath(proto efi.Guid, path unsafe.Pointer) (host.Device, unsafe.Pointer, efi.Status) {
	if path == nil {
		return nil, nil, efi.InvalidParameter
	}
	switch proto {
	case efi.SimpleFileSystemProtocol, efi.DevicePathProtocol:
	default:
		return nil, nil, efi.NotFound
	}
	want, err := devpath.FromPointer(path)
	if err != nil {
		return nil, nil, efi.InvalidParameter
	}
	have, err := devpath.FromPointer(fw.volume.path)
	if err != nil {
		return nil, nil, efi.DeviceError
	}
	prefix := have.Bytes()[:have.Size()-format.NodeHeaderSize]
	if !bytes.HasPrefix(want.Bytes(), prefix) {
		logger.Debug("sim: LocateDevicePath no match", "path", want.String())
		return nil, nil, efi.NotFound
	}
	return fw.volume, unsafe.Add(path, len(prefix)), efi.Success
}
