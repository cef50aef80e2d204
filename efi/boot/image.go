package boot

import (
	"fmt"

	"github.com/joshuapare/efikit/efi/alloc"
	"github.com/joshuapare/efikit/efi/devpath"
	"github.com/joshuapare/efikit/efi/fs"
	"github.com/joshuapare/efikit/efi/host"
)

// Device is a device handle.
type Device struct {
	raw host.Device
	a   *alloc.Allocator
}

// Path returns the device path of d, if it has one.
func (d *Device) Path() (devpath.Path, bool) {
	p := d.raw.Path()
	if p == nil {
		return devpath.Path{}, false
	}
	path, err := devpath.FromPointer(p)
	if err != nil {
		return devpath.Path{}, false
	}
	return path, true
}

// FileSystem returns the simple file system on d, if supported.
func (d *Device) FileSystem() (*fs.FileSystem, bool) {
	raw, ok := d.raw.FileSystem()
	if !ok {
		return nil, false
	}
	return fs.NewFileSystem(raw, d.a), true
}

// LoadedImage describes the running image.
type LoadedImage struct {
	raw host.Image
	a   *alloc.Allocator
}

// NewLoadedImage wraps raw.
func NewLoadedImage(raw host.Image, a *alloc.Allocator) *LoadedImage {
	return &LoadedImage{raw: raw, a: a}
}

// Device returns the device the image was loaded from.
func (im *LoadedImage) Device() *Device {
	return &Device{raw: im.raw.Device(), a: im.a}
}

// FilePath returns the path of the image file relative to its device.
func (im *LoadedImage) FilePath() (devpath.Path, error) {
	p, err := devpath.FromPointer(im.raw.FilePath())
	if err != nil {
		return devpath.Path{}, fmt.Errorf("boot: image file path: %w", err)
	}
	return p, nil
}
