// Package debug writes a debug log to a file next to the running image,
// e.g. \EFI\BOOT\BOOTX64.EFI.log.
//
//	sys, err := boot.Init(st, boot.WithDebugWriter(func(s *boot.System) (io.Writer, error) {
//	    return debug.NextToImage(s, "log")
//	}))
package debug

import (
	"errors"
	"fmt"

	"github.com/joshuapare/efikit/efi/boot"
	"github.com/joshuapare/efikit/efi/devpath"
	"github.com/joshuapare/efikit/efi/fs"
	"github.com/joshuapare/efikit/efi/owned"
	"github.com/joshuapare/efikit/efi/ucs2"
)

var (
	// ErrUnsupportedLocation indicates the image is not on a file system
	// or its path is not a plain file path.
	ErrUnsupportedLocation = errors.New("debug: unsupported image location")
	// ErrUnsupportedExtension indicates an extension that cannot be encoded.
	ErrUnsupportedExtension = errors.New("debug: unsupported extension")
)

// File is a debug log. Every write is flushed to the device.
type File struct {
	file *owned.Owned[fs.File]
}

// NextToImage creates (or truncates) the file "<image path>.<ext>" on the
// volume the image was loaded from. ext has no leading dot.
func NextToImage(sys *boot.System, ext string) (*File, error) {
	im := sys.Image()
	vol, ok := im.Device().FileSystem()
	if !ok {
		return nil, ErrUnsupportedLocation
	}
	imagePath, err := im.FilePath()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedLocation, err)
	}

	root, err := vol.OpenRoot()
	if err != nil {
		return nil, fmt.Errorf("debug: open root of %q: %w", imagePath.String(), err)
	}
	defer root.Close()

	name, err := logName(imagePath, ext)
	if err != nil {
		return nil, err
	}
	f, err := root.Get().Create(name.String(), 0)
	if err != nil {
		return nil, fmt.Errorf("debug: create %q: %w", name.String(), err)
	}
	return &File{file: f}, nil
}

func logName(imagePath devpath.Path, ext string) (ucs2.String, error) {
	it := imagePath.Nodes()
	n, ok := it.Next()
	if !ok {
		return ucs2.String{}, fmt.Errorf("%w: empty image path", ErrUnsupportedLocation)
	}
	d, err := n.Read()
	if err != nil {
		return ucs2.String{}, fmt.Errorf("%w: %w", ErrUnsupportedLocation, err)
	}
	mfp, ok := d.(devpath.MediaFilePath)
	if !ok {
		return ucs2.String{}, ErrUnsupportedLocation
	}
	name := mfp.Name
	name.Push(ucs2.FullStop)
	if err := name.PushString(ext); err != nil {
		return ucs2.String{}, fmt.Errorf("%w: %w", ErrUnsupportedExtension, err)
	}
	return name, nil
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	n, err := f.file.Get().Write(p)
	if err != nil {
		return n, err
	}
	return n, f.file.Get().Flush()
}

// Close closes the log file.
func (f *File) Close() error { return f.file.Close() }
