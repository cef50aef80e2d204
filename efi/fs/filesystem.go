package fs

import (
	"fmt"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/alloc"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/efi/owned"
)

// FileSystem is a volume exposing the simple file system protocol.
type FileSystem struct {
	raw host.FileSystem
	a   *alloc.Allocator
}

// NewFileSystem wraps raw. Info buffers are drawn from a.
func NewFileSystem(raw host.FileSystem, a *alloc.Allocator) *FileSystem {
	return &FileSystem{raw: raw, a: a}
}

// OpenRoot opens the root directory of the volume.
func (fs *FileSystem) OpenRoot() (*owned.Owned[File], error) {
	root, st := fs.raw.OpenVolume()
	if st.IsError() {
		return nil, fmt.Errorf("fs: open volume: %w", st)
	}
	return wrap(root, fs.a), nil
}

func wrap(raw host.File, a *alloc.Allocator) *owned.Owned[File] {
	return owned.New(&File{raw: raw, a: a}, owned.Function(func(f *File) efi.Status {
		return f.raw.Close()
	}))
}
