package fs

import (
	"fmt"
	"io"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/alloc"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/efi/owned"
	"github.com/joshuapare/efikit/efi/query"
	"github.com/joshuapare/efikit/efi/ucs2"
	"github.com/joshuapare/efikit/internal/format"
)

// SeekEnd is the position that moves a file to its end.
const SeekEnd = ^uint64(0)

// File is an open file or directory handle.
type File struct {
	raw host.File
	a   *alloc.Allocator
}

// Open opens name relative to f. Names use '\' as the separator.
func (f *File) Open(name string, modes efi.FileModes, attrs efi.FileAttributes) (*owned.Owned[File], error) {
	s, err := ucs2.New(name)
	if err != nil {
		return nil, fmt.Errorf("fs: open %q: %w", name, err)
	}
	raw, st := f.raw.Open(s.Units(), modes, attrs)
	if st.IsError() {
		return nil, fmt.Errorf("fs: open %q: %w", name, st)
	}
	return wrap(raw, f.a), nil
}

// Create opens name for reading and writing, creating it if needed, and
// truncates it to zero length.
func (f *File) Create(name string, attrs efi.FileAttributes) (*owned.Owned[File], error) {
	o, err := f.Open(name, efi.FileModeRead|efi.FileModeWrite|efi.FileModeCreate, attrs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	if err := o.Get().SetLen(0); err != nil {
		_ = o.Close()
		return nil, fmt.Errorf("%w: %q: %w", ErrTruncate, name, err)
	}
	return o, nil
}

// Read implements io.Reader. A zero-length read at the end of the file
// returns io.EOF.
func (f *File) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, st := f.raw.Read(p)
	if st.IsError() {
		return 0, fmt.Errorf("fs: read: %w", st)
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	n, st := f.raw.Write(p)
	if st.IsError() {
		return n, fmt.Errorf("fs: write: %w", st)
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// SetPosition moves the file position. SeekEnd moves it to the end.
func (f *File) SetPosition(pos uint64) error {
	if st := f.raw.SetPosition(pos); st.IsError() {
		return fmt.Errorf("fs: set position %d: %w", pos, st)
	}
	return nil
}

// Flush writes buffered data to the device.
func (f *File) Flush() error {
	if st := f.raw.Flush(); st.IsError() {
		return fmt.Errorf("fs: flush: %w", st)
	}
	return nil
}

// Info returns the file's metadata record. The buffer is exactly as large
// as the record the host reported.
func (f *File) Info() (*FileInfo, error) {
	res, err := query.Run(f.a, query.Options{
		Name:  "file info",
		Guess: format.FileInfoSize(1),
		Align: format.FileInfoAlign,
		Mode:  query.Exact,
	}, func(buf []byte) (int, efi.Status) {
		return f.raw.GetInfo(efi.FileInfoID, buf)
	})
	if err != nil {
		return nil, fmt.Errorf("fs: %w", err)
	}
	return newFileInfo(res)
}

// ReadDir returns the next directory entry of a directory handle, or io.EOF
// once every entry has been returned.
func (f *File) ReadDir() (*FileInfo, error) {
	res, err := query.Run(f.a, query.Options{
		Name:  "directory entry",
		Guess: format.FileInfoSize(16),
		Align: format.FileInfoAlign,
		Mode:  query.Exact,
	}, f.raw.Read)
	if err != nil {
		return nil, fmt.Errorf("fs: %w", err)
	}
	if res.Len() == 0 {
		res.Free()
		return nil, io.EOF
	}
	return newFileInfo(res)
}

// SetLen truncates or extends the file to n bytes. Timestamps are left to
// the host.
func (f *File) SetLen(n uint64) error {
	info, err := f.Info()
	if err != nil {
		return err
	}
	defer info.Free()

	if info.Attribute().Has(efi.FileDirectory) {
		return ErrIsDirectory
	}
	info.SetFileSize(n)
	info.SetCreateTime(efi.Time{})
	info.SetAccessTime(efi.Time{})
	info.SetModifyTime(efi.Time{})
	return f.SetInfo(info)
}

// SetInfo applies info to the file.
func (f *File) SetInfo(info *FileInfo) error {
	if st := f.raw.SetInfo(efi.FileInfoID, info.Bytes()); st.IsError() {
		return fmt.Errorf("fs: set info: %w", st)
	}
	return nil
}

// ReadFile reads the whole file name relative to dir.
func ReadFile(dir *File, name string) ([]byte, error) {
	o, err := dir.Open(name, efi.FileModeRead, 0)
	if err != nil {
		return nil, err
	}
	defer o.Close()
	return io.ReadAll(o.Get())
}
