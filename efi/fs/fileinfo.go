package fs

import (
	"fmt"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/query"
	"github.com/joshuapare/efikit/efi/ucs2"
	"github.com/joshuapare/efikit/internal/buf"
	"github.com/joshuapare/efikit/internal/format"
)

// FileInfo is an EFI_FILE_INFO record held in pool memory. Accessors read the
// record in place; setters modify it for a later File.SetInfo. It must be
// released with Free.
type FileInfo struct {
	res *query.Result
}

func newFileInfo(res *query.Result) (*FileInfo, error) {
	if _, _, err := format.ParseFileInfo(res.Bytes()); err != nil {
		res.Free()
		return nil, fmt.Errorf("fs: %w", err)
	}
	return &FileInfo{res: res}, nil
}

func (fi *FileInfo) b() []byte { return fi.res.Bytes() }

// Size returns the size of the record including the name.
func (fi *FileInfo) Size() int { return fi.res.Len() }

// Bytes returns the encoded record.
func (fi *FileInfo) Bytes() []byte { return fi.b() }

func (fi *FileInfo) FileSize() uint64 { return format.ReadU64(fi.b(), format.FileInfoFileSizeOffset) }
func (fi *FileInfo) SetFileSize(v uint64) {
	format.PutU64(fi.b(), format.FileInfoFileSizeOffset, v)
}

func (fi *FileInfo) PhysicalSize() uint64 {
	return format.ReadU64(fi.b(), format.FileInfoPhysicalSizeOffset)
}

func (fi *FileInfo) CreateTime() efi.Time { return fi.time(format.FileInfoCreateTimeOffset) }
func (fi *FileInfo) AccessTime() efi.Time { return fi.time(format.FileInfoAccessTimeOffset) }
func (fi *FileInfo) ModifyTime() efi.Time { return fi.time(format.FileInfoModifyTimeOffset) }

func (fi *FileInfo) SetCreateTime(t efi.Time) {
	format.PutTime(fi.b()[format.FileInfoCreateTimeOffset:], t)
}
func (fi *FileInfo) SetAccessTime(t efi.Time) {
	format.PutTime(fi.b()[format.FileInfoAccessTimeOffset:], t)
}
func (fi *FileInfo) SetModifyTime(t efi.Time) {
	format.PutTime(fi.b()[format.FileInfoModifyTimeOffset:], t)
}

func (fi *FileInfo) time(off int) efi.Time {
	b, ok := buf.Slice(fi.b(), off, format.TimeSize)
	if !ok {
		panic(fmt.Sprintf("fs: file info time at %#x out of bounds", off))
	}
	t, _ := format.DecodeTime(b)
	return t
}

func (fi *FileInfo) Attribute() efi.FileAttributes {
	return efi.FileAttributes(format.ReadU64(fi.b(), format.FileInfoAttributeOffset))
}

func (fi *FileInfo) SetAttribute(a efi.FileAttributes) {
	format.PutU64(fi.b(), format.FileInfoAttributeOffset, uint64(a))
}

// IsDir reports whether the record describes a directory.
func (fi *FileInfo) IsDir() bool { return fi.Attribute().Has(efi.FileDirectory) }

// Name returns the file name.
func (fi *FileInfo) Name() ucs2.String {
	s, err := ucs2.Decode(fi.b()[format.FileInfoNameOffset:])
	if err != nil {
		return ucs2.Empty()
	}
	return s
}

// Free releases the record.
func (fi *FileInfo) Free() { fi.res.Free() }
