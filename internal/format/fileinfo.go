package format

import (
	"fmt"

	"github.com/joshuapare/efikit/efi"
)

// FileInfo carries the fixed header fields of an EFI_FILE_INFO.
type FileInfo struct {
	FileSize     uint64
	PhysicalSize uint64
	CreateTime   efi.Time
	AccessTime   efi.Time
	ModifyTime   efi.Time
	Attribute    efi.FileAttributes
}

// FileInfoSize returns the encoded size of a record whose name holds
// nameUnits UCS-2 code units, including the terminating NUL.
func FileInfoSize(nameUnits int) int {
	return FileInfoHeaderSize + 2*nameUnits
}

// FileInfoNameUnits returns the number of UCS-2 units (NUL included) carried
// by a record of the given total size.
func FileInfoNameUnits(size int) (int, error) {
	if size < FileInfoHeaderSize+2 || (size-FileInfoHeaderSize)%2 != 0 {
		return 0, fmt.Errorf("file info: size %d: %w", size, ErrBadLength)
	}
	return (size - FileInfoHeaderSize) / 2, nil
}

// PutFileInfo encodes fi and name (NUL-terminated UCS-2 units) into b, which
// must be at least FileInfoSize(len(name)) bytes. Returns the encoded size.
func PutFileInfo(b []byte, fi FileInfo, name []uint16) int {
	size := FileInfoSize(len(name))
	PutU64(b, FileInfoSizeOffset, uint64(size))
	PutU64(b, FileInfoFileSizeOffset, fi.FileSize)
	PutU64(b, FileInfoPhysicalSizeOffset, fi.PhysicalSize)
	PutTime(b[FileInfoCreateTimeOffset:], fi.CreateTime)
	PutTime(b[FileInfoAccessTimeOffset:], fi.AccessTime)
	PutTime(b[FileInfoModifyTimeOffset:], fi.ModifyTime)
	PutU64(b, FileInfoAttributeOffset, uint64(fi.Attribute))
	for i, u := range name {
		PutU16(b, FileInfoNameOffset+2*i, u)
	}
	return size
}

// ParseFileInfo decodes an EFI_FILE_INFO record. The record's Size field must
// agree with len(b).
func ParseFileInfo(b []byte) (FileInfo, []uint16, error) {
	if len(b) < FileInfoHeaderSize {
		return FileInfo{}, nil, fmt.Errorf("file info: %w", ErrTruncated)
	}
	size := ReadU64(b, FileInfoSizeOffset)
	if size != uint64(len(b)) {
		return FileInfo{}, nil, fmt.Errorf("file info: size field %d for %d-byte record: %w",
			size, len(b), ErrBadLength)
	}
	units, err := FileInfoNameUnits(len(b))
	if err != nil {
		return FileInfo{}, nil, err
	}
	var fi FileInfo
	fi.FileSize = ReadU64(b, FileInfoFileSizeOffset)
	fi.PhysicalSize = ReadU64(b, FileInfoPhysicalSizeOffset)
	fi.CreateTime, _ = DecodeTime(b[FileInfoCreateTimeOffset:])
	fi.AccessTime, _ = DecodeTime(b[FileInfoAccessTimeOffset:])
	fi.ModifyTime, _ = DecodeTime(b[FileInfoModifyTimeOffset:])
	fi.Attribute = efi.FileAttributes(ReadU64(b, FileInfoAttributeOffset))

	name := make([]uint16, units)
	for i := range name {
		name[i] = ReadU16(b, FileInfoNameOffset+2*i)
	}
	if name[units-1] != 0 {
		return FileInfo{}, nil, fmt.Errorf("file info: name not NUL-terminated: %w", ErrBadLength)
	}
	return fi, name, nil
}
