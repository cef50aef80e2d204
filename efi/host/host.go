// Package host describes the firmware function tables consumed by the safe
// wrappers. Each interface is the Go rendition of one table slot group; the
// wrappers never assume more than what is declared here.
//
// Pointers crossing this boundary are raw: pool memory, device paths and
// image data live outside the Go heap and stay valid only until the host is
// told to release them.
package host

import (
	"unsafe"

	"github.com/joshuapare/efikit/efi"
)

// BaselineAlign is the alignment every pool allocation is guaranteed to have.
const BaselineAlign = 8

// Pool is the firmware pool allocator.
type Pool interface {
	// AllocatePool returns size bytes aligned to BaselineAlign.
	AllocatePool(mt efi.MemoryType, size int) (unsafe.Pointer, efi.Status)
	// FreePool releases memory returned by AllocatePool.
	FreePool(p unsafe.Pointer) efi.Status
}

// PageAllocator hands out whole 4 KiB pages. addr is only consulted for
// AllocateMaxAddress and AllocateAddress.
type PageAllocator interface {
	AllocatePages(at efi.AllocateType, mt efi.MemoryType, pages int, addr uint64) (unsafe.Pointer, efi.Status)
	FreePages(p unsafe.Pointer, pages int) efi.Status
}

// MemoryMapper returns the current memory map.
//
// On entry len(buf) is the caller's capacity. The returned n is the number of
// bytes written on Success, or the size required on BufferTooSmall. descSize
// is the stride between descriptors, which may exceed the descriptor struct.
type MemoryMapper interface {
	GetMemoryMap(buf []byte) (n int, key uintptr, descSize int, descVersion uint32, st efi.Status)
}

// BootServices is the subset of EFI_BOOT_SERVICES the wrappers use.
type BootServices interface {
	Pool
	PageAllocator
	MemoryMapper

	// LocateDevicePath finds the device on path that supports proto and
	// returns it together with the unmatched remainder of path.
	LocateDevicePath(proto efi.Guid, path unsafe.Pointer) (Device, unsafe.Pointer, efi.Status)

	// ExitBootServices terminates boot services if key matches the current map.
	ExitBootServices(key uintptr) efi.Status
}

// SystemTable is the entry point table handed to the image.
type SystemTable interface {
	// Revision is (major << 16) | minor.
	Revision() uint32
	BootServices() BootServices
	// Image returns the handle of the running image.
	Image() Image
}

// Image is the EFI_LOADED_IMAGE_PROTOCOL of an image handle.
type Image interface {
	Device() Device
	// FilePath points at the device path of the image file, relative to Device.
	FilePath() unsafe.Pointer
}

// Device is an EFI_HANDLE for a device.
type Device interface {
	// Path returns the device path protocol, or nil if the device has none.
	Path() unsafe.Pointer
	// FileSystem returns the simple file system protocol if supported.
	FileSystem() (FileSystem, bool)
}

// FileSystem is EFI_SIMPLE_FILE_SYSTEM_PROTOCOL.
type FileSystem interface {
	OpenVolume() (File, efi.Status)
}

// File is EFI_FILE_PROTOCOL. A File must be released with Close exactly once.
type File interface {
	// Open opens name (NUL-terminated UCS-2 units) relative to this file.
	Open(name []uint16, modes efi.FileModes, attrs efi.FileAttributes) (File, efi.Status)
	Close() efi.Status
	// Read fills buf and returns the byte count; 0 at end of file.
	Read(buf []byte) (int, efi.Status)
	Write(buf []byte) (int, efi.Status)
	SetPosition(pos uint64) efi.Status
	// GetInfo writes the info record identified by id into buf. n is the
	// size written, or the size required on BufferTooSmall.
	GetInfo(id efi.Guid, buf []byte) (n int, st efi.Status)
	SetInfo(id efi.Guid, buf []byte) efi.Status
	Flush() efi.Status
}
