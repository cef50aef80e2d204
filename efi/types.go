package efi

import (
	"strconv"
	"strings"
)

// MemoryType is an EFI_MEMORY_TYPE.
type MemoryType uint32

const (
	ReservedMemoryType MemoryType = iota
	LoaderCode
	LoaderData
	BootServicesCode
	BootServicesData
	RuntimeServicesCode
	RuntimeServicesData
	ConventionalMemory
	UnusableMemory
	ACPIReclaimMemory
	ACPIMemoryNVS
	MemoryMappedIO
	MemoryMappedIOPortSpace
	PalCode
	PersistentMemory
)

var memoryTypeNames = [...]string{
	"Reserved", "LoaderCode", "LoaderData", "BootServicesCode", "BootServicesData",
	"RuntimeServicesCode", "RuntimeServicesData", "Conventional", "Unusable",
	"ACPIReclaim", "ACPINVS", "MMIO", "MMIOPortSpace", "PalCode", "Persistent",
}

func (t MemoryType) String() string {
	if int(t) < len(memoryTypeNames) {
		return memoryTypeNames[t]
	}
	return "MemoryType(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// ParseMemoryType is the inverse of MemoryType.String.
func ParseMemoryType(s string) (MemoryType, bool) {
	for i, n := range memoryTypeNames {
		if strings.EqualFold(n, s) {
			return MemoryType(i), true
		}
	}
	return 0, false
}

// AllocateType is an EFI_ALLOCATE_TYPE.
type AllocateType uint32

const (
	AllocateAnyPages AllocateType = iota
	AllocateMaxAddress
	AllocateAddress
)

// PageSize is the granularity of page allocations.
const PageSize = 4096

// MemoryDescriptor is one EFI_MEMORY_DESCRIPTOR entry of the memory map.
type MemoryDescriptor struct {
	Type          MemoryType
	PhysicalStart uint64
	VirtualStart  uint64
	NumberOfPages uint64
	Attribute     uint64
}

// FileModes controls how a file is opened. Valid combinations are read,
// read/write and create/read/write.
type FileModes uint64

const (
	FileModeRead   FileModes = 0x0000000000000001
	FileModeWrite  FileModes = 0x0000000000000002
	FileModeCreate FileModes = 0x8000000000000000
)

// FileAttributes are the attribute bits of a file.
type FileAttributes uint64

const (
	FileReadOnly  FileAttributes = 0x01
	FileHidden    FileAttributes = 0x02
	FileSystem    FileAttributes = 0x04
	FileReserved  FileAttributes = 0x08
	FileDirectory FileAttributes = 0x10
	FileArchive   FileAttributes = 0x20
)

// Has reports whether all bits of f are set in a.
func (a FileAttributes) Has(f FileAttributes) bool { return a&f == f }

// Time is an EFI_TIME.
type Time struct {
	Year       uint16
	Month      uint8
	Day        uint8
	Hour       uint8
	Minute     uint8
	Second     uint8
	Nanosecond uint32
	TimeZone   int16
	Daylight   uint8
}

// IsZero reports whether t is the all-zero time, which hosts treat as "unchanged".
func (t Time) IsZero() bool { return t == Time{} }
