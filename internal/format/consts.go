// Package format houses the fixed binary layouts exchanged with the firmware:
// the device path node header, EFI_TIME, EFI_FILE_INFO and
// EFI_MEMORY_DESCRIPTOR. Decoders work on byte slices and never assume the
// natural alignment of multi-byte fields.
package format

// EndNode is the sentinel that terminates every device path
// (End of Hardware Device Path / End Entire Device Path).
//
//	Offset  Size  Value
//	0x00    1     0x7F
//	0x01    1     0xFF
//	0x02    2     0x0004 (little-endian)
var EndNode = [NodeHeaderSize]byte{EndNodeType, EndEntireSubType, NodeHeaderSize, 0x00}

const (
	// NodeHeaderSize is the size of EFI_DEVICE_PATH_PROTOCOL: type, sub-type
	// and a 2-byte length that includes the header itself.
	NodeHeaderSize = 4

	NodeTypeOffset    = 0x00
	NodeSubTypeOffset = 0x01
	NodeLengthOffset  = 0x02

	// MaxNodeLength is the largest length the 16-bit field can express.
	MaxNodeLength = 0xFFFF

	HardwareNodeType  = 0x01
	ACPINodeType      = 0x02
	MessagingNodeType = 0x03
	MediaNodeType     = 0x04
	BBSNodeType       = 0x05
	EndNodeType       = 0x7F

	MediaFilePathSubType = 0x04
	EndInstanceSubType   = 0x01
	EndEntireSubType     = 0xFF
)

// EFI_TIME layout.
const (
	TimeSize = 16

	TimeYearOffset       = 0x00 // u16
	TimeMonthOffset      = 0x02
	TimeDayOffset        = 0x03
	TimeHourOffset       = 0x04
	TimeMinuteOffset     = 0x05
	TimeSecondOffset     = 0x06
	TimeNanosecondOffset = 0x08 // u32
	TimeZoneOffset       = 0x0C // i16
	TimeDaylightOffset   = 0x0E
)

// EFI_FILE_INFO layout. The header is followed by a NUL-terminated UCS-2
// file name whose length is implied by the Size field.
const (
	FileInfoHeaderSize = 0x50

	FileInfoSizeOffset         = 0x00 // u64, total size including name
	FileInfoFileSizeOffset     = 0x08 // u64
	FileInfoPhysicalSizeOffset = 0x10 // u64
	FileInfoCreateTimeOffset   = 0x18 // EFI_TIME
	FileInfoAccessTimeOffset   = 0x28 // EFI_TIME
	FileInfoModifyTimeOffset   = 0x38 // EFI_TIME
	FileInfoAttributeOffset    = 0x48 // u64
	FileInfoNameOffset         = FileInfoHeaderSize

	// FileInfoAlign is the alignment of the fixed header fields.
	FileInfoAlign = 8
)

// EFI_MEMORY_DESCRIPTOR layout. Firmware reports its own descriptor stride,
// which may exceed MemoryDescriptorSize; entries must be walked by stride.
const (
	MemoryDescriptorSize = 40

	MemDescTypeOffset          = 0x00 // u32, followed by 4 bytes of padding
	MemDescPhysicalStartOffset = 0x08 // u64
	MemDescVirtualStartOffset  = 0x10 // u64
	MemDescPagesOffset         = 0x18 // u64
	MemDescAttributeOffset     = 0x20 // u64

	// MemoryDescriptorVersion is the only descriptor version understood.
	MemoryDescriptorVersion = 1
)
