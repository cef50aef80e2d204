package efi

import "fmt"

// Guid is an EFI_GUID. The first three fields are stored little-endian on the wire.
type Guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// NewGuid builds a Guid from its canonical field split.
func NewGuid(d1 uint32, d2, d3 uint16, d4 [8]byte) Guid {
	return Guid{Data1: d1, Data2: d2, Data3: d3, Data4: d4}
}

func (g Guid) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// Protocol and information type identifiers.
var (
	SimpleFileSystemProtocol = NewGuid(0x0964e5b22, 0x6459, 0x11d2,
		[8]byte{0x8e, 0x39, 0x00, 0xa0, 0xc9, 0x69, 0x72, 0x3b})
	DevicePathProtocol = NewGuid(0x09576e91, 0x6d3f, 0x11d2,
		[8]byte{0x8e, 0x39, 0x00, 0xa0, 0xc9, 0x69, 0x72, 0x3b})
	LoadedImageProtocol = NewGuid(0x5b1b31a1, 0x9562, 0x11d2,
		[8]byte{0x8e, 0x3f, 0x00, 0xa0, 0xc9, 0x69, 0x72, 0x3b})
	FileInfoID = NewGuid(0x09576e92, 0x6d3f, 0x11d2,
		[8]byte{0x8e, 0x39, 0x00, 0xa0, 0xc9, 0x69, 0x72, 0x3b})
)
