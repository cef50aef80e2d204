package format

import (
	"fmt"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/internal/buf"
)

// DecodeMemoryDescriptor reads one EFI_MEMORY_DESCRIPTOR from the start of b.
func DecodeMemoryDescriptor(b []byte) (efi.MemoryDescriptor, error) {
	if !buf.Has(b, 0, MemoryDescriptorSize) {
		return efi.MemoryDescriptor{}, fmt.Errorf("memory descriptor: %w", ErrTruncated)
	}
	return efi.MemoryDescriptor{
		Type:          efi.MemoryType(ReadU32(b, MemDescTypeOffset)),
		PhysicalStart: ReadU64(b, MemDescPhysicalStartOffset),
		VirtualStart:  ReadU64(b, MemDescVirtualStartOffset),
		NumberOfPages: ReadU64(b, MemDescPagesOffset),
		Attribute:     ReadU64(b, MemDescAttributeOffset),
	}, nil
}

// PutMemoryDescriptor encodes d at the start of b and zeroes the padding.
func PutMemoryDescriptor(b []byte, d efi.MemoryDescriptor) {
	clear(b[:MemoryDescriptorSize])
	PutU32(b, MemDescTypeOffset, uint32(d.Type))
	PutU64(b, MemDescPhysicalStartOffset, d.PhysicalStart)
	PutU64(b, MemDescVirtualStartOffset, d.VirtualStart)
	PutU64(b, MemDescPagesOffset, d.NumberOfPages)
	PutU64(b, MemDescAttributeOffset, d.Attribute)
}
