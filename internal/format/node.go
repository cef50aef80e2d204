package format

import (
	"fmt"

	"github.com/joshuapare/efikit/internal/buf"
)

// NodeHeader is the decoded EFI_DEVICE_PATH_PROTOCOL header.
//
// Header layout (1-byte aligned):
//
//	Offset  Size  Description
//	0x00    1     Type
//	0x01    1     Sub-type
//	0x02    2     Length of the whole node including this header (little-endian, unaligned)
type NodeHeader struct {
	Type    uint8
	SubType uint8
	Length  uint16
}

// IsEnd reports whether h is the End Entire Device Path sentinel.
func (h NodeHeader) IsEnd() bool {
	return h.Type == EndNodeType && h.SubType == EndEntireSubType
}

// DecodeNodeHeader decodes the header fields without validating them.
// b must hold at least NodeHeaderSize bytes.
func DecodeNodeHeader(b []byte) NodeHeader {
	return NodeHeader{
		Type:    b[NodeTypeOffset],
		SubType: b[NodeSubTypeOffset],
		Length:  buf.U16LE(b[NodeLengthOffset:]),
	}
}

// ParseNodeHeader decodes the node header at the start of b and checks that
// the declared length is at least the header size and fits in b.
func ParseNodeHeader(b []byte) (NodeHeader, error) {
	if len(b) < NodeHeaderSize {
		return NodeHeader{}, fmt.Errorf("node: %w", ErrTruncated)
	}
	h := DecodeNodeHeader(b)
	if h.Length < NodeHeaderSize {
		return NodeHeader{}, fmt.Errorf("node %#02x:%#02x: declared length %d: %w",
			h.Type, h.SubType, h.Length, ErrBadLength)
	}
	if int(h.Length) > len(b) {
		return NodeHeader{}, fmt.Errorf("node %#02x:%#02x: length %d exceeds %d available: %w",
			h.Type, h.SubType, h.Length, len(b), ErrTruncated)
	}
	return h, nil
}

// PutNodeHeader writes h into the first NodeHeaderSize bytes of b.
func PutNodeHeader(b []byte, h NodeHeader) {
	b[NodeTypeOffset] = h.Type
	b[NodeSubTypeOffset] = h.SubType
	buf.PutU16LE(b[NodeLengthOffset:], h.Length)
}
