package devpath

import (
	"errors"
	"fmt"

	"github.com/joshuapare/efikit/efi/ucs2"
	"github.com/joshuapare/efikit/internal/format"
)

// ErrUnsupportedNode indicates a node kind this package cannot decode.
// Guessing at its layout would desynchronise everything after it, so callers
// get an error instead of a skipped node.
var ErrUnsupportedNode = errors.New("devpath: unsupported node")

// Type is the major type of a node.
type Type uint8

// SubType is the minor type of a node; its meaning depends on Type.
type SubType uint8

const (
	HardwareType  Type = format.HardwareNodeType
	ACPIType      Type = format.ACPINodeType
	MessagingType Type = format.MessagingNodeType
	MediaType     Type = format.MediaNodeType
	BBSType       Type = format.BBSNodeType
	EndType       Type = format.EndNodeType

	MediaFilePathSubType SubType = format.MediaFilePathSubType
	EndInstanceSubType   SubType = format.EndInstanceSubType
	EndEntireSubType     SubType = format.EndEntireSubType
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case HardwareType:
		return "HardwarePath"
	case ACPIType:
		return "AcpiPath"
	case MessagingType:
		return "Msg"
	case MediaType:
		return "MediaPath"
	case BBSType:
		return "BbsPath"
	case EndType:
		return "End"
	default:
		return fmt.Sprintf("Path[%02x]", uint8(t))
	}
}

// Node is a view of one node. It aliases the path's memory.
type Node struct {
	b []byte // exactly Len() bytes
}

// ReadHead views the node at the start of b without copying. The declared
// length must be at least the header size and fit in b.
func ReadHead(b []byte) (Node, error) {
	h, err := format.ParseNodeHeader(b)
	if err != nil {
		return Node{}, err
	}
	return Node{b: b[:h.Length:h.Length]}, nil
}

func (n Node) Type() Type       { return Type(n.b[format.NodeTypeOffset]) }
func (n Node) SubType() SubType { return SubType(n.b[format.NodeSubTypeOffset]) }

// Len returns the node length including its header.
func (n Node) Len() int { return len(n.b) }

// Payload returns the bytes after the header.
func (n Node) Payload() []byte { return n.b[format.NodeHeaderSize:] }

// Bytes returns the whole node.
func (n Node) Bytes() []byte { return n.b }

// IsEnd reports whether n is the End Entire Device Path sentinel.
func (n Node) IsEnd() bool {
	return n.Type() == EndType && n.SubType() == EndEntireSubType
}

// Data is a decoded node payload.
type Data interface {
	fmt.Stringer
	node() (Type, SubType)
}

// MediaFilePath is a media file path node: a NUL-terminated UCS-2 path
// relative to the device that precedes it.
type MediaFilePath struct {
	Name ucs2.String
}

func (MediaFilePath) node() (Type, SubType) { return MediaType, MediaFilePathSubType }

func (m MediaFilePath) String() string { return m.Name.String() }

// Read decodes the node payload. Kinds other than the media file path return
// ErrUnsupportedNode.
func (n Node) Read() (Data, error) {
	switch {
	case n.Type() == MediaType && n.SubType() == MediaFilePathSubType:
		name, err := ucs2.Decode(n.Payload())
		if err != nil {
			return nil, fmt.Errorf("devpath: media file path: %w", err)
		}
		if 2*len(name.Units()) != len(n.Payload()) {
			return nil, fmt.Errorf("devpath: media file path: %d payload bytes after terminator",
				len(n.Payload())-2*len(name.Units()))
		}
		return MediaFilePath{Name: name}, nil
	default:
		return nil, fmt.Errorf("%w: type %#x (%v) sub-type %#x", ErrUnsupportedNode,
			uint8(n.Type()), n.Type(), uint8(n.SubType()))
	}
}

// String renders the decoded payload, or a bracketed error for nodes that
// cannot be decoded. Use Read to get the error itself.
func (n Node) String() string {
	d, err := n.Read()
	if err != nil {
		return fmt.Sprintf("%v(%#02x,<%v>)", n.Type(), uint8(n.SubType()), err)
	}
	return d.String()
}
