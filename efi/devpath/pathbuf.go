package devpath

import (
	"fmt"

	"github.com/joshuapare/efikit/efi/ucs2"
	"github.com/joshuapare/efikit/internal/format"
)

// PathBuf is a growable device path. It starts out borrowing an existing
// Path and copies on the first mutation. The bytes always end with the
// sentinel.
type PathBuf struct {
	b     []byte
	owned bool
}

// NewPathBuf returns an owned, empty path.
func NewPathBuf() *PathBuf {
	return Empty().ToOwned()
}

// Borrow wraps p without copying. The first Push copies.
func Borrow(p Path) *PathBuf {
	if len(p.b) == 0 {
		p = empty
	}
	return &PathBuf{b: p.b}
}

// IsOwned reports whether pb has copied its bytes.
func (pb *PathBuf) IsOwned() bool { return pb.owned }

// Path returns a view of the current contents. The view is invalidated by
// the next Push.
func (pb *PathBuf) Path() Path { return Path{b: pb.b} }

// Bytes returns the encoded path including the sentinel.
func (pb *PathBuf) Bytes() []byte { return pb.b }

// Size returns the encoded size including the sentinel.
func (pb *PathBuf) Size() int { return len(pb.b) }

// String implements fmt.Stringer.
func (pb *PathBuf) String() string { return pb.Path().String() }

// Push appends a node built from t, st and payload. The sentinel is
// overwritten by the new header and a fresh sentinel is appended, so the
// path grows by exactly len(payload)+4 bytes.
func (pb *PathBuf) Push(t Type, st SubType, payload []byte) error {
	n := format.NodeHeaderSize + len(payload)
	if n > format.MaxNodeLength {
		return fmt.Errorf("devpath: node of %d bytes: %w", n, format.ErrBadLength)
	}
	if t == EndType {
		return fmt.Errorf("devpath: push of end node %#02x: %w", uint8(st), ErrUnsupportedNode)
	}
	pb.reserve(n)
	body := pb.b[:len(pb.b)-format.NodeHeaderSize]
	var hdr [format.NodeHeaderSize]byte
	format.PutNodeHeader(hdr[:], format.NodeHeader{Type: uint8(t), SubType: uint8(st), Length: uint16(n)})
	body = append(body, hdr[:]...)
	body = append(body, payload...)
	pb.b = append(body, format.EndNode[:]...)
	return nil
}

// PushMediaFilePath appends a media file path node for name.
func (pb *PathBuf) PushMediaFilePath(name string) error {
	s, err := ucs2.New(name)
	if err != nil {
		return fmt.Errorf("devpath: media file path %q: %w", name, err)
	}
	return pb.Push(MediaType, MediaFilePathSubType, s.Bytes())
}

// reserve makes pb owned with room for grow more bytes.
func (pb *PathBuf) reserve(grow int) {
	if pb.owned && cap(pb.b)-len(pb.b) >= grow {
		return
	}
	b := make([]byte, len(pb.b), len(pb.b)+grow)
	copy(b, pb.b)
	pb.b = b
	pb.owned = true
}
