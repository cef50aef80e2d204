package devpath

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"math/bits"
	"strings"
	"unsafe"

	"github.com/joshuapare/efikit/internal/buf"
	"github.com/joshuapare/efikit/internal/format"
)

// ErrNilPath is returned by FromPointer for a nil pointer.
var ErrNilPath = errors.New("devpath: nil path pointer")

// Path is a complete device path: zero or more nodes followed by the
// sentinel. A Path is a view; it does not own its bytes.
type Path struct {
	b []byte
}

var empty = Path{b: format.EndNode[:]}

// Empty returns the path that holds only the sentinel.
func Empty() Path { return empty }

// FromBytes views the path at the start of b. The size is measured by
// walking every node up to and including the sentinel; trailing bytes are
// excluded from the result.
func FromBytes(b []byte) (Path, error) {
	off := 0
	for {
		n, err := ReadHead(b[off:])
		if err != nil {
			return Path{}, fmt.Errorf("devpath: node at offset %d: %w", off, err)
		}
		off += n.Len()
		if n.IsEnd() {
			return Path{b: b[:off:off]}, nil
		}
	}
}

// FromPointer views a path in host memory whose size is not known up front.
// The host guarantees the path is terminated; a node declaring a length
// below the header size is reported rather than looped on.
func FromPointer(p unsafe.Pointer) (Path, error) {
	if p == nil {
		return Path{}, ErrNilPath
	}
	off := 0
	for {
		h := format.DecodeNodeHeader(buf.At(unsafe.Add(p, off), format.NodeHeaderSize))
		if h.Length < format.NodeHeaderSize {
			return Path{}, fmt.Errorf("devpath: node at offset %d: declared length %d: %w",
				off, h.Length, format.ErrBadLength)
		}
		off += int(h.Length)
		if h.IsEnd() {
			return Path{b: buf.At(p, off)}, nil
		}
	}
}

// Size returns the number of bytes in the path including the sentinel.
func (p Path) Size() int { return len(p.b) }

// Bytes returns the encoded path. The result aliases p.
func (p Path) Bytes() []byte { return p.b }

// IsEmpty reports whether p holds no nodes other than the sentinel.
func (p Path) IsEmpty() bool { return len(p.b) <= format.NodeHeaderSize }

// Nodes returns a fresh iterator over p.
func (p Path) Nodes() *Iterator { return &Iterator{b: p.b} }

// All yields every node of p in order. Iteration stops quietly on a
// malformed node; use Nodes when the error matters.
func (p Path) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		it := p.Nodes()
		for n, ok := it.Next(); ok; n, ok = it.Next() {
			if !yield(n) {
				return
			}
		}
	}
}

// Equal reports whether p and o encode the same nodes.
func (p Path) Equal(o Path) bool { return bytes.Equal(p.b, o.b) }

// String renders the nodes joined with '/'. It is for display only: nodes
// that cannot be decoded and malformed trailing bytes appear inline as
// <error> text. Callers that must act on the contents walk Nodes and check
// Node.Read and Iterator.Err.
func (p Path) String() string {
	var sb strings.Builder
	it := p.Nodes()
	for n, ok := it.Next(); ok; n, ok = it.Next() {
		if sb.Len() > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(n.String())
	}
	if err := it.Err(); err != nil {
		if sb.Len() > 0 {
			sb.WriteByte('/')
		}
		fmt.Fprintf(&sb, "<%v>", err)
	}
	return sb.String()
}

// ToOwned copies p into a PathBuf. The copy's capacity is rounded up to a
// power of two so that a few pushes do not reallocate.
func (p Path) ToOwned() *PathBuf {
	src := p.b
	if len(src) == 0 {
		src = empty.b
	}
	b := make([]byte, len(src), 1<<bits.Len(uint(len(src)-1)))
	copy(b, src)
	return &PathBuf{b: b, owned: true}
}

// JoinMediaFilePath returns a copy of p with a media file path node for
// name appended.
func (p Path) JoinMediaFilePath(name string) (*PathBuf, error) {
	pb := p.ToOwned()
	if err := pb.PushMediaFilePath(name); err != nil {
		return nil, err
	}
	return pb, nil
}
