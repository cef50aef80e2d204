package alloc

import (
	"fmt"

	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/internal/buf"
)

// Layout describes the size and alignment of a requested block.
type Layout struct {
	Size  int
	Align int
}

// NewLayout validates size and align.
func NewLayout(size, align int) (Layout, error) {
	if size < 0 {
		return Layout{}, fmt.Errorf("%w: negative size %d", ErrBadLayout, size)
	}
	if align <= 0 || align&(align-1) != 0 {
		return Layout{}, fmt.Errorf("%w: alignment %d is not a power of two", ErrBadLayout, align)
	}
	return Layout{Size: size, Align: align}, nil
}

// MustLayout is NewLayout for layouts known at compile time.
func MustLayout(size, align int) Layout {
	l, err := NewLayout(size, align)
	if err != nil {
		panic(err)
	}
	return l
}

// padded returns the number of pool bytes needed for l: the object, room to
// shift it to a stronger alignment, and the trailing adjustment word.
func (l Layout) padded() (int, bool) {
	n := l.Size
	if l.Align > host.BaselineAlign {
		var ok bool
		if n, ok = buf.AddOverflowSafe(n, l.Align-host.BaselineAlign); !ok {
			return 0, false
		}
	}
	return buf.AddOverflowSafe(n, buf.UintptrSize)
}

func (l Layout) String() string {
	return fmt.Sprintf("Layout{size=%d, align=%d}", l.Size, l.Align)
}
