package alloc

import (
	"unsafe"

	"github.com/joshuapare/efikit/internal/buf"
)

// Block is an owned allocation. It must be released with Free exactly once.
type Block struct {
	a      *Allocator
	p      unsafe.Pointer
	layout Layout
}

// AllocBlock allocates l and wraps the result.
func (a *Allocator) AllocBlock(l Layout) (*Block, error) {
	p, err := a.Alloc(l)
	if err != nil {
		return nil, err
	}
	return &Block{a: a, p: p, layout: l}, nil
}

// Bytes returns the block's memory. The slice is invalid after Free.
func (b *Block) Bytes() []byte {
	if b.p == nil {
		panic("alloc: use of freed block")
	}
	return buf.At(b.p, b.layout.Size)
}

// Pointer returns the aligned start of the block.
func (b *Block) Pointer() unsafe.Pointer { return b.p }

// Layout returns the layout the block was allocated with.
func (b *Block) Layout() Layout { return b.layout }

// Free returns the block to its allocator. A second Free panics.
func (b *Block) Free() {
	if b.p == nil {
		panic("alloc: block freed twice")
	}
	p := b.p
	b.p = nil
	b.a.Free(p, b.layout)
}
