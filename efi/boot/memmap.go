package boot

import (
	"fmt"
	"iter"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/efi/query"
	"github.com/joshuapare/efikit/internal/buf"
	"github.com/joshuapare/efikit/internal/format"
)

// DefaultMapGuess is the initial buffer size used by MemoryMap when the
// caller passes a non-positive guess.
const DefaultMapGuess = 16 * format.MemoryDescriptorSize

// MemoryMap is a snapshot of the host memory map in pool memory. It must be
// released with Free; freeing it changes the map and invalidates the key.
type MemoryMap struct {
	res      *query.Result
	key      uintptr
	descSize int
	version  uint32
}

// MemoryMap fetches the current memory map, growing the buffer until the
// host accepts it. The host must report a whole number of descriptors;
// anything else panics.
func (s *Services) MemoryMap(guess int) (*MemoryMap, error) {
	if guess <= 0 {
		guess = DefaultMapGuess
	}
	m := &MemoryMap{}
	res, err := query.Run(s.a, query.Options{
		Name:  "memory map",
		Guess: guess,
		Align: host.BaselineAlign,
		Mode:  query.Trim,
	}, func(b []byte) (int, efi.Status) {
		n, key, descSize, version, st := s.raw.GetMemoryMap(b)
		m.key, m.descSize, m.version = key, descSize, version
		return n, st
	})
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	if m.descSize < format.MemoryDescriptorSize || res.Len()%m.descSize != 0 {
		n := res.Len()
		res.Free()
		panic(fmt.Sprintf("boot: memory map of %d bytes is not a multiple of descriptor size %d", n, m.descSize))
	}
	if m.version != format.MemoryDescriptorVersion {
		res.Free()
		panic(fmt.Sprintf("boot: memory descriptor version %d", m.version))
	}
	m.res = res
	return m, nil
}

// Key identifies this snapshot for ExitBootServices.
func (m *MemoryMap) Key() uintptr { return m.key }

// DescriptorSize returns the stride between descriptors.
func (m *MemoryMap) DescriptorSize() int { return m.descSize }

// Len returns the number of descriptors.
func (m *MemoryMap) Len() int { return m.res.Len() / m.descSize }

// Bytes returns the raw descriptor array.
func (m *MemoryMap) Bytes() []byte { return m.res.Bytes() }

// At decodes descriptor i.
func (m *MemoryMap) At(i int) efi.MemoryDescriptor {
	off, err := buf.CheckRecordBounds(m.res.Len(), i, m.descSize, format.MemoryDescriptorSize)
	if err != nil {
		panic(fmt.Sprintf("boot: memory descriptor %d: %v", i, err))
	}
	b, _ := buf.Slice(m.res.Bytes(), off, format.MemoryDescriptorSize)
	d, _ := format.DecodeMemoryDescriptor(b)
	return d
}

// All yields every descriptor with its index.
func (m *MemoryMap) All() iter.Seq2[int, efi.MemoryDescriptor] {
	return func(yield func(int, efi.MemoryDescriptor) bool) {
		for i := range m.Len() {
			if !yield(i, m.At(i)) {
				return
			}
		}
	}
}

// Free releases the snapshot.
func (m *MemoryMap) Free() { m.res.Free() }
