package sim

import (
	"slices"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/internal/format"
)

// GetMemoryMap implements host.MemoryMapper. The map holds the configured
// regions followed by one LoaderData-style entry per live page run, sorted
// by address. Descriptors are written at DescriptorSize strides with the
// padding zeroed.
func (fw *Firmware) GetMemoryMap(buf []byte) (int, uintptr, int, uint32, efi.Status) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	descs := fw.cfg.descriptors()
	runs := make([]uintptr, 0, len(fw.pages))
	for addr := range fw.pages {
		runs = append(runs, addr)
	}
	slices.Sort(runs)
	for _, addr := range runs {
		run := fw.pages[addr]
		descs = append(descs, efi.MemoryDescriptor{
			Type:          run.mt,
			PhysicalStart: uint64(addr),
			NumberOfPages: uint64(len(run.mem) / efi.PageSize),
			Attribute:     0xF,
		})
	}

	stride := fw.cfg.DescriptorSize
	need := len(descs) * stride
	if len(buf) < need {
		return need + fw.cfg.MapSlack, fw.mapKey, stride, format.MemoryDescriptorVersion, efi.BufferTooSmall
	}
	for i, d := range descs {
		rec := buf[i*stride : (i+1)*stride]
		clear(rec)
		format.PutMemoryDescriptor(rec, d)
	}
	return need, fw.mapKey, stride, format.MemoryDescriptorVersion, efi.Success
}
