package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/efikit/efi/boot"
)

var memmapGuess int

func init() {
	cmd := &cobra.Command{
		Use:   "memmap",
		Short: "Print the firmware memory map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMemmap()
		},
	}
	cmd.Flags().IntVar(&memmapGuess, "guess", boot.DefaultMapGuess, "Initial buffer size in bytes")
	rootCmd.AddCommand(cmd)
}

type descriptorJSON struct {
	Type      string `json:"type"`
	Start     uint64 `json:"start"`
	Pages     uint64 `json:"pages"`
	Attribute uint64 `json:"attribute"`
}

func runMemmap() error {
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.close()

	mm, err := m.bs.MemoryMap(memmapGuess)
	if err != nil {
		return err
	}
	defer mm.Free()

	if jsonOut {
		out := make([]descriptorJSON, 0, mm.Len())
		for _, d := range mm.All() {
			out = append(out, descriptorJSON{d.Type.String(), d.PhysicalStart, d.NumberOfPages, d.Attribute})
		}
		return printJSON(map[string]any{
			"key":            mm.Key(),
			"descriptorSize": mm.DescriptorSize(),
			"descriptors":    out,
		})
	}
	printInfo("%-4s %-20s %-18s %10s %s\n", "#", "TYPE", "START", "PAGES", "ATTR")
	for i, d := range mm.All() {
		printInfo("%-4d %-20s %#018x %10d %#x\n", i, d.Type, d.PhysicalStart, d.NumberOfPages, d.Attribute)
	}
	printInfo("key=%d descriptors=%d stride=%d\n", mm.Key(), mm.Len(), mm.DescriptorSize())
	return nil
}
