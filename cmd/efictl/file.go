package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/fs"
)

func init() {
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "stat <path>",
			Short: "Show file metadata from the boot volume",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStat(args)
			},
		},
		&cobra.Command{
			Use:   "ls [dir]",
			Short: "List a directory on the boot volume",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLs(args)
			},
		},
		&cobra.Command{
			Use:   "cat <path>",
			Short: "Print a file from the boot volume",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCat(args)
			},
		},
		&cobra.Command{
			Use:   "truncate <path> <size>",
			Short: "Set the length of a file on the boot volume",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTruncate(args)
			},
		},
	)
}

// efiPath accepts '/' or '\' separators and returns an absolute volume path.
func efiPath(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)
	if !strings.HasPrefix(p, `\`) {
		p = `\` + p
	}
	return p
}

func formatTime(t efi.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

func attrString(a efi.FileAttributes) string {
	flags := []struct {
		bit efi.FileAttributes
		c   byte
	}{
		{efi.FileDirectory, 'd'}, {efi.FileReadOnly, 'r'}, {efi.FileHidden, 'h'},
		{efi.FileSystem, 's'}, {efi.FileArchive, 'a'},
	}
	b := make([]byte, len(flags))
	for i, f := range flags {
		b[i] = '-'
		if a.Has(f.bit) {
			b[i] = f.c
		}
	}
	return string(b)
}

type infoJSON struct {
	Name         string `json:"name"`
	Size         uint64 `json:"size"`
	PhysicalSize uint64 `json:"physicalSize"`
	Attributes   string `json:"attributes"`
	Modified     string `json:"modified"`
}

func toInfoJSON(fi *fs.FileInfo) infoJSON {
	return infoJSON{
		Name:         fi.Name().String(),
		Size:         fi.FileSize(),
		PhysicalSize: fi.PhysicalSize(),
		Attributes:   attrString(fi.Attribute()),
		Modified:     formatTime(fi.ModifyTime()),
	}
}

func runStat(args []string) error {
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.close()
	root, err := m.root()
	if err != nil {
		return err
	}
	defer root.Close()

	f, err := root.Get().Open(efiPath(args[0]), efi.FileModeRead, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Get().Info()
	if err != nil {
		return err
	}
	defer fi.Free()

	info := toInfoJSON(fi)
	if jsonOut {
		return printJSON(info)
	}
	printInfo("  Name: %s\n", info.Name)
	printInfo("  Size: %d bytes\n", info.Size)
	printInfo("  Physical size: %d bytes\n", info.PhysicalSize)
	printInfo("  Attributes: %s\n", info.Attributes)
	printInfo("  Created: %s\n", formatTime(fi.CreateTime()))
	printInfo("  Modified: %s\n", info.Modified)
	return nil
}

func runLs(args []string) error {
	dir := `\`
	if len(args) == 1 {
		dir = efiPath(args[0])
	}
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.close()
	root, err := m.root()
	if err != nil {
		return err
	}
	defer root.Close()

	d, err := root.Get().Open(dir, efi.FileModeRead, 0)
	if err != nil {
		return err
	}
	defer d.Close()

	var entries []infoJSON
	for {
		fi, err := d.Get().ReadDir()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		entries = append(entries, toInfoJSON(fi))
		fi.Free()
	}
	if jsonOut {
		return printJSON(entries)
	}
	for _, e := range entries {
		printInfo("%s %10d %s %s\n", e.Attributes, e.Size, e.Modified, e.Name)
	}
	return nil
}

func runCat(args []string) error {
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.close()
	root, err := m.root()
	if err != nil {
		return err
	}
	defer root.Close()

	data, err := fs.ReadFile(root.Get(), efiPath(args[0]))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runTruncate(args []string) error {
	size, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", args[1], err)
	}
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.close()
	root, err := m.root()
	if err != nil {
		return err
	}
	defer root.Close()

	f, err := root.Get().Open(efiPath(args[0]), efi.FileModeRead|efi.FileModeWrite, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Get().SetLen(size); err != nil {
		return err
	}
	printInfo("%s: %d bytes\n", efiPath(args[0]), size)
	return nil
}
