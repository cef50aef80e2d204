package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/efikit/efi/devpath"
)

func init() {
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Encode and decode device paths",
	}
	pathCmd.AddCommand(newPathEncodeCmd(), newPathDecodeCmd())
	rootCmd.AddCommand(pathCmd)
}

func newPathEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <file path>...",
		Short: "Encode file paths as a chain of media file path nodes",
		Long: `Encode builds a device path with one media file path node per argument
and prints it as hex.

Example:
  efictl path encode '\EFI\BOOT\BOOTX64.EFI'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPathEncode(args)
		},
	}
}

func runPathEncode(args []string) error {
	pb := devpath.NewPathBuf()
	for _, a := range args {
		if err := pb.PushMediaFilePath(a); err != nil {
			return err
		}
	}
	enc := hex.EncodeToString(pb.Bytes())
	if jsonOut {
		return printJSON(map[string]any{
			"hex":  enc,
			"size": pb.Size(),
			"text": pb.String(),
		})
	}
	printInfo("%s\n", enc)
	return nil
}

func newPathDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a hex device path and list its nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPathDecode(args)
		},
	}
}

type nodeJSON struct {
	Type    uint8  `json:"type"`
	SubType uint8  `json:"subType"`
	Length  int    `json:"length"`
	Text    string `json:"text"`
}

func runPathDecode(args []string) error {
	raw, err := hex.DecodeString(strings.Join(strings.Fields(args[0]), ""))
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}
	p, err := devpath.FromBytes(raw)
	if err != nil {
		return err
	}
	if p.Size() != len(raw) {
		printError("ignoring %d bytes after the end node\n", len(raw)-p.Size())
	}

	var nodes []nodeJSON
	for n := range p.All() {
		nodes = append(nodes, nodeJSON{
			Type:    uint8(n.Type()),
			SubType: uint8(n.SubType()),
			Length:  n.Len(),
			Text:    n.String(),
		})
	}
	if jsonOut {
		return printJSON(map[string]any{"size": p.Size(), "nodes": nodes})
	}
	for i, n := range nodes {
		printInfo("%d: %v/%#02x len=%d %s\n", i, devpath.Type(n.Type), n.SubType, n.Length, n.Text)
	}
	printInfo("size: %d bytes\n", p.Size())
	return nil
}
