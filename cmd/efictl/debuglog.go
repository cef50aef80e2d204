package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/efikit/efi/boot"
	"github.com/joshuapare/efikit/efi/debug"
)

var debugExt string

func init() {
	cmd := &cobra.Command{
		Use:   "debug-log <message>...",
		Short: "Initialise the system and write a line to the debug log next to the image",
		Long: `debug-log runs the full initialisation sequence with a debug writer that
creates "<image path>.<ext>" on the boot volume, then writes the message to it.

Example:
  efictl --volume ./esp debug-log --ext log "hello from the loader"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDebugLog(args)
		},
	}
	cmd.Flags().StringVar(&debugExt, "ext", "log", "Extension of the log file")
	rootCmd.AddCommand(cmd)
}

func runDebugLog(args []string) error {
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.close()

	var (
		logFile *debug.File
		openErr error
	)
	sys, err := boot.Init(m.fw, boot.WithDebugWriter(func(s *boot.System) (io.Writer, error) {
		logFile, openErr = debug.NextToImage(s, debugExt)
		if openErr != nil {
			return nil, openErr
		}
		return logFile, nil
	}))
	if err != nil {
		return err
	}
	if openErr != nil {
		return openErr
	}
	defer logFile.Close()

	sys.Debugf("%s", strings.Join(args, " "))
	fp, err := sys.Image().FilePath()
	if err != nil {
		return err
	}
	printInfo("wrote %s.%s\n", fp.String(), debugExt)
	return nil
}
