package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		v, c := version, commit
		goVersion := "unknown"
		if bi, ok := debug.ReadBuildInfo(); ok {
			goVersion = bi.GoVersion
			if v == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
				v = bi.Main.Version
			}
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && c == "none" {
					c = s.Value
				}
			}
		}
		cmd.Printf("efictl %s\n", v)
		cmd.Printf("  commit: %s\n", c)
		cmd.Printf("  go: %s\n", goVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
