package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/efikit/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
	volumeDir  string
	logDir     string
)

var rootCmd = &cobra.Command{
	Use:   "efictl",
	Short: "Drive a simulated UEFI firmware from the command line",
	Long: `efictl boots an in-process firmware simulation and exercises the
efikit wrappers against it: device path encoding, memory maps, and file
access on a volume backed by a host directory.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Firmware config file (TOML)")
	rootCmd.PersistentFlags().StringVar(&volumeDir, "volume", "", "Host directory backing the boot volume (default: empty in-memory volume)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write dated debug logs to this directory")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

func initLogging() error {
	switch {
	case verbose:
		return logger.Init(logger.Options{Enabled: true, Writer: os.Stderr, Level: slog.LevelDebug})
	case logDir != "":
		return logger.Init(logger.Options{Enabled: true, LogDir: logDir, Level: slog.LevelDebug, JSON: true})
	default:
		return logger.Init(logger.Options{})
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
