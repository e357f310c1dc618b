package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// rootCmd is the base of every subcommand, following the readyvibes-Legion
// cmd/root.go pattern of a package-level rootCLI plus persistent flags.
var rootCmd = &cobra.Command{
	Use:     "threadshell",
	Short:   "A multi-threaded job-scheduling shell for a single host",
	Long:    "threadshell dispatches submitted jobs to a bounded pool of worker goroutines bound to logical cores, enforces dependencies, and records every lifecycle transition to a CSV audit log.",
	Version: "1.0.0",
}

// Execute runs the CLI, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/threadshell.yaml", "path to the scheduler config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}
