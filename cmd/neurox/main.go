// Package main is the entry point for the neurox CLI.
//
// NeuroX monitors and controls remote compute jobs on a job-execution
// platform: a watch daemon surfaces job changes as notifications, and
// one-shot commands submit, kill, SSH into, port-forward, and tail jobs.
//
// Usage:
//
//	neurox watch                  # Watch jobs and surface changes
//	neurox jobs                   # List active jobs
//	neurox submit -- <params>     # Submit a job from raw parameters
//	neurox preset list            # Manage submission presets
//	neurox version                # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "neurox",
	Short: "Monitor and control remote compute jobs",
	Long: `NeuroX monitors and controls remote compute jobs on a job-execution
platform.

The watch command polls the platform's job list with adaptive backoff and
surfaces new jobs and status changes as desktop notifications. One-shot
commands cover the rest of the job lifecycle: submit, kill, ssh, forward,
monitor. Named submission presets make repeated submissions one command.

Quick start:
  1. Create a config file (see 'neurox validate --help' for the format)
  2. Run: neurox watch
  3. Submit something: neurox submit -d 'my job' -- ubuntu:latest -c 2 --ssh`,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this neurox binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("neurox %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file (default: <user config dir>/neurox/config.yaml)")
	rootCmd.PersistentFlags().String("settings", "", "path to settings file (default: <user config dir>/neurox/settings.json)")
}
