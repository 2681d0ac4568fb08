package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd validates a config file without touching the platform.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a neurox configuration file without contacting the platform.

This command parses the YAML, expands environment variables, and validates
all fields.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  neurox validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg == nil {
		return fmt.Errorf("no config file found; pass --config")
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  URL:              %s\n", cfg.URL)
	fmt.Printf("  Username:         %s\n", cfg.Username)
	fmt.Printf("  Update interval:  %s\n", cfg.UpdateInterval.Duration())
	fmt.Printf("  Max update cycle: %d ticks\n", cfg.MaxUpdateCycle)
	return nil
}
