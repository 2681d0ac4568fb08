package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// killCmd terminates a job.
var killCmd = &cobra.Command{
	Use:   "kill <job-id>",
	Short: "Kill a job",
	Long: `Ask the platform to terminate a job.

Example:
  neurox kill job-7c51a0`,
	Args: cobra.ExactArgs(1),
	RunE: runKill,
}

func init() {
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	jobID := args[0]
	if err := app.Kill(cmd.Context(), jobID); err != nil {
		return fmt.Errorf("failed to kill the job: %w", err)
	}
	fmt.Printf("Killed %s\n", jobID)
	return nil
}
