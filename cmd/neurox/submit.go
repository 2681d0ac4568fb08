package main

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

// submitCmd submits a job from raw parameters or a preset.
var submitCmd = &cobra.Command{
	Use:   "submit [flags] -- <raw params>",
	Short: "Submit a job",
	Long: `Submit a job from a raw parameter string or a saved preset.

Raw parameters follow the platform submission syntax: image first, then
optional command and flags (-c cpu, -g gpu, -m memory, --ssh, --http port,
-v volume, --extshm, --gpu-model).

Examples:
  neurox submit -d 'training run' -- pytorch:latest -c 4 -g 1 -m 16G --ssh
  neurox submit --preset 'gpu dev box' -d 'experiment 42'`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringP("description", "d", "", "job description")
	submitCmd.Flags().String("preset", "", "submit a saved preset instead of raw parameters")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	description, _ := cmd.Flags().GetString("description")
	presetName, _ := cmd.Flags().GetString("preset")

	if presetName != "" {
		if len(args) > 0 {
			return fmt.Errorf("cannot combine --preset with raw parameters")
		}
		job, err := app.SubmitPreset(cmd.Context(), presetName, description)
		if err != nil {
			return fmt.Errorf("failed to create new job: %w", err)
		}
		fmt.Printf("Submitted %s (%s)\n", job.ID, job.Status)
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("raw parameters are required unless --preset is given")
	}

	job, err := app.Submit(cmd.Context(), description, joinParams(args))
	if err != nil {
		return fmt.Errorf("failed to create new job: %w", err)
	}
	fmt.Printf("Submitted %s (%s)\n", job.ID, job.Status)
	if strings.TrimSpace(description) == "" {
		fmt.Println("Tip: pass -d to name the job")
	}
	return nil
}

// joinParams turns argv-style raw parameters back into the quoted string
// form presets and settings store.
func joinParams(args []string) string {
	return shellquote.Join(args...)
}
