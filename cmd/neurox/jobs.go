package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rebryk/neurox"
)

// jobsCmd lists the active jobs.
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List active jobs",
	Long: `List every job currently pending or running, sorted by creation time.

Example:
  neurox jobs`,
	RunE: runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	jobs, err := app.ListJobs(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No active jobs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tIMAGE\tRESOURCES\tCREATED\tSSH\tURL")
	for _, job := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			job.ID,
			job.DisplayName(),
			job.Status,
			job.Image,
			formatResources(job.Resources),
			job.CreatedAt.Local().Format(time.DateTime),
			formatBool(job.SSH),
			formatURL(job.HTTPURL),
		)
	}
	return w.Flush()
}

func formatURL(u string) string {
	if u == "" {
		return "-"
	}
	return u
}

func formatResources(r neurox.Resources) string {
	s := fmt.Sprintf("cpu %g, mem %s", r.CPU, r.Memory)
	if r.GPU > 0 {
		s += fmt.Sprintf(", gpu %d (%s)", r.GPU, r.GPUModel)
	}
	if r.SHM {
		s += ", extshm"
	}
	return s
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
