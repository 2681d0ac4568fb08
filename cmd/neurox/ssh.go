package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

// sshCmd opens an interactive SSH session into a job.
var sshCmd = &cobra.Command{
	Use:   "ssh <job-id>",
	Short: "SSH into a job",
	Long: `Open an interactive SSH session into a running job.

The job must have been submitted with --ssh. The RSA key path from the
settings is used for authentication.

Example:
  neurox ssh job-7c51a0`,
	Args: cobra.ExactArgs(1),
	RunE: runSSH,
}

// forwardCmd forwards a local port into a job.
var forwardCmd = &cobra.Command{
	Use:   "forward <job-id> <local-port> [remote-port]",
	Short: "Forward a local port into a job",
	Long: `Forward a local port into a running job for remote debugging.

The remote port defaults to the local port. The tunnel stays open until
interrupted.

Examples:
  neurox forward job-7c51a0 5678
  neurox forward job-7c51a0 8080 80`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runForward,
}

// monitorCmd tails a job's log output.
var monitorCmd = &cobra.Command{
	Use:   "monitor <job-id>",
	Short: "Follow a job's log output",
	Long: `Stream a job's log output to stdout.

With --no-follow the currently available output is printed and the command
exits; otherwise it follows the log until interrupted or the job finishes.

Example:
  neurox monitor job-7c51a0`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(forwardCmd)
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().Bool("no-follow", false, "print available output and exit")
}

func runSSH(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.ConnectSSH(ctx, args[0]); err != nil {
		return fmt.Errorf("ssh connection error: %w", err)
	}
	return nil
}

func runForward(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	localPort, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad local port: %s", args[1])
	}
	remotePort := 0
	if len(args) == 3 {
		remotePort, err = strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad remote port: %s", args[2])
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Forward(ctx, args[0], localPort, remotePort); err != nil {
		return fmt.Errorf("remote debug error: %w", err)
	}
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	noFollow, _ := cmd.Flags().GetBool("no-follow")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Logs(ctx, args[0], os.Stdout, !noFollow); err != nil && ctx.Err() == nil {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}
