package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rebryk/neurox"
)

// watchCmd runs the long-lived job watcher.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch jobs and surface changes",
	Long: `Watch the platform's job list and surface changes.

The watcher polls the job list with adaptive backoff: while nothing changes
the gap between polls doubles up to a cap, and any submit or kill issued
through this process snaps polling back to every tick. New jobs and status
changes arrive as desktop notifications (or log lines on non-macOS hosts).

The watcher runs until interrupted (Ctrl+C) or receives SIGTERM. Settings
file edits (for example a rotated token) are picked up without a restart.

Example:
  neurox watch
  neurox watch -c config.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	app, err := newApp(cmd, neurox.WithRenderCallback(func(jobs []neurox.Job) {
		logger.Debug("job list refreshed", "active_jobs", len(jobs))
	}))
	if err != nil {
		return err
	}

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("watcher error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
