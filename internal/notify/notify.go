// Package notify delivers user-visible notifications for NeuroX and adapts
// poller updates into them.
//
// On macOS notifications go through the system notification center via
// osascript; everywhere else (and in tests) they fall back to structured log
// lines, which keeps the watcher usable on headless machines.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"
)

const notifyTimeout = 5 * time.Second

// Notifier delivers one user-visible notification.
type Notifier interface {
	Notify(title, subtitle, message string)
}

// New returns the notifier appropriate for the current platform.
func New(logger *slog.Logger) Notifier {
	if runtime.GOOS == "darwin" {
		return &DesktopNotifier{logger: logger}
	}
	return &LogNotifier{logger: logger}
}

// DesktopNotifier posts to the macOS notification center.
type DesktopNotifier struct {
	logger *slog.Logger
}

// Notify displays a desktop notification. Delivery failures are logged and
// otherwise ignored; a broken notification pipeline must not take the
// watcher down.
func (n *DesktopNotifier) Notify(title, subtitle, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	script := fmt.Sprintf("display notification %q with title %q subtitle %q",
		message, title, subtitle)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		n.logger.Warn("failed to deliver notification", "title", title, "error", err)
	}
}

// LogNotifier writes notifications as log lines.
type LogNotifier struct {
	logger *slog.Logger
}

func (n *LogNotifier) Notify(title, subtitle, message string) {
	n.logger.Info(title, "job", subtitle, "detail", message)
}
