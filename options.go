package neurox

import (
	"errors"
	"log/slog"
	"time"
)

const (
	defaultUpdateInterval = time.Second
	defaultMaxUpdateCycle = 30
)

// Notifier delivers one user-visible notification.
//
// The built-in implementation posts desktop notifications on macOS and
// writes log lines elsewhere; replace it with [WithNotifier].
type Notifier interface {
	Notify(title, subtitle, message string)
}

// appConfig holds mutable state during App construction.
type appConfig struct {
	updateInterval  time.Duration
	maxUpdateCycle  int
	scratchDir      string
	logger          *slog.Logger
	notifier        Notifier
	updateCallbacks []func([]Update)
	renderCallbacks []func([]Job)
}

// Option is a function that configures an [App] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
//
// Built-in options: [WithUpdateInterval], [WithMaxUpdateCycle], [WithLogger],
// [WithNotifier], [WithScratchDir], [WithUpdateCallback],
// [WithRenderCallback].
type Option func(*appConfig) error

// WithUpdateInterval sets the tick period of the poll loop.
//
// This is the base unit of the backoff schedule: an executed poll happens
// every cycleLen ticks, where cycleLen doubles after each poll up to the cap
// set by [WithMaxUpdateCycle]. Defaults to 1 second.
//
// Returns an error if the duration is zero or negative.
func WithUpdateInterval(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d <= 0 {
			return errors.New("update interval must be positive")
		}
		cfg.updateInterval = d
		return nil
	}
}

// WithMaxUpdateCycle caps the backoff cycle length in ticks.
//
// The worst-case staleness of the job list is maxCycle ticks. Defaults to 30.
//
// Returns an error if the value is below 1.
func WithMaxUpdateCycle(n int) Option {
	return func(cfg *appConfig) error {
		if n < 1 {
			return errors.New("max update cycle must be at least 1")
		}
		cfg.maxUpdateCycle = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the App.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithNotifier replaces the platform-default notification delivery.
//
// The default posts desktop notifications on macOS and logs elsewhere.
//
// Returns an error if the notifier is nil.
func WithNotifier(n Notifier) Option {
	return func(cfg *appConfig) error {
		if n == nil {
			return errors.New("notifier cannot be nil")
		}
		cfg.notifier = n
		return nil
	}
}

// WithScratchDir sets the directory used to stage SSH command scripts.
//
// Defaults to a "neurox" directory under the user cache dir. The directory
// is cleared on startup.
func WithScratchDir(dir string) Option {
	return func(cfg *appConfig) error {
		if dir == "" {
			return errors.New("scratch directory cannot be empty")
		}
		cfg.scratchDir = dir
		return nil
	}
}

// WithUpdateCallback registers a function invoked with each non-empty batch
// of job updates derived from one executed poll.
//
// Multiple callbacks may be registered; they execute in registration order.
// Callbacks run synchronously on the poll path and must not block. Panics
// within callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithUpdateCallback(cb func([]Update)) Option {
	return func(cfg *appConfig) error {
		if cb == nil {
			return nil
		}
		cfg.updateCallbacks = append(cfg.updateCallbacks, cb)
		return nil
	}
}

// WithRenderCallback registers a function invoked with the full job list,
// sorted ascending by creation time, after every executed poll (successful
// or not).
//
// This is the hook a UI uses to re-render its job view. The same callback
// discipline as [WithUpdateCallback] applies.
//
// Nil callbacks are silently ignored.
func WithRenderCallback(cb func([]Job)) Option {
	return func(cfg *appConfig) error {
		if cb == nil {
			return nil
		}
		cfg.renderCallbacks = append(cfg.renderCallbacks, cb)
		return nil
	}
}
