package neurox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rebryk/neurox/internal/notify"
	"github.com/rebryk/neurox/internal/platform"
	"github.com/rebryk/neurox/internal/poller"
	"github.com/rebryk/neurox/settings"
	"github.com/rebryk/neurox/internal/tunnel"
)

// App is the main orchestrator for job monitoring and control.
//
// App wires the platform client, the adaptive poller, the settings store,
// and the SSH tunnel manager together. It is created with [New] and driven
// with [App.Start], which blocks until the context is cancelled.
//
// One-shot operations (Submit, Kill, Logs, ConnectSSH, Forward, ListJobs)
// work without Start; the watcher loop is only needed for update
// notifications.
type App struct {
	store    *settings.Store
	client   *platform.Client
	tunnels  *tunnel.Manager
	poll     *poller.Poller
	notifier *notify.Observer
	logger   *slog.Logger

	updateInterval  time.Duration
	updateCallbacks []func([]Update)
	renderCallbacks []func([]Job)
}

// New creates an [App] bound to the given settings store.
//
// The platform client starts from the store's current credentials and
// follows them when the settings file changes. Defaults: 1 second update
// interval, backoff capped at 30 ticks.
func New(store *settings.Store, opts ...Option) (*App, error) {
	if store == nil {
		return nil, errors.New("settings store is required")
	}

	cfg := &appConfig{
		updateInterval: defaultUpdateInterval,
		maxUpdateCycle: defaultMaxUpdateCycle,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var notifier notify.Notifier = cfg.notifier
	if notifier == nil {
		notifier = notify.New(logger)
	}

	scratchDir := cfg.scratchDir
	if scratchDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate cache directory: %w", err)
		}
		scratchDir = filepath.Join(cacheDir, "neurox")
	}

	current := store.Get()
	client := platform.NewClient(current.APIURL, current.Username, current.Token)

	tunnels, err := tunnel.NewManager(scratchDir, current.RSAPath, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		store:           store,
		client:          client,
		tunnels:         tunnels,
		notifier:        notify.NewObserver(notifier, nil),
		logger:          logger,
		updateInterval:  cfg.updateInterval,
		updateCallbacks: cfg.updateCallbacks,
		renderCallbacks: cfg.renderCallbacks,
	}
	app.poll = poller.New(client, &appObserver{app: app}, cfg.maxUpdateCycle, logger)

	store.OnChange(func(s settings.Settings) {
		client.UpdateBaseURL(s.APIURL)
		client.UpdateUsername(s.Username)
		client.UpdateToken(s.Token)
		tunnels.UpdateRSAPath(s.RSAPath)
	})

	return app, nil
}

// Start runs the watch loop: a fixed-period ticker drives the adaptive
// poller, and the settings file is watched for external edits.
//
// Start blocks until ctx is cancelled and returns nil on a clean shutdown.
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("neurox starting",
		"update_interval", a.updateInterval.String(),
		"settings", a.store.Path(),
	)

	if ctx.Err() != nil {
		return nil
	}

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- a.store.Watch(ctx, a.logger)
	}()

	ticker := time.NewTicker(a.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if watchDone != nil {
				if err := <-watchDone; err != nil {
					a.logger.Warn("settings watcher stopped with error", "error", err)
				}
			}
			a.logger.Info("neurox stopped")
			return nil
		case err := <-watchDone:
			// polling continues; external settings edits just stop being
			// picked up until a restart
			if err != nil {
				a.logger.Warn("settings watcher stopped with error", "error", err)
			}
			watchDone = nil
		case <-ticker.C:
			a.poll.Tick(ctx)
		}
	}
}

// Jobs returns the last polled job set, sorted ascending by creation time.
func (a *App) Jobs() []Job {
	snapshot := a.poll.Jobs()
	jobs := make([]Job, len(snapshot))
	for i, j := range snapshot {
		jobs[i] = fromPlatformJob(j)
	}
	return jobs
}

// ListJobs fetches the active job list directly from the platform, sorted
// ascending by creation time. Used by one-shot commands that do not run the
// watch loop.
func (a *App) ListJobs(ctx context.Context) ([]Job, error) {
	listed, err := a.client.ListActiveJobs(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, len(listed))
	for i, j := range listed {
		jobs[i] = fromPlatformJob(j)
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// Submit submits a job from a raw parameter string and resets the poll
// backoff so the new job shows up on the next tick. The parameters and
// description are remembered as the defaults for the next submission.
func (a *App) Submit(ctx context.Context, description, rawParams string) (Job, error) {
	submitted, err := a.client.SubmitRaw(ctx, description, rawParams)
	if err != nil {
		return Job{}, err
	}

	if err := a.store.Update(func(s *settings.Settings) {
		s.JobParams = rawParams
		s.JobName = description
	}); err != nil {
		a.logger.Warn("failed to remember submission parameters", "error", err)
	}

	a.poll.ResetBackoff()
	return fromPlatformJob(submitted), nil
}

// SubmitPreset submits the named preset's parameters with the given
// description.
func (a *App) SubmitPreset(ctx context.Context, presetName, description string) (Job, error) {
	preset, err := a.store.FindPreset(presetName)
	if err != nil {
		return Job{}, err
	}
	return a.Submit(ctx, description, preset.JobParams)
}

// Kill terminates a job and resets the poll backoff so the status change
// shows up on the next tick.
func (a *App) Kill(ctx context.Context, jobID string) error {
	if err := a.client.Kill(ctx, jobID); err != nil {
		return err
	}
	a.poll.ResetBackoff()
	return nil
}

// Logs streams a job's log output into w, following it when follow is set.
func (a *App) Logs(ctx context.Context, jobID string, w io.Writer, follow bool) error {
	return a.client.JobLog(ctx, jobID, w, follow)
}

// ConnectSSH opens an interactive SSH session into the job, blocking until
// the session ends.
func (a *App) ConnectSSH(ctx context.Context, jobID string) error {
	job, err := a.findJob(ctx, jobID)
	if err != nil {
		return err
	}
	return a.tunnels.ConnectSSH(ctx, job, a.store.Get().Username)
}

// Forward opens a local port forward into the job, blocking until ctx is
// cancelled or the tunnel drops. The chosen port is remembered as the
// default for the next forward.
func (a *App) Forward(ctx context.Context, jobID string, localPort, remotePort int) error {
	job, err := a.findJob(ctx, jobID)
	if err != nil {
		return err
	}

	if err := a.store.Update(func(s *settings.Settings) {
		s.Port = localPort
	}); err != nil {
		a.logger.Warn("failed to remember forward port", "error", err)
	}

	return a.tunnels.Forward(ctx, job, a.store.Get().Username, localPort, remotePort)
}

// Settings returns the underlying settings store.
func (a *App) Settings() *settings.Store {
	return a.store
}

// UpdateInterval returns the configured tick period of the poll loop.
func (a *App) UpdateInterval() time.Duration {
	return a.updateInterval
}

// findJob resolves a job id against the poll snapshot, falling back to a
// fresh listing when the snapshot is cold or stale.
func (a *App) findJob(ctx context.Context, jobID string) (platform.JobDescription, error) {
	for _, job := range a.poll.Jobs() {
		if job.ID == jobID {
			return job, nil
		}
	}

	listed, err := a.client.ListActiveJobs(ctx)
	if err != nil {
		return platform.JobDescription{}, err
	}
	for _, job := range listed {
		if job.ID == jobID {
			return job, nil
		}
	}
	return platform.JobDescription{}, fmt.Errorf("no active job with id %q", jobID)
}

// handleUpdates fans a poll's update batch out to notifications and
// registered callbacks.
func (a *App) handleUpdates(updates []poller.Update) {
	if len(a.updateCallbacks) == 0 {
		return
	}

	converted := make([]Update, 0, len(updates))
	for _, u := range updates {
		if pub := fromPollerUpdate(u); pub != nil {
			converted = append(converted, pub)
		}
	}
	for _, cb := range a.updateCallbacks {
		invokeUpdateCallbackSafe(cb, converted, a.logger)
	}
}

// handleRender pushes the fresh job list to registered render callbacks.
func (a *App) handleRender() {
	if len(a.renderCallbacks) == 0 {
		return
	}

	jobs := a.Jobs()
	for _, cb := range a.renderCallbacks {
		invokeRenderCallbackSafe(cb, jobs, a.logger)
	}
}

// appObserver adapts the App to [poller.Observer], layering user callbacks
// on top of the notification observer.
type appObserver struct {
	app *App
}

func (o *appObserver) JobsUpdated(updates []poller.Update) {
	o.app.notifier.JobsUpdated(updates)
	o.app.handleUpdates(updates)
}

func (o *appObserver) PollFailed(kind poller.FailureKind, err error) {
	o.app.notifier.PollFailed(kind, err)
}

func (o *appObserver) RenderNeeded() {
	o.app.handleRender()
}

// invokeUpdateCallbackSafe calls an update callback with panic recovery.
// Panics are logged but do not propagate into the poll loop.
func invokeUpdateCallbackSafe(cb func([]Update), updates []Update, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update callback panicked", "panic", r)
		}
	}()
	cb(updates)
}

// invokeRenderCallbackSafe calls a render callback with panic recovery.
func invokeRenderCallbackSafe(cb func([]Job), jobs []Job, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("render callback panicked", "panic", r)
		}
	}()
	cb(jobs)
}
