// Package neurox monitors and controls remote compute jobs on a third-party
// job-execution platform.
//
// NeuroX watches the platform's job list with an adaptive poll loop: while
// nothing changes the gap between fetches doubles up to a cap, and any local
// action (submitting or killing a job) snaps polling back to every tick so
// the effect surfaces quickly. Changes arrive as desktop notifications and
// through registered callbacks.
//
// # Quick start
//
// Open the settings store, build an [App], and run it until interrupted:
//
//	store, _ := settings.Open(settingsPath)
//	app, _ := neurox.New(store)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	app.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// NeuroX uses the functional options pattern:
//
//	app, err := neurox.New(store,
//	    neurox.WithUpdateInterval(2 * time.Second),
//	    neurox.WithMaxUpdateCycle(60),
//	    neurox.WithRenderCallback(func(jobs []neurox.Job) { ... }),
//	)
//
// # Architecture
//
// The public surface is this package plus the settings package (consumers
// open the store themselves and hand it to [New]) and the config package
// (YAML daemon configuration). The rest lives in internal packages:
//
//   - internal/poller: the adaptive backoff poll loop and job-set diffing
//   - internal/platform: the platform REST client
//   - internal/tunnel: SSH sessions and port forwards into jobs
//   - internal/notify: desktop notification delivery
//
// The internal packages are not part of the public API and may change
// without notice.
package neurox
