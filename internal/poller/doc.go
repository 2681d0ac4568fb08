// Package poller implements the adaptive job polling loop for NeuroX.
//
// This package is internal to NeuroX. An external fixed-period ticker drives
// [Poller.Tick]; the poller decides on each tick whether to actually fetch
// the job list, stretching the gap between fetches exponentially while
// nothing changes and snapping back to every-tick polling after a local
// action via [Poller.ResetBackoff].
//
// The main components are:
//
//   - [Poller]: owns the backoff state and the last known job snapshot
//   - [Observer]: receives update batches, poll failures, and render signals
//   - [Update]: either a [NewJobUpdate] or a [StatusUpdate]
//
// Failures are triaged at the tick boundary: authentication and validation
// failures are surfaced to the observer as distinct categories, everything
// else (assumed transient connectivity loss) is swallowed and retried on the
// next eligible tick. No failure propagates to the ticker.
package poller
