package poller

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/rebryk/neurox/internal/platform"
)

// Lister fetches the current set of active jobs from the platform.
//
// Implementations fail with [platform.AuthError] for credential problems,
// [platform.ValidationError] for uninterpretable responses, and plain errors
// for transport failures.
type Lister interface {
	ListActiveJobs(ctx context.Context) ([]platform.JobDescription, error)
}

// Poller decides on each tick whether to fetch the job list, diffs the
// result against the last known snapshot, and backs off while nothing
// changes.
//
// Between executed polls the poller skips cycleLen-1 ticks; cycleLen doubles
// after every executed poll up to the configured cap, and [Poller.ResetBackoff]
// drops it back to 1 so the effect of a local action shows up quickly.
//
// Backoff accounting and the snapshot are mutex-guarded; observer callbacks
// run with the lock released, so they are free to call [Poller.Jobs].
type Poller struct {
	lister   Lister
	observer Observer
	logger   *slog.Logger

	mu          sync.Mutex
	iteration   int
	cycleLen    int
	maxCycleLen int
	known       map[string]platform.JobDescription
	snapshot    []platform.JobDescription
}

// New creates a [Poller] that starts in the most responsive state
// (cycleLen 1, so the first tick polls).
//
// maxCycleLen caps the backoff in ticks; values below 1 are treated as 1.
func New(lister Lister, observer Observer, maxCycleLen int, logger *slog.Logger) *Poller {
	if maxCycleLen < 1 {
		maxCycleLen = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		lister:      lister,
		observer:    observer,
		logger:      logger,
		cycleLen:    1,
		maxCycleLen: maxCycleLen,
		known:       make(map[string]platform.JobDescription),
	}
}

// Tick advances the poller by one timer period.
//
// Most ticks are no-ops; when the skip budget is exhausted Tick executes a
// poll, advances the backoff, and dispatches observer callbacks. Failures
// never propagate to the caller.
func (p *Poller) Tick(ctx context.Context) {
	p.mu.Lock()
	p.iteration++
	if p.iteration < p.cycleLen {
		p.mu.Unlock()
		return
	}
	p.iteration = 0
	p.cycleLen = min(2*p.cycleLen, p.maxCycleLen)
	p.mu.Unlock()

	p.poll(ctx)
}

// ResetBackoff drops the backoff to its most responsive state so the next
// tick polls. Called after any local action that changes job state.
func (p *Poller) ResetBackoff() {
	p.mu.Lock()
	p.cycleLen = 1
	p.mu.Unlock()
}

// Jobs returns the last fetched job set, sorted ascending by creation time.
// The returned slice is a copy.
func (p *Poller) Jobs() []platform.JobDescription {
	p.mu.Lock()
	defer p.mu.Unlock()

	jobs := make([]platform.JobDescription, len(p.snapshot))
	copy(jobs, p.snapshot)
	return jobs
}

// poll fetches the job list, emits updates, and signals a render. The lock
// is taken only around the snapshot swap: observer callbacks must be able to
// re-enter [Poller.Jobs].
func (p *Poller) poll(ctx context.Context) {
	defer p.observer.RenderNeeded()

	jobs, err := p.lister.ListActiveJobs(ctx)
	if err != nil {
		switch {
		case platform.IsAuth(err):
			p.observer.PollFailed(FailureAuth, err)
		case platform.IsValidation(err):
			p.observer.PollFailed(FailureValidation, err)
		default:
			// assumed transient connectivity loss; retry on the next
			// eligible tick without bothering the user
			p.logger.Debug("poll failed", "error", err)
		}
		return
	}

	p.mu.Lock()
	updates := p.diff(jobs)
	p.mu.Unlock()

	if len(updates) > 0 {
		p.observer.JobsUpdated(updates)
	}
}

// diff replaces the known job set with the fetched one and derives updates:
// first-seen ids become [NewJobUpdate], changed statuses become
// [StatusUpdate]. Jobs absent from the fetched set are forgotten, so an id
// that reappears later is reported as new again.
func (p *Poller) diff(jobs []platform.JobDescription) []Update {
	var created, changed []Update

	next := make(map[string]platform.JobDescription, len(jobs))
	for _, job := range jobs {
		next[job.ID] = job

		prev, seen := p.known[job.ID]
		switch {
		case !seen:
			created = append(created, NewJobUpdate{ID: job.ID, Status: job.Status, Reason: job.Reason})
		case prev.Status != job.Status:
			changed = append(changed, StatusUpdate{ID: job.ID, Status: job.Status, Reason: job.Reason})
		}
	}

	p.known = next
	p.snapshot = make([]platform.JobDescription, len(jobs))
	copy(p.snapshot, jobs)
	sort.SliceStable(p.snapshot, func(i, j int) bool {
		return p.snapshot[i].CreatedAt.Before(p.snapshot[j].CreatedAt)
	})

	return append(created, changed...)
}
