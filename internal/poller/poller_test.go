package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rebryk/neurox/internal/platform"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLister serves canned job lists (or errors) and counts calls.
type fakeLister struct {
	jobs  []platform.JobDescription
	err   error
	calls int
}

func (f *fakeLister) ListActiveJobs(ctx context.Context) ([]platform.JobDescription, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	jobs := make([]platform.JobDescription, len(f.jobs))
	copy(jobs, f.jobs)
	return jobs, nil
}

// recordingObserver captures every observer callback.
type recordingObserver struct {
	batches  [][]Update
	failures []FailureKind
	renders  int
}

func (o *recordingObserver) JobsUpdated(updates []Update) {
	o.batches = append(o.batches, updates)
}

func (o *recordingObserver) PollFailed(kind FailureKind, err error) {
	o.failures = append(o.failures, kind)
}

func (o *recordingObserver) RenderNeeded() {
	o.renders++
}

func job(id string, status platform.JobStatus) platform.JobDescription {
	return platform.JobDescription{
		ID:        id,
		Status:    status,
		Image:     "ubuntu:latest",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPoller_FirstTickPolls(t *testing.T) {
	lister := &fakeLister{}
	p := New(lister, &recordingObserver{}, 30, testLogger())

	p.Tick(context.Background())

	if lister.calls != 1 {
		t.Errorf("calls after first tick = %d, want 1", lister.calls)
	}
}

// TestPoller_BackoffSchedule verifies the executed-poll pattern over a long
// idle run: polls happen on ticks separated by 1, 2, 4, 8, 16, then 30
// ticks, and never more often.
func TestPoller_BackoffSchedule(t *testing.T) {
	lister := &fakeLister{}
	p := New(lister, &recordingObserver{}, 30, testLogger())

	var pollTicks []int
	last := lister.calls
	for tick := 1; tick <= 130; tick++ {
		p.Tick(context.Background())
		if lister.calls != last {
			pollTicks = append(pollTicks, tick)
			last = lister.calls
		}
	}

	// gaps between executed polls follow the doubled-then-capped cycle
	want := []int{1, 3, 7, 15, 31, 61, 91, 121}
	if len(pollTicks) != len(want) {
		t.Fatalf("executed polls at ticks %v, want %v", pollTicks, want)
	}
	for i := range want {
		if pollTicks[i] != want[i] {
			t.Errorf("poll %d executed at tick %d, want %d", i, pollTicks[i], want[i])
		}
	}
}

func TestPoller_CycleLengthNeverExceedsCap(t *testing.T) {
	lister := &fakeLister{}
	p := New(lister, &recordingObserver{}, 30, testLogger())

	for i := 0; i < 500; i++ {
		p.Tick(context.Background())
	}

	p.mu.Lock()
	cycleLen := p.cycleLen
	p.mu.Unlock()
	if cycleLen > 30 {
		t.Errorf("cycleLen = %d, want <= 30", cycleLen)
	}
}

func TestPoller_ResetBackoffForcesNextTick(t *testing.T) {
	lister := &fakeLister{}
	p := New(lister, &recordingObserver{}, 30, testLogger())

	// grow the backoff well past 1
	for i := 0; i < 10; i++ {
		p.Tick(context.Background())
	}
	calls := lister.calls

	p.ResetBackoff()
	p.Tick(context.Background())

	if lister.calls != calls+1 {
		t.Errorf("calls after reset+tick = %d, want %d", lister.calls, calls+1)
	}
}

func TestPoller_NewJobEmitsSingleNewJobUpdate(t *testing.T) {
	lister := &fakeLister{}
	obs := &recordingObserver{}
	p := New(lister, obs, 30, testLogger())

	// first poll: empty list, no updates
	p.Tick(context.Background())
	if len(obs.batches) != 0 {
		t.Fatalf("updates after empty poll = %v, want none", obs.batches)
	}

	// job appears before the second poll
	lister.jobs = []platform.JobDescription{job("a", platform.StatusPending)}
	p.ResetBackoff()
	p.Tick(context.Background())

	if len(obs.batches) != 1 || len(obs.batches[0]) != 1 {
		t.Fatalf("update batches = %v, want one batch of one update", obs.batches)
	}
	u, ok := obs.batches[0][0].(NewJobUpdate)
	if !ok {
		t.Fatalf("update = %T, want NewJobUpdate", obs.batches[0][0])
	}
	if u.ID != "a" || u.Status != platform.StatusPending {
		t.Errorf("update = %+v, want id a status pending", u)
	}
}

func TestPoller_StatusChangeEmitsSingleStatusUpdate(t *testing.T) {
	lister := &fakeLister{jobs: []platform.JobDescription{job("a", platform.StatusPending)}}
	obs := &recordingObserver{}
	p := New(lister, obs, 30, testLogger())

	p.Tick(context.Background()) // sees the new job

	lister.jobs = []platform.JobDescription{job("a", platform.StatusRunning)}
	p.ResetBackoff()
	p.Tick(context.Background())

	if len(obs.batches) != 2 || len(obs.batches[1]) != 1 {
		t.Fatalf("update batches = %v, want a second batch of one update", obs.batches)
	}
	u, ok := obs.batches[1][0].(StatusUpdate)
	if !ok {
		t.Fatalf("update = %T, want StatusUpdate", obs.batches[1][0])
	}
	if u.ID != "a" || u.Status != platform.StatusRunning {
		t.Errorf("update = %+v, want id a status running", u)
	}
}

func TestPoller_UnchangedJobEmitsNothing(t *testing.T) {
	lister := &fakeLister{jobs: []platform.JobDescription{job("a", platform.StatusRunning)}}
	obs := &recordingObserver{}
	p := New(lister, obs, 30, testLogger())

	p.Tick(context.Background())
	p.ResetBackoff()
	p.Tick(context.Background())

	if len(obs.batches) != 1 {
		t.Errorf("update batches = %d, want 1 (only the initial discovery)", len(obs.batches))
	}
}

func TestPoller_ReappearedJobReportedAsNew(t *testing.T) {
	lister := &fakeLister{jobs: []platform.JobDescription{job("a", platform.StatusRunning)}}
	obs := &recordingObserver{}
	p := New(lister, obs, 30, testLogger())

	p.Tick(context.Background())

	lister.jobs = nil
	p.ResetBackoff()
	p.Tick(context.Background())

	lister.jobs = []platform.JobDescription{job("a", platform.StatusRunning)}
	p.ResetBackoff()
	p.Tick(context.Background())

	last := obs.batches[len(obs.batches)-1]
	if len(last) != 1 {
		t.Fatalf("last batch = %v, want one update", last)
	}
	if _, ok := last[0].(NewJobUpdate); !ok {
		t.Errorf("reappeared job reported as %T, want NewJobUpdate", last[0])
	}
}

func TestPoller_AuthFailureSurfacedDistinctly(t *testing.T) {
	lister := &fakeLister{err: &platform.AuthError{Status: 401}}
	obs := &recordingObserver{}
	p := New(lister, obs, 30, testLogger())

	p.Tick(context.Background())

	if len(obs.batches) != 0 {
		t.Errorf("updates on auth failure = %v, want none", obs.batches)
	}
	if len(obs.failures) != 1 || obs.failures[0] != FailureAuth {
		t.Errorf("failures = %v, want exactly [FailureAuth]", obs.failures)
	}

	// backoff still advances: the next tick must be a skip
	calls := lister.calls
	p.Tick(context.Background())
	if lister.calls != calls {
		t.Errorf("tick after failed poll executed a poll; backoff did not advance")
	}
}

func TestPoller_ValidationFailureSurfacedDistinctly(t *testing.T) {
	lister := &fakeLister{err: &platform.ValidationError{Msg: "garbled response"}}
	obs := &recordingObserver{}
	p := New(lister, obs, 30, testLogger())

	p.Tick(context.Background())

	if len(obs.failures) != 1 || obs.failures[0] != FailureValidation {
		t.Errorf("failures = %v, want exactly [FailureValidation]", obs.failures)
	}
}

func TestPoller_TransportFailureSilent(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	obs := &recordingObserver{}
	p := New(lister, obs, 30, testLogger())

	p.Tick(context.Background())

	if len(obs.failures) != 0 {
		t.Errorf("failures = %v, want none for transport errors", obs.failures)
	}
	if obs.renders != 1 {
		t.Errorf("renders = %d, want 1 (render fires even on a failed poll)", obs.renders)
	}
}

func TestPoller_RenderFiresOncePerExecutedPoll(t *testing.T) {
	lister := &fakeLister{}
	obs := &recordingObserver{}
	p := New(lister, obs, 30, testLogger())

	for i := 0; i < 7; i++ { // polls execute on ticks 1, 3 and 7
		p.Tick(context.Background())
	}

	if obs.renders != lister.calls {
		t.Errorf("renders = %d, want %d (one per executed poll)", obs.renders, lister.calls)
	}
	if obs.renders != 3 {
		t.Errorf("renders = %d, want 3 over 7 idle ticks", obs.renders)
	}
}

// snapshotObserver re-reads the poller's snapshot from inside its callbacks,
// the way a render path does.
type snapshotObserver struct {
	p        *Poller
	rendered int
	lastLen  int
}

func (o *snapshotObserver) JobsUpdated(updates []Update)          { o.lastLen = len(o.p.Jobs()) }
func (o *snapshotObserver) PollFailed(kind FailureKind, err error) {}
func (o *snapshotObserver) RenderNeeded() {
	o.rendered++
	o.lastLen = len(o.p.Jobs())
}

func TestPoller_ObserverMayReadSnapshotFromCallbacks(t *testing.T) {
	lister := &fakeLister{jobs: []platform.JobDescription{job("a", platform.StatusRunning)}}
	obs := &snapshotObserver{}
	p := New(lister, obs, 30, testLogger())
	obs.p = p

	done := make(chan struct{})
	go func() {
		p.Tick(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Tick blocked while an observer read the snapshot")
	}

	if obs.rendered != 1 {
		t.Errorf("rendered = %d, want 1", obs.rendered)
	}
	if obs.lastLen != 1 {
		t.Errorf("snapshot seen from callback had %d jobs, want 1", obs.lastLen)
	}
}

func TestPoller_JobsSortedByCreationTime(t *testing.T) {
	older := job("old", platform.StatusRunning)
	older.CreatedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := job("new", platform.StatusPending)
	newer.CreatedAt = time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)

	lister := &fakeLister{jobs: []platform.JobDescription{newer, older}}
	p := New(lister, &recordingObserver{}, 30, testLogger())

	p.Tick(context.Background())

	jobs := p.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("Jobs() = %d entries, want 2", len(jobs))
	}
	if jobs[0].ID != "old" || jobs[1].ID != "new" {
		t.Errorf("Jobs() order = [%s %s], want [old new]", jobs[0].ID, jobs[1].ID)
	}
}
