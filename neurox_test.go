package neurox_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rebryk/neurox"
	"github.com/rebryk/neurox/settings"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// silentNotifier drops notifications so tests never touch the desktop.
type silentNotifier struct{}

func (silentNotifier) Notify(title, subtitle, message string) {}

func testStore(t *testing.T, apiURL string) *settings.Store {
	t.Helper()
	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("settings.Open() error = %v", err)
	}
	err = store.Update(func(s *settings.Settings) {
		s.APIURL = apiURL
		s.Username = "rebryk"
		s.Token = "secret"
	})
	if err != nil {
		t.Fatalf("settings update error = %v", err)
	}
	return store
}

func testApp(t *testing.T, store *settings.Store, opts ...neurox.Option) *neurox.App {
	t.Helper()
	opts = append([]neurox.Option{
		neurox.WithLogger(testLogger()),
		neurox.WithNotifier(silentNotifier{}),
		neurox.WithScratchDir(t.TempDir()),
	}, opts...)

	app, err := neurox.New(store, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return app
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := neurox.New(nil); err == nil {
		t.Error("New(nil) succeeded, want error")
	}
}

func TestOptions_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  neurox.Option
	}{
		{"zero interval", neurox.WithUpdateInterval(0)},
		{"negative interval", neurox.WithUpdateInterval(-time.Second)},
		{"zero cycle cap", neurox.WithMaxUpdateCycle(0)},
		{"nil logger", neurox.WithLogger(nil)},
		{"nil notifier", neurox.WithNotifier(nil)},
		{"empty scratch dir", neurox.WithScratchDir("")},
	}

	store := testStore(t, "http://unused.invalid")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := neurox.New(store, tt.opt); err == nil {
				t.Errorf("New() succeeded with invalid option")
			}
		})
	}
}

func TestOptions_NilCallbacksIgnored(t *testing.T) {
	store := testStore(t, "http://unused.invalid")
	testApp(t, store, neurox.WithUpdateCallback(nil), neurox.WithRenderCallback(nil))
}

func TestApp_ListJobs_SortedByCreationTime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"jobs": [
				{"id": "job-late", "status": "running", "history": {"created_at": "2024-03-01T14:00:00Z"}},
				{"id": "job-early", "status": "running", "history": {"created_at": "2024-03-01T12:00:00Z"}}
			]
		}`))
	}))
	defer server.Close()

	app := testApp(t, testStore(t, server.URL))
	jobs, err := app.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}

	if len(jobs) != 2 || jobs[0].ID != "job-early" || jobs[1].ID != "job-late" {
		t.Errorf("ListJobs() order = %v, want oldest first", jobs)
	}
}

func TestApp_Submit_RemembersParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "job-new", "status": "pending",
			"history": {"created_at": "2024-03-01T12:00:00Z"}
		}`))
	}))
	defer server.Close()

	store := testStore(t, server.URL)
	app := testApp(t, store)

	job, err := app.Submit(context.Background(), "training run", "pytorch:latest -g 1 --ssh")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.ID != "job-new" || job.Status != neurox.StatusPending {
		t.Errorf("Submit() = %s/%s, want job-new/pending", job.ID, job.Status)
	}

	got := store.Get()
	if got.JobParams != "pytorch:latest -g 1 --ssh" || got.JobName != "training run" {
		t.Errorf("remembered submission = %q/%q", got.JobName, got.JobParams)
	}
}

func TestApp_SubmitPreset_UnknownName(t *testing.T) {
	app := testApp(t, testStore(t, "http://unused.invalid"))

	if _, err := app.SubmitPreset(context.Background(), "nope", "run"); err == nil {
		t.Error("SubmitPreset() succeeded for an unknown preset")
	}
}

func TestApp_Kill(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	app := testApp(t, testStore(t, server.URL))
	if err := app.Kill(context.Background(), "job-a"); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/jobs/job-a" {
		t.Errorf("request = %s %s, want DELETE /jobs/job-a", gotMethod, gotPath)
	}
}

func TestApp_CredentialsFollowSettings(t *testing.T) {
	var gotAuth, gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUser = r.Header.Get("X-User")
		_, _ = w.Write([]byte(`{"jobs": []}`))
	}))
	defer server.Close()

	store := testStore(t, server.URL)
	app := testApp(t, store)

	err := store.Update(func(s *settings.Settings) {
		s.Username = "other"
		s.Token = "rotated"
	})
	if err != nil {
		t.Fatalf("settings update error = %v", err)
	}

	if _, err := app.ListJobs(context.Background()); err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if gotAuth != "Bearer rotated" || gotUser != "other" {
		t.Errorf("headers = %q/%q, want rotated credentials", gotAuth, gotUser)
	}
}

func TestApp_Start_CancelledContext(t *testing.T) {
	app := testApp(t, testStore(t, "http://unused.invalid"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := app.Start(ctx); err != nil {
		t.Errorf("Start() error = %v, want nil on cancelled context", err)
	}
}

func TestApp_WatchDeliversUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"jobs": [{"id": "job-a", "status": "running", "history": {"created_at": "2024-03-01T12:00:00Z"}}]
		}`))
	}))
	defer server.Close()

	updates := make(chan []neurox.Update, 1)
	app := testApp(t, testStore(t, server.URL),
		neurox.WithUpdateInterval(10*time.Millisecond),
		neurox.WithUpdateCallback(func(batch []neurox.Update) {
			select {
			case updates <- batch:
			default:
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	select {
	case batch := <-updates:
		if len(batch) != 1 {
			t.Fatalf("update batch = %v, want one update", batch)
		}
		if u, ok := batch[0].(neurox.NewJobUpdate); !ok || u.ID != "job-a" {
			t.Errorf("update = %#v, want NewJobUpdate for job-a", batch[0])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered within 5s")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}

	jobs := app.Jobs()
	if len(jobs) != 1 || jobs[0].ID != "job-a" {
		t.Errorf("Jobs() = %v, want the polled job", jobs)
	}
}

// TestApp_RenderCallbackSeesEveryPoll runs the full watch loop with a render
// callback that reads the job snapshot, the way a UI would.
func TestApp_RenderCallbackSeesEveryPoll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"jobs": [{"id": "job-a", "status": "running", "history": {"created_at": "2024-03-01T12:00:00Z"}}]
		}`))
	}))
	defer server.Close()

	var renders atomic.Int64
	app := testApp(t, testStore(t, server.URL),
		neurox.WithUpdateInterval(10*time.Millisecond),
		neurox.WithRenderCallback(func(jobs []neurox.Job) {
			if len(jobs) == 1 {
				renders.Add(1)
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = app.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for renders.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("renders = %d after 5s, want at least 2 executed polls", renders.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestApp_CallbackPanicDoesNotStopWatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"jobs": [{"id": "job-a", "status": "running", "history": {"created_at": "2024-03-01T12:00:00Z"}}]
		}`))
	}))
	defer server.Close()

	rendered := make(chan struct{}, 1)
	app := testApp(t, testStore(t, server.URL),
		neurox.WithUpdateInterval(10*time.Millisecond),
		neurox.WithUpdateCallback(func([]neurox.Update) { panic("boom") }),
		neurox.WithRenderCallback(func([]neurox.Job) {
			select {
			case rendered <- struct{}{}:
			default:
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = app.Start(ctx) }()

	select {
	case <-rendered:
	case <-time.After(5 * time.Second):
		t.Fatal("render callback never fired after a panicking update callback")
	}
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestApp_StartSurvivesWatcherFailure(t *testing.T) {
	var polls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		_, _ = w.Write([]byte(`{"jobs": []}`))
	}))
	defer server.Close()

	store := testStore(t, server.URL)

	logs := &syncBuffer{}
	app, err := neurox.New(store,
		neurox.WithLogger(slog.New(slog.NewTextHandler(logs, nil))),
		neurox.WithNotifier(silentNotifier{}),
		neurox.WithScratchDir(t.TempDir()),
		neurox.WithUpdateInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// make the settings watcher fail on startup
	if err := os.RemoveAll(filepath.Dir(store.Path())); err != nil {
		t.Fatalf("failed to remove settings directory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	// the watcher error must be logged while the poll loop keeps running
	deadline := time.Now().Add(5 * time.Second)
	for polls.Load() < 2 || !strings.Contains(logs.String(), "settings watcher stopped") {
		if time.Now().After(deadline) {
			t.Fatalf("polls = %d, watcher error logged = %v after 5s",
				polls.Load(), strings.Contains(logs.String(), "settings watcher stopped"))
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestJob_DisplayName(t *testing.T) {
	named := neurox.Job{ID: "job-a", Description: "training run"}
	if named.DisplayName() != "training run" {
		t.Errorf("DisplayName() = %q, want description", named.DisplayName())
	}

	anonymous := neurox.Job{ID: "job-b"}
	if anonymous.DisplayName() != "job-b" {
		t.Errorf("DisplayName() = %q, want id fallback", anonymous.DisplayName())
	}
}

func TestApp_UpdateInterval(t *testing.T) {
	app := testApp(t, testStore(t, "http://unused.invalid"),
		neurox.WithUpdateInterval(250*time.Millisecond))
	if app.UpdateInterval() != 250*time.Millisecond {
		t.Errorf("UpdateInterval() = %v", app.UpdateInterval())
	}
}
