package poller

import "github.com/rebryk/neurox/internal/platform"

// Update is a single observed change in the job set.
//
// The concrete type is either [NewJobUpdate] or [StatusUpdate]; consumers
// type-switch on it.
type Update interface {
	// JobID identifies the job the update is about.
	JobID() string

	isUpdate()
}

// NewJobUpdate reports a job seen for the first time.
type NewJobUpdate struct {
	ID     string
	Status platform.JobStatus
	Reason string
}

func (u NewJobUpdate) JobID() string { return u.ID }
func (u NewJobUpdate) isUpdate()     {}

// StatusUpdate reports a known job whose status changed since the last poll.
type StatusUpdate struct {
	ID     string
	Status platform.JobStatus
	Reason string
}

func (u StatusUpdate) JobID() string { return u.ID }
func (u StatusUpdate) isUpdate()     {}

// FailureKind categorizes poll failures that are surfaced to the observer.
type FailureKind int

const (
	// FailureValidation means the platform's response could not be
	// interpreted, or it rejected the request as malformed.
	FailureValidation FailureKind = iota

	// FailureAuth means the platform rejected the configured credentials.
	FailureAuth
)

// Observer receives the poller's outputs.
//
// All methods are invoked synchronously from within [Poller.Tick];
// implementations must not block.
type Observer interface {
	// JobsUpdated delivers the non-empty batch of updates derived from one
	// executed poll.
	JobsUpdated(updates []Update)

	// PollFailed reports an authentication or validation failure. Transient
	// transport failures are never reported.
	PollFailed(kind FailureKind, err error)

	// RenderNeeded signals that a poll executed (successfully or not) and
	// the current job snapshot should be re-read and re-rendered.
	RenderNeeded()
}
