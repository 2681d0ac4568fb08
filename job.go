package neurox

import (
	"time"

	"github.com/rebryk/neurox/internal/platform"
	"github.com/rebryk/neurox/internal/poller"
)

// JobStatus is the lifecycle state of a job.
//
// Using a string type keeps logging and JSON output human-readable while the
// defined constants preserve type safety.
type JobStatus string

const (
	// StatusPending means the job is waiting for resources.
	StatusPending JobStatus = "pending"

	// StatusRunning means the job is executing.
	StatusRunning JobStatus = "running"

	// StatusSucceeded means the job finished cleanly.
	StatusSucceeded JobStatus = "succeeded"

	// StatusFailed means the job finished with an error.
	StatusFailed JobStatus = "failed"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s JobStatus) String() string {
	return string(s)
}

// Resources describes the compute resources assigned to a job.
type Resources struct {
	// CPU is the number of CPU cores.
	CPU float64

	// GPU is the number of GPUs, zero for CPU-only jobs.
	GPU int

	// GPUModel names the GPU hardware, empty when GPU is zero.
	GPUModel string

	// Memory is the memory amount in platform notation (e.g. "16G").
	Memory string

	// SHM indicates the job requested extended shared memory.
	SHM bool
}

// Job is a remote compute job tracked by NeuroX.
type Job struct {
	// ID is the platform-assigned job identifier.
	ID string

	// Status is the current lifecycle state.
	Status JobStatus

	// Reason carries the platform's explanation for the current status.
	Reason string

	// Description is the user-supplied display name; may be empty.
	Description string

	// Image is the container image the job runs.
	Image string

	// Owner is the submitting username.
	Owner string

	// Resources are the compute resources assigned to the job.
	Resources Resources

	// CreatedAt is when the job was submitted.
	CreatedAt time.Time

	// HTTPURL is the exposed HTTP endpoint, empty when none was requested.
	HTTPURL string

	// SSH reports whether the job accepts SSH connections.
	SSH bool
}

// DisplayName returns the job description, falling back to the ID.
func (j Job) DisplayName() string {
	if j.Description != "" {
		return j.Description
	}
	return j.ID
}

// Update is a single observed change in the job set, delivered to callbacks
// registered with [WithUpdateCallback]. The concrete type is either
// [NewJobUpdate] or [StatusUpdate].
type Update interface {
	// JobID identifies the job the update is about.
	JobID() string

	isUpdate()
}

// NewJobUpdate reports a job seen for the first time.
type NewJobUpdate struct {
	ID     string
	Status JobStatus
	Reason string
}

func (u NewJobUpdate) JobID() string { return u.ID }
func (u NewJobUpdate) isUpdate()     {}

// StatusUpdate reports a known job whose status changed between polls.
type StatusUpdate struct {
	ID     string
	Status JobStatus
	Reason string
}

func (u StatusUpdate) JobID() string { return u.ID }
func (u StatusUpdate) isUpdate()     {}

// fromPlatformJob converts the wire representation to the public type.
func fromPlatformJob(j platform.JobDescription) Job {
	return Job{
		ID:          j.ID,
		Status:      JobStatus(j.Status),
		Reason:      j.Reason,
		Description: j.Description,
		Image:       j.Image,
		Owner:       j.Owner,
		Resources: Resources{
			CPU:      j.Resources.CPU,
			GPU:      j.Resources.GPU,
			GPUModel: j.Resources.GPUModel,
			Memory:   j.Resources.Memory,
			SHM:      j.Resources.SHM,
		},
		CreatedAt: j.CreatedAt,
		HTTPURL:   j.HTTPURL,
		SSH:       j.SSH(),
	}
}

// fromPollerUpdate converts an internal update to the public type.
func fromPollerUpdate(u poller.Update) Update {
	switch u := u.(type) {
	case poller.NewJobUpdate:
		return NewJobUpdate{ID: u.ID, Status: JobStatus(u.Status), Reason: u.Reason}
	case poller.StatusUpdate:
		return StatusUpdate{ID: u.ID, Status: JobStatus(u.Status), Reason: u.Reason}
	default:
		return nil
	}
}
