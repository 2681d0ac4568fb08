package platform

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a job as reported by the platform.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
)

// Resources describes the compute resources assigned to a job.
type Resources struct {
	// CPU is the number of CPU cores.
	CPU float64 `json:"cpu"`

	// GPU is the number of GPUs, zero for CPU-only jobs.
	GPU int `json:"gpu,omitempty"`

	// GPUModel names the GPU hardware, empty when GPU is zero.
	GPUModel string `json:"gpu_model,omitempty"`

	// Memory is the memory amount in platform notation (e.g. "16G").
	Memory string `json:"memory"`

	// SHM indicates the job requested extended shared memory.
	SHM bool `json:"shm,omitempty"`
}

// JobDescription is a job as reported by the platform's job listing.
type JobDescription struct {
	// ID is the platform-assigned job identifier.
	ID string `json:"id"`

	// Status is the current lifecycle state.
	Status JobStatus `json:"status"`

	// Reason carries the platform's explanation for the current status,
	// typically set for pending and failed jobs.
	Reason string `json:"reason,omitempty"`

	// Description is the user-supplied display name. May be empty, in which
	// case callers fall back to the ID.
	Description string `json:"description,omitempty"`

	// Image is the container image the job runs.
	Image string `json:"image"`

	// Owner is the submitting username.
	Owner string `json:"owner,omitempty"`

	// Resources are the compute resources assigned to the job.
	Resources Resources `json:"resources"`

	// CreatedAt is when the job was submitted.
	CreatedAt time.Time `json:"-"`

	// HTTPURL is the exposed HTTP endpoint, empty when none was requested.
	HTTPURL string `json:"http_url,omitempty"`

	// SSHServer is the hostname to connect to for SSH access, empty when
	// the job was submitted without --ssh.
	SSHServer string `json:"ssh_server,omitempty"`
}

// SSH reports whether the job accepts SSH connections.
func (j JobDescription) SSH() bool {
	return j.SSHServer != ""
}

// DisplayName returns the job description, falling back to the ID.
func (j JobDescription) DisplayName() string {
	if j.Description != "" {
		return j.Description
	}
	return j.ID
}

// jobPayload is the wire form of a job. The creation timestamp arrives as an
// ISO-8601 string inside a history object and is validated during decode.
type jobPayload struct {
	JobDescription
	History struct {
		CreatedAt  string `json:"created_at"`
		StartedAt  string `json:"started_at,omitempty"`
		FinishedAt string `json:"finished_at,omitempty"`
	} `json:"history"`
}

// decodeJob validates a wire job and converts it to a [JobDescription].
func decodeJob(raw json.RawMessage) (JobDescription, error) {
	var p jobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return JobDescription{}, &ValidationError{Msg: "undecodable job entry", Err: err}
	}

	if p.ID == "" {
		return JobDescription{}, &ValidationError{Msg: "job entry is missing an id"}
	}
	if p.Status == "" {
		return JobDescription{}, &ValidationError{Msg: fmt.Sprintf("job %s is missing a status", p.ID)}
	}
	if p.History.CreatedAt == "" {
		return JobDescription{}, &ValidationError{Msg: fmt.Sprintf("job %s is missing a creation timestamp", p.ID)}
	}

	createdAt, err := time.Parse(time.RFC3339, p.History.CreatedAt)
	if err != nil {
		return JobDescription{}, &ValidationError{
			Msg: fmt.Sprintf("job %s has a bad creation timestamp %q", p.ID, p.History.CreatedAt),
			Err: err,
		}
	}

	job := p.JobDescription
	job.CreatedAt = createdAt
	return job, nil
}
