package domain

import "time"

// JobStatus represents the lifecycle state of a background job
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobStopped   JobStatus = "stopped"
)

// IsTerminal returns true for statuses that represent a final state
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobStopped
}

// Job is a persisted record for one detached bulk invocation.
// It is the only coordination point between the launching process,
// the worker process, and any lister/attacher processes.
type Job struct {
	ID           string
	Command      string
	Status       JobStatus
	PID          int // -1 until the worker process has been spawned
	LogFile      string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Total        int
	Done         int
	Errors       int
	ErrorMessage string
}

// ShortID returns the stable 8-character display prefix of the job ID
func (j *Job) ShortID() string {
	if len(j.ID) < 8 {
		return j.ID
	}
	return j.ID[:8]
}
