package domain

import "time"

// JobStatus enumerates the lifecycle of a job run.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
	JobStatusPartial JobStatus = "partial"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSuccess, JobStatusFailed, JobStatusPartial:
		return true
	default:
		return false
	}
}

// JobRun records one orchestrator invocation.
type JobRun struct {
	ID             int64
	JobName        string
	Status         JobStatus
	StartedAt      time.Time
	FinishedAt     *time.Time
	ProcessedCount int
	ErrorCount     int
	Details        map[string]any
}
