package domain

// FileFailure captures a single isolated per-file error.
type FileFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// RunSummary aggregates the outcome of one ingestion run.
type RunSummary struct {
	SourceID int64
	JobRunID int64
	Created  int
	Skipped  int
	Failed   int
	Failures []FileFailure
}

// Processed counts every file that reached the idempotency check.
func (s RunSummary) Processed() int {
	return s.Created + s.Skipped + s.Failed
}

// Status derives the terminal job status for the run.
func (s RunSummary) Status() JobStatus {
	switch {
	case s.Failed == 0:
		return JobStatusSuccess
	case s.Created > 0:
		return JobStatusPartial
	default:
		return JobStatusFailed
	}
}
