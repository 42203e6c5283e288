package domain

import "time"

// RunStatus is the lifecycle state of a sync run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// SyncRun is the audit record for one pipeline invocation of one category.
// It is created before any I/O begins and finalized exactly once on every
// exit path. CompletedAt is set iff the status is terminal.
type SyncRun struct {
	ID             string
	Category       Category
	Status         RunStatus
	TotalRecords   int
	NewRecords     int
	UpdatedRecords int
	ErrorMessage   string
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// Terminal reports whether the run has reached a final status.
func (r SyncRun) Terminal() bool {
	return r.Status == RunSuccess || r.Status == RunFailed
}
