// Package syncjob watches long-running, resumable ingestion jobs across the
// external outreach platforms, detects stuck jobs, and runs the bounded
// resume/reset recovery state machine.
package syncjob

import (
	"time"
)

// Status is the lifecycle state of a sync job.
type Status string

const (
	StatusSyncing Status = "syncing"
	StatusPartial Status = "partial"
	StatusPaused  Status = "paused"
	StatusFailed  Status = "failed"
	StatusIdle    Status = "idle"
)

// activeStatuses are the statuses the health monitor considers. Failed and
// idle jobs are never stuck by definition.
var activeStatuses = map[Status]bool{
	StatusSyncing: true,
	StatusPartial: true,
	StatusPaused:  true,
}

// Progress is the phase-specific progress blob the sync process maintains.
// Each platform reads different continuation fields on resume.
type Progress struct {
	Heartbeat    *time.Time `json:"heartbeat,omitempty"`
	ResumeOffset int        `json:"resume_offset,omitempty"`
	ChunkIndex   int        `json:"chunk_index,omitempty"`
	BatchNumber  int        `json:"batch_number,omitempty"`
	TotalItems   int        `json:"total_items,omitempty"`
}

// RecoveryAttempt is one logged recovery action against a job. Repeated
// scans read this history to bound future retries.
type RecoveryAttempt struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"` // "resume" or "reset"
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
}

// maxAttemptHistory caps the stored recovery-attempt log; oldest entries are
// dropped first so storage stays bounded.
const maxAttemptHistory = 10

// Job is one sync job: a (platform, workspace) pair with its progress blob
// and bounded recovery history.
type Job struct {
	Platform     string            `json:"platform"`
	WorkspaceID  string            `json:"workspace_id"`
	Status       Status            `json:"status"`
	Progress     Progress          `json:"progress"`
	Error        string            `json:"error,omitempty"`
	CanRetry     bool              `json:"can_retry"`
	Attempts     []RecoveryAttempt `json:"recovery_attempts,omitempty"`
	ClaimedUntil *time.Time        `json:"recovery_claimed_until,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Active reports whether the job is in a status the monitor watches.
func (j *Job) Active() bool {
	return activeStatuses[j.Status]
}

// LastActivity returns the most recent sign of life: the progress heartbeat
// when present and newer, otherwise the row's updated_at.
func (j *Job) LastActivity() time.Time {
	if j.Progress.Heartbeat != nil && j.Progress.Heartbeat.After(j.UpdatedAt) {
		return *j.Progress.Heartbeat
	}
	return j.UpdatedAt
}

// AppendAttempt records a recovery attempt, dropping the oldest entries to
// keep the log at maxAttemptHistory.
func (j *Job) AppendAttempt(a RecoveryAttempt) {
	j.Attempts = append(j.Attempts, a)
	if len(j.Attempts) > maxAttemptHistory {
		j.Attempts = j.Attempts[len(j.Attempts)-maxAttemptHistory:]
	}
}

// AttemptsSince counts recovery attempts logged at or after the cutoff.
func (j *Job) AttemptsSince(cutoff time.Time) int {
	n := 0
	for _, a := range j.Attempts {
		if !a.Timestamp.Before(cutoff) {
			n++
		}
	}
	return n
}
