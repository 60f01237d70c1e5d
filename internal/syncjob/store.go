package syncjob

import (
	"context"
	"time"
)

// JobStore is the persistence boundary for sync jobs. The attempt log is
// read-then-written without optimistic concurrency; last-writer-wins is
// accepted for the audit trail but not for the status field, which is why
// resume takes a claim lease first.
type JobStore interface {
	// ListActive returns jobs in syncing/partial/paused status, optionally
	// filtered by platform and/or workspace (empty string = no filter).
	ListActive(ctx context.Context, platform, workspaceID string) ([]Job, error)

	// SaveAttempts persists a job's recovery-attempt log.
	SaveAttempts(ctx context.Context, job *Job) error

	// MarkFailed transitions a job to the terminal failed state with the
	// given reason and can_retry set, persisting the attempt log with it.
	MarkFailed(ctx context.Context, job *Job, reason string) error

	// Claim takes the recovery lease on a job until the given time. It
	// returns false when another scanner holds an unexpired lease.
	Claim(ctx context.Context, job *Job, until time.Time) (bool, error)
}
