package syncjob

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-sync/internal/db"
)

// PostgresStore persists sync jobs in outreach.sync_jobs. Progress and the
// recovery-attempt log live in jsonb columns so the sync processes and this
// subsystem can evolve their fields independently.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a job store backed by the given pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ JobStore = (*PostgresStore)(nil)

// ListActive returns jobs in an active status, optionally filtered by
// platform and/or workspace.
func (s *PostgresStore) ListActive(ctx context.Context, platform, workspaceID string) ([]Job, error) {
	query := `
		SELECT platform, workspace_id, status, progress, error, can_retry,
		       recovery_attempts, recovery_claimed_until, updated_at
		FROM outreach.sync_jobs
		WHERE status IN ('syncing', 'partial', 'paused')
		  AND ($1 = '' OR platform = $1)
		  AND ($2 = '' OR workspace_id = $2)
		ORDER BY platform, workspace_id`

	rows, err := s.pool.Query(ctx, query, platform, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "syncjob: query active jobs")
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var (
			j           Job
			errMsg      *string
			progressRaw []byte
			attemptsRaw []byte
		)
		if err := rows.Scan(&j.Platform, &j.WorkspaceID, &j.Status, &progressRaw,
			&errMsg, &j.CanRetry, &attemptsRaw, &j.ClaimedUntil, &j.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "syncjob: scan job row")
		}
		if errMsg != nil {
			j.Error = *errMsg
		}
		if len(progressRaw) > 0 {
			if err := json.Unmarshal(progressRaw, &j.Progress); err != nil {
				return nil, eris.Wrapf(err, "syncjob: decode progress for %s/%s", j.Platform, j.WorkspaceID)
			}
		}
		if len(attemptsRaw) > 0 {
			if err := json.Unmarshal(attemptsRaw, &j.Attempts); err != nil {
				return nil, eris.Wrapf(err, "syncjob: decode attempts for %s/%s", j.Platform, j.WorkspaceID)
			}
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "syncjob: iterate job rows")
	}
	return jobs, nil
}

// SaveAttempts persists a job's recovery-attempt log without touching its
// status or progress.
func (s *PostgresStore) SaveAttempts(ctx context.Context, job *Job) error {
	attempts, err := json.Marshal(job.Attempts)
	if err != nil {
		return eris.Wrap(err, "syncjob: encode attempts")
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE outreach.sync_jobs
		SET recovery_attempts = $1
		WHERE platform = $2 AND workspace_id = $3`,
		attempts, job.Platform, job.WorkspaceID)
	if err != nil {
		return eris.Wrapf(err, "syncjob: save attempts for %s/%s", job.Platform, job.WorkspaceID)
	}
	return nil
}

// MarkFailed transitions a job to failed with can_retry set, storing the
// reason and the updated attempt log.
func (s *PostgresStore) MarkFailed(ctx context.Context, job *Job, reason string) error {
	attempts, err := json.Marshal(job.Attempts)
	if err != nil {
		return eris.Wrap(err, "syncjob: encode attempts")
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE outreach.sync_jobs
		SET status = 'failed',
		    error = $1,
		    can_retry = TRUE,
		    recovery_attempts = $2,
		    recovery_claimed_until = NULL,
		    updated_at = now()
		WHERE platform = $3 AND workspace_id = $4`,
		reason, attempts, job.Platform, job.WorkspaceID)
	if err != nil {
		return eris.Wrapf(err, "syncjob: mark failed %s/%s", job.Platform, job.WorkspaceID)
	}

	job.Status = StatusFailed
	job.Error = reason
	job.CanRetry = true
	return nil
}

// Claim takes the recovery lease on a job until the given time. The
// conditional update makes the claim atomic: it wins only when no unexpired
// lease is held.
func (s *PostgresStore) Claim(ctx context.Context, job *Job, until time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE outreach.sync_jobs
		SET recovery_claimed_until = $1
		WHERE platform = $2 AND workspace_id = $3
		  AND (recovery_claimed_until IS NULL OR recovery_claimed_until < now())`,
		until, job.Platform, job.WorkspaceID)
	if err != nil {
		return false, eris.Wrapf(err, "syncjob: claim %s/%s", job.Platform, job.WorkspaceID)
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}
	job.ClaimedUntil = &until
	return true, nil
}
