package syncjob

import (
	"time"

	"go.uber.org/zap"
)

const (
	// recentUpdateGrace short-circuits stuck detection: any job whose row
	// was updated in the last 2 minutes is making progress, however stale
	// its heartbeat looks. Mitigates (not eliminates) false positives from
	// sync processes that update infrequently in wall-clock terms.
	recentUpdateGrace = 2 * time.Minute

	// syncingThreshold is the no-activity threshold for actively syncing
	// jobs.
	syncingThreshold = 5 * time.Minute

	// pausedThreshold applies to partial and paused jobs, which are
	// expected to sit idle longer before counting as abandoned.
	pausedThreshold = 10 * time.Minute
)

// StuckJob is a job that exceeded its no-activity threshold, annotated with
// how long it has been stuck.
type StuckJob struct {
	Job
	StuckFor time.Duration
}

// StuckMinutes returns the stuck duration in whole minutes, as reported to
// operators.
func (s StuckJob) StuckMinutes() int {
	return int(s.StuckFor / time.Minute)
}

// stuckThreshold returns the no-activity threshold for a status.
func stuckThreshold(status Status) time.Duration {
	if status == StatusSyncing {
		return syncingThreshold
	}
	return pausedThreshold
}

// DetectStuck classifies active jobs as stuck or healthy at the given
// instant. Only syncing/partial/paused jobs are considered; a job updated
// within the last 2 minutes is never stuck.
func DetectStuck(jobs []Job, now time.Time) []StuckJob {
	var stuck []StuckJob
	for _, j := range jobs {
		if !j.Active() {
			continue
		}

		if now.Sub(j.UpdatedAt) < recentUpdateGrace {
			continue
		}

		sinceActivity := now.Sub(j.LastActivity())
		if sinceActivity <= stuckThreshold(j.Status) {
			continue
		}

		zap.L().Debug("monitor: stuck job detected",
			zap.String("platform", j.Platform),
			zap.String("workspace_id", j.WorkspaceID),
			zap.String("status", string(j.Status)),
			zap.Duration("since_activity", sinceActivity),
		)
		stuck = append(stuck, StuckJob{Job: j, StuckFor: sinceActivity})
	}
	return stuck
}
