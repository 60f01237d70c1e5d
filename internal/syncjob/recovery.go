package syncjob

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Action selects the recovery behavior for a scan.
type Action string

const (
	// ActionAuto resumes recoverable jobs and resets the rest.
	ActionAuto Action = "auto"
	// ActionDetect is read-only: report stuck jobs without acting.
	ActionDetect Action = "detect"
	// ActionResume attempts a resume, falling back to reset on refusal or
	// failure.
	ActionResume Action = "resume"
	// ActionReset unconditionally fails the job.
	ActionReset Action = "reset"
)

// ParseAction validates an action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionAuto, ActionDetect, ActionResume, ActionReset:
		return Action(s), nil
	case "":
		return ActionAuto, nil
	default:
		return "", eris.Errorf("unknown recovery action: %q (valid: auto, detect, resume, reset)", s)
	}
}

const (
	// resumeAttemptCap bounds resumes per job within the rolling window;
	// at the cap the orchestrator resets instead, preventing resume/stall
	// loops.
	resumeAttemptCap = 3

	// attemptWindow is the rolling window the cap counts over.
	attemptWindow = time.Hour

	// hardStuckCeiling: a job stuck this long is reset outright under
	// auto, regardless of attempt history.
	hardStuckCeiling = 30 * time.Minute

	// claimLease is how long a scanner holds the recovery lease on a job
	// while resuming it.
	claimLease = 2 * time.Minute
)

// Resumer invokes the external continue-sync entry point for a job's
// platform, passing the continuation payload built from its progress blob.
type Resumer interface {
	Resume(ctx context.Context, job Job) error
}

// Options select what one recovery scan covers.
type Options struct {
	Action      Action
	Platform    string // empty = all platforms
	WorkspaceID string // empty = all workspaces
	// ForceResume bypasses the attempt-cap refusal (not the failure
	// fallback).
	ForceResume bool
}

// JobResult reports the outcome for one stuck job.
type JobResult struct {
	Platform     string `json:"platform"`
	WorkspaceID  string `json:"workspace_id"`
	Action       string `json:"action"`
	StuckMinutes int    `json:"stuck_duration_minutes"`
	Success      bool   `json:"success"`
	Message      string `json:"message"`
}

// ScanResult is the complete, structured outcome of one recovery scan.
type ScanResult struct {
	StuckCount int         `json:"stuck_count"`
	Results    []JobResult `json:"results"`
}

// Orchestrator runs the per-job recovery state machine. Invocations are
// expected to be externally serialized; the claim lease narrows (but does
// not close) the double-resume window between overlapping scans.
type Orchestrator struct {
	store   JobStore
	resumer Resumer
	now     func() time.Time
}

// NewOrchestrator creates a recovery orchestrator.
func NewOrchestrator(store JobStore, resumer Resumer) *Orchestrator {
	return &Orchestrator{store: store, resumer: resumer, now: time.Now}
}

// Run scans for stuck jobs and applies the selected action to each,
// sequentially. It always returns a complete ScanResult, even when
// individual jobs fail to recover.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*ScanResult, error) {
	log := zap.L().With(
		zap.String("component", "syncjob.recovery"),
		zap.String("action", string(opts.Action)),
	)

	jobs, err := o.store.ListActive(ctx, opts.Platform, opts.WorkspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "recovery: list active jobs")
	}

	now := o.now().UTC()
	stuck := DetectStuck(jobs, now)
	result := &ScanResult{StuckCount: len(stuck)}

	log.Info("recovery: scan starting",
		zap.Int("active_jobs", len(jobs)),
		zap.Int("stuck_jobs", len(stuck)),
	)

	for _, sj := range stuck {
		result.Results = append(result.Results, o.handle(ctx, sj, opts, now))
	}

	return result, nil
}

// handle applies the selected action to one stuck job.
func (o *Orchestrator) handle(ctx context.Context, sj StuckJob, opts Options, now time.Time) JobResult {
	switch opts.Action {
	case ActionDetect:
		return o.result(sj, "detect", true,
			fmt.Sprintf("stuck for %d minutes (%d recovery attempts on record)", sj.StuckMinutes(), len(sj.Attempts)))

	case ActionReset:
		return o.reset(ctx, sj)

	case ActionResume:
		if !opts.ForceResume && o.attemptCapReached(sj, now) {
			res := o.reset(ctx, sj)
			res.Message = "resume refused: attempt cap reached in the last hour; " + res.Message
			return res
		}
		return o.resumeWithFallback(ctx, sj, now)

	default: // ActionAuto
		if sj.StuckFor >= hardStuckCeiling {
			res := o.reset(ctx, sj)
			res.Message = fmt.Sprintf("stuck past %d-minute ceiling; ", int(hardStuckCeiling.Minutes())) + res.Message
			return res
		}
		if o.attemptCapReached(sj, now) {
			res := o.reset(ctx, sj)
			res.Message = "resume attempt cap reached in the last hour; " + res.Message
			return res
		}
		return o.resumeWithFallback(ctx, sj, now)
	}
}

// attemptCapReached reports whether the job has hit the resume cap within
// the rolling window. The capped (10-entry) stored log is rescanned on each
// call; with the cap that small a separate counter buys nothing.
func (o *Orchestrator) attemptCapReached(sj StuckJob, now time.Time) bool {
	return sj.AttemptsSince(now.Add(-attemptWindow)) >= resumeAttemptCap
}

// resumeWithFallback claims the job, invokes the platform resume, and falls
// back to reset on failure rather than leaving the job stuck and unresolved.
func (o *Orchestrator) resumeWithFallback(ctx context.Context, sj StuckJob, now time.Time) JobResult {
	log := zap.L().With(
		zap.String("platform", sj.Platform),
		zap.String("workspace_id", sj.WorkspaceID),
	)

	claimed, err := o.store.Claim(ctx, &sj.Job, now.Add(claimLease))
	if err != nil {
		return o.result(sj, "resume", false, "claim failed: "+err.Error())
	}
	if !claimed {
		log.Info("recovery: job claimed by another scan, skipping")
		return o.result(sj, "resume", false, "skipped: recovery lease held by another scan")
	}

	resumeErr := o.resumer.Resume(ctx, sj.Job)

	attempt := RecoveryAttempt{
		ID:        uuid.NewString(),
		Timestamp: now,
		Action:    "resume",
		Success:   resumeErr == nil,
	}
	if resumeErr != nil {
		attempt.Message = resumeErr.Error()
	}
	sj.AppendAttempt(attempt)

	if err := o.store.SaveAttempts(ctx, &sj.Job); err != nil {
		log.Error("recovery: failed to persist attempt log", zap.Error(err))
	}

	if resumeErr != nil {
		log.Warn("recovery: resume failed, falling back to reset", zap.Error(resumeErr))
		res := o.reset(ctx, sj)
		res.Message = "resume failed (" + resumeErr.Error() + "); " + res.Message
		return res
	}

	log.Info("recovery: resume requested", zap.Int("stuck_minutes", sj.StuckMinutes()))
	return o.result(sj, "resume", true,
		fmt.Sprintf("resume requested after %d minutes stuck", sj.StuckMinutes()))
}

// reset transitions the job to the terminal failed state with a retryable
// flag, logging the action in the attempt history.
func (o *Orchestrator) reset(ctx context.Context, sj StuckJob) JobResult {
	reason := fmt.Sprintf("stuck for %d minutes with no progress", sj.StuckMinutes())

	sj.AppendAttempt(RecoveryAttempt{
		ID:        uuid.NewString(),
		Timestamp: o.now().UTC(),
		Action:    "reset",
		Success:   true,
		Message:   reason,
	})

	if err := o.store.MarkFailed(ctx, &sj.Job, reason); err != nil {
		return o.result(sj, "reset", false, "failed to mark job failed: "+err.Error())
	}

	zap.L().Info("recovery: job reset to failed",
		zap.String("platform", sj.Platform),
		zap.String("workspace_id", sj.WorkspaceID),
		zap.String("reason", reason),
	)
	return o.result(sj, "reset", true, reason)
}

func (o *Orchestrator) result(sj StuckJob, action string, success bool, message string) JobResult {
	return JobResult{
		Platform:     sj.Platform,
		WorkspaceID:  sj.WorkspaceID,
		Action:       action,
		StuckMinutes: sj.StuckMinutes(),
		Success:      success,
		Message:      message,
	}
}
