// Package monitoring notifies operators about stuck-job recovery activity.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-sync/internal/syncjob"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertStuckJobs      AlertType = "stuck_jobs"
	AlertRecoveryFailed AlertType = "recovery_failed"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter turns recovery scan results into alerts and delivers them to a
// webhook.
type Alerter struct {
	webhookURL string
	client     *http.Client
}

// NewAlerter creates an Alerter posting to the given webhook URL. An empty
// URL disables delivery.
func NewAlerter(webhookURL string) *Alerter {
	return &Alerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate builds alerts from a recovery scan: one summary alert when any
// jobs were stuck, plus a high-severity alert when any recovery action
// failed outright.
func (a *Alerter) Evaluate(scan *syncjob.ScanResult) []Alert {
	if scan == nil || scan.StuckCount == 0 {
		return nil
	}
	now := time.Now().UTC()

	byAction := map[string]int{}
	var failed []syncjob.JobResult
	for _, r := range scan.Results {
		byAction[r.Action]++
		if !r.Success {
			failed = append(failed, r)
		}
	}

	alerts := []Alert{{
		Type:     AlertStuckJobs,
		Severity: "medium",
		Message: fmt.Sprintf("%d stuck sync job(s) detected (%d resumed, %d reset)",
			scan.StuckCount, byAction["resume"], byAction["reset"]),
		Details: map[string]any{
			"stuck_count": scan.StuckCount,
			"by_action":   byAction,
		},
		Timestamp: now,
	}}

	if len(failed) > 0 {
		details := make([]map[string]any, 0, len(failed))
		for _, r := range failed {
			details = append(details, map[string]any{
				"platform":     r.Platform,
				"workspace_id": r.WorkspaceID,
				"message":      r.Message,
			})
		}
		alerts = append(alerts, Alert{
			Type:     AlertRecoveryFailed,
			Severity: "high",
			Message: fmt.Sprintf("%d stuck job(s) could not be recovered",
				len(failed)),
			Details:   map[string]any{"jobs": details},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.webhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
