package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/outreach-sync/internal/reconcile"
	"github.com/sells-group/outreach-sync/internal/syncjob"
)

func TestFormatReconcileReport(t *testing.T) {
	var buf bytes.Buffer
	formatReconcileReport(&buf, &reconcile.Report{
		CampaignsLinked:   3,
		CampaignsUnlinked: 2,
		LinkedGroups: []reconcile.LinkedGroup{
			{Engagement: "Acme / Roadrunner", Campaigns: []string{"c1", "c2", "c3"}},
		},
		Ambiguous: []reconcile.UnlinkedEntry{
			{Name: "Acme - Roadrunner", Reason: "ambiguous match: Acme / Roadrunner I, Acme / Roadrunner II"},
		},
		Unlinked: []reconcile.UnlinkedEntry{
			{Name: "Q3 Retargeting", Reason: "insufficient segments (0): []"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Linked 3 campaigns, 2 left unlinked (applied)")
	assert.Contains(t, out, "Acme / Roadrunner")
	assert.Contains(t, out, "Ambiguous (manual review required)")
	assert.Contains(t, out, "Q3 Retargeting")
}

func TestFormatReconcileReport_DryRun(t *testing.T) {
	var buf bytes.Buffer
	formatReconcileReport(&buf, &reconcile.Report{DryRun: true})
	assert.Contains(t, buf.String(), "(dry-run)")
}

func TestFormatScanResult(t *testing.T) {
	var buf bytes.Buffer
	formatScanResult(&buf, &syncjob.ScanResult{
		StuckCount: 2,
		Results: []syncjob.JobResult{
			{Platform: "mailer", WorkspaceID: "ws1", Action: "resume", StuckMinutes: 7, Success: true, Message: "resume requested after 7 minutes stuck"},
			{Platform: "dialer", WorkspaceID: "ws2", Action: "reset", StuckMinutes: 31, Success: true, Message: "stuck for 31 minutes with no progress"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "2 stuck sync job(s)")
	assert.Contains(t, out, "mailer")
	assert.Contains(t, out, "resume")
	assert.Contains(t, out, "31m")
}

func TestFormatScanResult_Clean(t *testing.T) {
	var buf bytes.Buffer
	formatScanResult(&buf, &syncjob.ScanResult{})
	assert.Contains(t, buf.String(), "No stuck sync jobs found")
}

func TestFormatJobEntries(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	formatJobEntries(&buf, []syncjob.Job{
		{Platform: "mailer", WorkspaceID: "ws1", Status: syncjob.StatusSyncing, UpdatedAt: now.Add(-time.Minute)},
		{Platform: "dialer", WorkspaceID: "ws2", Status: syncjob.StatusPaused, UpdatedAt: now.Add(-15 * time.Minute)},
	}, now)

	lines := strings.Split(buf.String(), "\n")
	assert.Contains(t, lines[2], "ok")
	assert.Contains(t, lines[3], "stuck 15m")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefghij", 5))
}
