package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-sync/internal/monitoring"
	"github.com/sells-group/outreach-sync/internal/platform"
	"github.com/sells-group/outreach-sync/internal/syncjob"
)

var (
	recoverAction      string
	recoverPlatform    string
	recoverWorkspace   string
	recoverForceResume bool
	recoverJSON        bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Detect and recover stuck sync jobs",
	Long:  "Scans active sync jobs for ones that stopped making progress, then resumes them from their last recorded position or resets them to a retryable failed state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		action, err := syncjob.ParseAction(recoverAction)
		if err != nil {
			return err
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := syncjob.NewPostgresStore(pool)
		resumer := platform.NewClient(platformEndpoints())
		orch := syncjob.NewOrchestrator(store, resumer)

		scan, err := orch.Run(ctx, syncjob.Options{
			Action:      action,
			Platform:    recoverPlatform,
			WorkspaceID: recoverWorkspace,
			ForceResume: recoverForceResume,
		})
		if err != nil {
			return eris.Wrap(err, "recover")
		}

		alerter := monitoring.NewAlerter(cfg.Recovery.WebhookURL)
		alerter.SendAlerts(ctx, alerter.Evaluate(scan))

		if recoverJSON {
			return json.NewEncoder(os.Stdout).Encode(scan)
		}
		formatScanResult(os.Stdout, scan)
		return nil
	},
}

func init() {
	recoverCmd.Flags().StringVar(&recoverAction, "action", "auto", "recovery action: auto, detect, resume, reset")
	recoverCmd.Flags().StringVar(&recoverPlatform, "platform", "", "limit scan to one platform")
	recoverCmd.Flags().StringVar(&recoverWorkspace, "workspace", "", "limit scan to one workspace")
	recoverCmd.Flags().BoolVar(&recoverForceResume, "force-resume", false, "resume even past the attempt cap")
	recoverCmd.Flags().BoolVar(&recoverJSON, "json", false, "emit the scan result as JSON")
	rootCmd.AddCommand(recoverCmd)
}

// formatScanResult writes a tabular representation of a recovery scan to w.
func formatScanResult(out io.Writer, scan *syncjob.ScanResult) {
	if scan.StuckCount == 0 {
		fmt.Fprintln(out, "No stuck sync jobs found")
		return
	}

	fmt.Fprintf(out, "%d stuck sync job(s)\n\n", scan.StuckCount)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tWORKSPACE\tACTION\tSTUCK\tOK\tMESSAGE")
	fmt.Fprintln(w, "--------\t---------\t------\t-----\t--\t-------")
	for _, r := range scan.Results {
		ok := "yes"
		if !r.Success {
			ok = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dm\t%s\t%s\n",
			r.Platform, r.WorkspaceID, r.Action, r.StuckMinutes, ok, truncate(r.Message, 80))
	}
	w.Flush()
}
