package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-sync/internal/matching"
	"github.com/sells-group/outreach-sync/internal/reconcile"
)

var (
	reconcileWorkspace string
	reconcileDryRun    bool
	reconcileJSON      bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Link unassigned campaigns to engagements by name",
	Long:  "Parses unassigned campaign names into sponsor/company segments and links each campaign to the engagement both segments identify. Ambiguous and unmatched campaigns are reported for manual review.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := reconcile.NewPostgresStore(pool)
		driver := reconcile.NewDriver(store, matching.NewParser(matching.DefaultParserConfig()))

		report, err := driver.Reconcile(ctx, reconcileWorkspace, reconcileDryRun)
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}

		if reconcileJSON {
			return json.NewEncoder(os.Stdout).Encode(report)
		}
		formatReconcileReport(os.Stdout, report)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileWorkspace, "workspace", "", "workspace ID (required)")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "preview links without writing")
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "emit the report as JSON")
	_ = reconcileCmd.MarkFlagRequired("workspace")
	rootCmd.AddCommand(reconcileCmd)
}

// formatReconcileReport writes a tabular representation of a reconcile run to w.
func formatReconcileReport(out io.Writer, report *reconcile.Report) {
	mode := "applied"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(out, "Linked %d campaigns, %d left unlinked (%s)\n\n",
		report.CampaignsLinked, report.CampaignsUnlinked, mode)

	if len(report.LinkedGroups) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ENGAGEMENT\tCAMPAIGNS")
		fmt.Fprintln(w, "----------\t---------")
		for _, g := range report.LinkedGroups {
			fmt.Fprintf(w, "%s\t%d\n", g.Engagement, len(g.Campaigns))
		}
		w.Flush()
		fmt.Fprintln(out)
	}

	printEntries := func(title string, entries []reconcile.UnlinkedEntry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(out, "%s:\n", title)
		for _, e := range entries {
			fmt.Fprintf(out, "  %s\t%s\n", e.Name, truncate(e.Reason, 100))
		}
		fmt.Fprintln(out)
	}
	printEntries("Ambiguous (manual review required)", report.Ambiguous)
	printEntries("Unmatched", report.Unlinked)

	zap.L().Info("reconcile complete",
		zap.Int("linked", report.CampaignsLinked),
		zap.Int("unlinked", report.CampaignsUnlinked),
		zap.Bool("dry_run", report.DryRun),
	)
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
