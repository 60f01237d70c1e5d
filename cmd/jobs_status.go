package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-sync/internal/syncjob"
)

var (
	jobsStatusPlatform  string
	jobsStatusWorkspace string
)

var jobsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show active sync jobs and their health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := syncjob.NewPostgresStore(pool)
		jobs, err := store.ListActive(ctx, jobsStatusPlatform, jobsStatusWorkspace)
		if err != nil {
			return eris.Wrap(err, "jobs status")
		}

		if len(jobs) == 0 {
			zap.L().Info("no active sync jobs")
			return nil
		}

		formatJobEntries(os.Stdout, jobs, time.Now().UTC())
		return nil
	},
}

func init() {
	jobsStatusCmd.Flags().StringVar(&jobsStatusPlatform, "platform", "", "limit to one platform")
	jobsStatusCmd.Flags().StringVar(&jobsStatusWorkspace, "workspace", "", "limit to one workspace")
	jobsCmd.AddCommand(jobsStatusCmd)
}

// formatJobEntries writes a tabular representation of active jobs to w,
// marking the ones that exceeded their no-activity threshold.
func formatJobEntries(out io.Writer, jobs []syncjob.Job, now time.Time) {
	stuck := make(map[string]int)
	for _, sj := range syncjob.DetectStuck(jobs, now) {
		stuck[sj.Platform+"/"+sj.WorkspaceID] = sj.StuckMinutes()
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tWORKSPACE\tSTATUS\tLAST ACTIVITY\tATTEMPTS\tHEALTH")
	fmt.Fprintln(w, "--------\t---------\t------\t-------------\t--------\t------")
	for _, j := range jobs {
		idle := now.Sub(j.LastActivity()).Round(time.Second)
		health := "ok"
		if m, isStuck := stuck[j.Platform+"/"+j.WorkspaceID]; isStuck {
			health = fmt.Sprintf("stuck %dm", m)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s ago\t%d\t%s\n",
			j.Platform, j.WorkspaceID, j.Status, idle, len(j.Attempts), health)
	}
	w.Flush()
}
