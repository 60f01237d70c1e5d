package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-sync/internal/reconcile"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import campaign snapshots from a JSON file",
	Long:  "Upserts raw campaign rows exported from a platform sync. Existing engagement links are preserved; only the sync-owned columns are refreshed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(importFile)
		if err != nil {
			return eris.Wrapf(err, "read %s", importFile)
		}

		var snapshots []struct {
			ID          string `json:"id"`
			WorkspaceID string `json:"workspace_id"`
			Platform    string `json:"platform"`
			Name        string `json:"name"`
			Sent        int    `json:"sent"`
			Replied     int    `json:"replied"`
		}
		if err := json.Unmarshal(data, &snapshots); err != nil {
			return eris.Wrapf(err, "parse %s", importFile)
		}
		if len(snapshots) == 0 {
			return eris.Errorf("no campaigns found in %s", importFile)
		}

		rows := make([]reconcile.CampaignSnapshot, len(snapshots))
		for i, s := range snapshots {
			rows[i] = reconcile.CampaignSnapshot{
				ID:          s.ID,
				WorkspaceID: s.WorkspaceID,
				Platform:    s.Platform,
				Name:        s.Name,
				Sent:        s.Sent,
				Replied:     s.Replied,
			}
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := reconcile.NewPostgresStore(pool)
		n, err := store.ImportCampaigns(ctx, rows)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("campaigns imported",
			zap.String("file", importFile),
			zap.Int64("upserted", n),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "JSON campaign export (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
