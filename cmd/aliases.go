package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-sync/internal/matching"
	"github.com/sells-group/outreach-sync/internal/reconcile"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Manage sponsor and company aliases",
}

var (
	aliasesLoadFile      string
	aliasesLoadWorkspace string
)

var aliasesLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load aliases from a yaml file into a workspace",
	Long:  "Upserts shorthand-to-canonical name mappings used during campaign matching, e.g. nhp -> New Heritage Partners.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		aliases, err := matching.LoadAliasFile(aliasesLoadFile)
		if err != nil {
			return err
		}
		if len(aliases) == 0 {
			return eris.Errorf("no aliases found in %s", aliasesLoadFile)
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := reconcile.NewPostgresStore(pool)
		n, err := store.SaveAliases(ctx, aliasesLoadWorkspace, aliases)
		if err != nil {
			return eris.Wrap(err, "aliases load")
		}

		zap.L().Info("aliases loaded",
			zap.String("file", aliasesLoadFile),
			zap.String("workspace", aliasesLoadWorkspace),
			zap.Int64("upserted", n),
		)
		return nil
	},
}

func init() {
	aliasesLoadCmd.Flags().StringVar(&aliasesLoadFile, "file", "", "yaml alias file (required)")
	aliasesLoadCmd.Flags().StringVar(&aliasesLoadWorkspace, "workspace", "", "workspace ID (required)")
	_ = aliasesLoadCmd.MarkFlagRequired("file")
	_ = aliasesLoadCmd.MarkFlagRequired("workspace")
	aliasesCmd.AddCommand(aliasesLoadCmd)
	rootCmd.AddCommand(aliasesCmd)
}
