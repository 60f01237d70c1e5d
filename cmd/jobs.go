package main

import (
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Sync job inspection",
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}
