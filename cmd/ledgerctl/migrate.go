package main

import (
	"fmt"

	"github.com/mmdatafocus/tradeledger/models"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:               "migrate",
	Short:             "Create or update the ledger tables",
	PersistentPreRunE: connect,
	PersistentPostRun: disconnect,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := models.MigrateTable(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
