package main

import (
	"fmt"
	"os"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Maintenance commands for the trade ledger",
	Long: `ledgerctl runs one-off maintenance against the ledger database.

The database is selected the same way as the server (DB_DRIVER, DB_* or
DB_DSN from the environment or .env).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		config.GetLogger().WithFields(logrus.Fields{"field": "ledgerctl"}).Error(err.Error())
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// connect opens the database for commands that need it.
func connect(cmd *cobra.Command, args []string) error {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		return fmt.Errorf("database not initialized")
	}
	return nil
}

func disconnect(cmd *cobra.Command, args []string) {
	config.CloseDatabase()
}
