package main

import (
	"fmt"

	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a bearer token for a user id (development)",
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, _ := cmd.Flags().GetInt("user")
		name, _ := cmd.Flags().GetString("name")
		if userId <= 0 {
			return fmt.Errorf("--user must be positive")
		}
		token, err := utils.JwtGenerate(userId, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Int("user", 0, "User id from the identity provider")
	tokenCmd.Flags().String("name", "", "Display name carried in the token")
}
