package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mmdatafocus/tradeledger/models/reports"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/spf13/cobra"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print or export the party balance report of one organization",
	Example: `  # Balances for April
  ledgerctl balances --org 3 --from 2024-04-01 --to 2024-04-30

  # Same report as a spreadsheet
  ledgerctl balances --org 3 --from 2024-04-01 --to 2024-04-30 --xlsx april.xlsx`,
	PersistentPreRunE: connect,
	PersistentPostRun: disconnect,
	RunE:              runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)

	balancesCmd.Flags().Int("org", 0, "Organization id (required)")
	balancesCmd.Flags().String("from", "", "Period start (YYYY-MM-DD, optional)")
	balancesCmd.Flags().String("to", "", "Period end (YYYY-MM-DD, optional)")
	balancesCmd.Flags().String("xlsx", "", "Write the report to this .xlsx file instead of printing it")
	_ = balancesCmd.MarkFlagRequired("org")
}

func runBalances(cmd *cobra.Command, args []string) error {
	orgId, _ := cmd.Flags().GetInt("org")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")

	from, err := utils.ParseOptionalDate(fromStr)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := utils.ParseOptionalDate(toStr)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	ctx := utils.SetUserNameInContext(context.Background(), "ledgerctl")
	report, err := reports.GetPartyBalanceReport(ctx, orgId, from, to)
	if err != nil {
		return err
	}

	if xlsxPath != "" {
		f, err := os.Create(xlsxPath)
		if err != nil {
			return err
		}
		if err := reports.WritePartyBalancesXlsx(f, report); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(report.Rows), xlsxPath)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Party\tOpening\tSale\tPurchase\tNaame\tJama\tBalance\t")
	for _, row := range report.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", row.PartyName,
			row.Opening.StringFixed(2), row.Sale.StringFixed(2), row.Purchase.StringFixed(2),
			row.Naame.StringFixed(2), row.Jama.StringFixed(2), row.Balance.StringFixed(2))
	}
	t := report.Totals
	fmt.Fprintf(w, "Total\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
		t.Opening.StringFixed(2), t.Sale.StringFixed(2), t.Purchase.StringFixed(2),
		t.Naame.StringFixed(2), t.Jama.StringFixed(2), t.Balance.StringFixed(2))
	return w.Flush()
}
