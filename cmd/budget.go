package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/budget"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show budget ledger status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		ledger, err := st.LoadLedger(ctx)
		if err != nil {
			return err
		}
		if ledger == nil {
			fileLedger, ferr := budget.LoadLedger(cfg.Budget.LedgerPath, cfg.Budget.MonthlyLimitUSD, time.Now())
			if ferr != nil {
				return ferr
			}
			ledger = &fileLedger
		}

		gov, err := budget.NewGovernor(budget.Rates{
			ExaPerQuery:    cfg.Budget.ExaPerQuery,
			SerperPerQuery: cfg.Budget.SerperPerQuery,
		}, cfg.Budget.MonthlyLimitUSD)
		if err != nil {
			return err
		}
		gov.RestoreLedger(*ledger)
		status := gov.Status()

		fmt.Printf("Monthly: $%.3f / $%.2f (%s)\n", status.MonthlySpent, status.MonthlyLimit, status.Severity)
		fmt.Printf("Today:   $%.3f\n", status.DailySpent)
		for backend, spent := range ledger.SpendByBackend {
			fmt.Printf("  %-8s $%.3f\n", backend, spent)
		}
		if !status.WithinBudget {
			fmt.Println("Monthly limit exceeded; new campaigns will still run but should be reviewed.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}
