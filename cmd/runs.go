package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var (
	runsStatus string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List discovery runs",
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

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(runsStatus),
			Limit:  runsLimit,
		})
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return nil
		}

		for _, r := range runs {
			line := fmt.Sprintf("%s  %-10s  %s  [%s]",
				r.CreatedAt.Format("2006-01-02 15:04"),
				r.Status,
				strings.Join(r.Campaign.Keywords, ", "),
				r.ID,
			)
			if r.Stats != nil {
				line += fmt.Sprintf("  %d opportunities, $%.3f", r.Stats.FinalCount, r.Stats.CostEstimate)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
