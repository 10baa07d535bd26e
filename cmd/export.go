package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/notion"
)

var (
	exportRunID  string
	exportXLSX   string
	exportNotionFlag bool
	exportSFFlag bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved opportunities from a previous run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		opps, err := st.ListOpportunities(ctx, store.OpportunityFilter{
			RunID:             exportRunID,
			OnlyOpportunities: true,
		})
		if err != nil {
			return err
		}
		if len(opps) == 0 {
			fmt.Println("No opportunities to export.")
			return nil
		}

		if exportXLSX != "" {
			if err := export.WriteXLSX(exportXLSX, opps); err != nil {
				return err
			}
			fmt.Printf("Report written to %s (%d rows)\n", exportXLSX, len(opps))
		}
		if exportNotionFlag {
			if err := exportNotion(ctx, opps); err != nil {
				return err
			}
		}
		if exportSFFlag {
			if err := exportSalesforce(ctx, opps); err != nil {
				return err
			}
		}
		return nil
	},
}

func exportNotion(ctx context.Context, opps []model.OpportunityCandidate) error {
	client := notion.NewClient(cfg.Notion.Token)
	exp := export.NewNotionExporter(client, cfg.Notion.OpportunityDB)
	created, err := exp.Export(ctx, opps)
	if err != nil {
		return err
	}
	fmt.Printf("Notion: %d pages created (%d total synced)\n", created, len(opps))
	return nil
}

func exportSalesforce(ctx context.Context, opps []model.OpportunityCandidate) error {
	sfClient, err := initSalesforce()
	if err != nil {
		return err
	}
	exp := export.NewLeadExporter(sfClient)
	inserted, err := exp.Export(ctx, opps)
	if err != nil {
		return err
	}
	fmt.Printf("Salesforce: %d leads inserted\n", inserted)
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "restrict export to one run ID")
	exportCmd.Flags().StringVarP(&exportXLSX, "output", "o", "", "write an XLSX report to this path")
	exportCmd.Flags().BoolVar(&exportNotionFlag, "notion", false, "sync to the Notion database")
	exportCmd.Flags().BoolVar(&exportSFFlag, "salesforce", false, "create Salesforce Leads")
	rootCmd.AddCommand(exportCmd)
}
