package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/campaign"
	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	discoverKeywords []string
	discoverIndustry string
	discoverSize     string
	discoverBudget   float64
	discoverTarget   int
	discoverMaxTime  time.Duration
	discoverXLSX     string
	discoverNotion   bool
	discoverSF       bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run a discovery campaign for guest post opportunities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close(ctx)

		c := model.Campaign{
			ID:       uuid.New().String(),
			Keywords: discoverKeywords,
			Industry: discoverIndustry,
			Size:     model.CampaignSize(discoverSize),
		}

		result, err := env.Pipeline.Run(ctx, c, campaign.RunOptions{
			BudgetLimit:         discoverBudget,
			TargetOpportunities: discoverTarget,
			MaxTime:             discoverMaxTime,
		})
		if err != nil {
			return err
		}

		opps := result.Opportunities()
		fmt.Printf("Run %s complete: %d candidates, %d opportunities, $%.3f spent (%d queries, %d cache hits)\n",
			result.RunID, len(result.Candidates), len(opps),
			result.Stats.CostEstimate, result.Stats.TotalQueries, result.Stats.CacheHits,
		)
		for _, o := range opps {
			email := o.ContactEmail
			if email == "" {
				email = "-"
			}
			fmt.Printf("  [%s] %.2f  %s  %s\n", o.Confidence, o.RelevanceScore, o.URL, email)
		}

		if discoverXLSX != "" {
			if err := export.WriteXLSX(discoverXLSX, result.Candidates); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", discoverXLSX)
		}

		if discoverNotion {
			if cfg.Notion.Token == "" || cfg.Notion.OpportunityDB == "" {
				zap.L().Warn("notion export requested but not configured, skipping")
			} else if err := exportNotion(ctx, opps); err != nil {
				return err
			}
		}

		if discoverSF {
			if err := exportSalesforce(ctx, opps); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	discoverCmd.Flags().StringSliceVarP(&discoverKeywords, "keywords", "k", nil, "campaign keywords (required)")
	discoverCmd.Flags().StringVar(&discoverIndustry, "industry", "", "industry for industry-specific queries")
	discoverCmd.Flags().StringVar(&discoverSize, "size", string(model.CampaignMedium), "campaign size: small, medium, large")
	discoverCmd.Flags().Float64Var(&discoverBudget, "budget", 0, "per-campaign budget cap in USD (lowers the size preset)")
	discoverCmd.Flags().IntVar(&discoverTarget, "target", 0, "target opportunity count (default 10)")
	discoverCmd.Flags().DurationVar(&discoverMaxTime, "max-time", 0, "search time budget (default 2m)")
	discoverCmd.Flags().StringVarP(&discoverXLSX, "output", "o", "", "write an XLSX report to this path")
	discoverCmd.Flags().BoolVar(&discoverNotion, "notion", false, "sync opportunities to the Notion database")
	discoverCmd.Flags().BoolVar(&discoverSF, "salesforce", false, "create Salesforce Leads for opportunities with contacts")
	_ = discoverCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(discoverCmd)
}
