package export

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/process"
	"github.com/sells-group/outreach-cli/internal/resilience"
	sfpkg "github.com/sells-group/outreach-cli/pkg/salesforce"
)

const leadSource = "Guest Post Outreach"

// LeadExporter pushes qualified opportunities into Salesforce as Leads.
type LeadExporter struct {
	client sfpkg.Client
	retry  resilience.RetryConfig
}

// NewLeadExporter creates a LeadExporter.
func NewLeadExporter(client sfpkg.Client) *LeadExporter {
	return &LeadExporter{
		client: client,
		retry:  resilience.DefaultRetryConfig(),
	}
}

// Export inserts one Lead per candidate that passed the opportunity gate and
// has a contact email. Salesforce requires LastName and Company on Lead;
// we default LastName to "Editor" since the contact name is unknown at this
// stage.
func (e *LeadExporter) Export(ctx context.Context, candidates []model.OpportunityCandidate) (int, error) {
	var records []map[string]any
	for _, c := range candidates {
		if !c.IsOpportunity || c.ContactEmail == "" {
			continue
		}
		records = append(records, map[string]any{
			"LastName":    "Editor",
			"Company":     process.Domain(c.URL),
			"Website":     c.URL,
			"Email":       c.ContactEmail,
			"LeadSource":  leadSource,
			"Description": fmt.Sprintf("Guest post opportunity (%s confidence): %s", c.Confidence, c.Title),
		})
	}
	if len(records) == 0 {
		return 0, nil
	}

	var results []sfpkg.CollectionResult
	err := resilience.Retry(ctx, e.retry, "sf insert leads", func(ctx context.Context) error {
		var ierr error
		results, ierr = e.client.InsertCollection(ctx, "Lead", records)
		return ierr
	})
	if err != nil {
		return 0, eris.Wrap(err, "export: insert leads")
	}

	inserted := 0
	for _, r := range results {
		if r.Success {
			inserted++
			continue
		}
		zap.L().Warn("export: lead insert failed", zap.Strings("errors", r.Errors))
	}

	zap.L().Info("export: salesforce sync complete",
		zap.Int("attempted", len(records)),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}
