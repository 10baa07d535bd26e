package store

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/budget"
	"github.com/sells-group/outreach-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Keyword string          `json:"keyword,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// OpportunityFilter specifies criteria for listing saved candidates.
type OpportunityFilter struct {
	RunID             string           `json:"run_id,omitempty"`
	OnlyOpportunities bool             `json:"only_opportunities,omitempty"`
	Confidence        model.Confidence `json:"confidence,omitempty"`
	MinRelevance      float64          `json:"min_relevance,omitempty"`
	Limit             int              `json:"limit,omitempty"`
	Offset            int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the discovery pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, campaign model.Campaign) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, stats *model.RunStats) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Opportunities
	SaveOpportunities(ctx context.Context, runID string, candidates []model.OpportunityCandidate) error
	ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.OpportunityCandidate, error)

	// Budget ledger. LoadLedger returns nil when no snapshot has been saved.
	SaveLedger(ctx context.Context, l budget.Ledger) error
	LoadLedger(ctx context.Context) (*budget.Ledger, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
