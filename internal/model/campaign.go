package model

import "time"

// CampaignSize selects a preset bundle of budget and query limits.
type CampaignSize string

const (
	CampaignSmall  CampaignSize = "small"
	CampaignMedium CampaignSize = "medium"
	CampaignLarge  CampaignSize = "large"
)

// Valid reports whether s is a known campaign size.
func (s CampaignSize) Valid() bool {
	return s == CampaignSmall || s == CampaignMedium || s == CampaignLarge
}

// RunStatus represents the current state of a discovery run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusSearching  RunStatus = "searching"
	RunStatusAnalyzing  RunStatus = "analyzing"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Campaign describes one discovery request: the seed keywords plus sizing.
type Campaign struct {
	ID       string       `json:"id"`
	Keywords []string     `json:"keywords"`
	Industry string       `json:"industry,omitempty"`
	Size     CampaignSize `json:"size"`
}

// RunStats summarizes a completed discovery run for the persistence layer.
type RunStats struct {
	ExecutionTime    time.Duration `json:"execution_time"`
	TotalQueries     int           `json:"total_queries"`
	RawResults       int           `json:"raw_results"`
	ProcessedResults int           `json:"processed_results"`
	FinalCount       int           `json:"final_count"`
	CostEstimate     float64       `json:"cost_estimate"`
	CacheHits        int           `json:"cache_hits"`
}

// Run represents a single discovery run for a campaign.
type Run struct {
	ID        string    `json:"id"`
	Campaign  Campaign  `json:"campaign"`
	Status    RunStatus `json:"status"`
	Stats     *RunStats `json:"stats,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
