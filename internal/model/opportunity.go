package model

import (
	"github.com/rotisserie/eris"
)

// Confidence grades how certain the analyzer is about an opportunity decision.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// OpportunityCandidate is a scored search result. Immutable once produced by
// the analyzer; the persistence layer consumes it as-is.
type OpportunityCandidate struct {
	SearchResult

	RelevanceScore      float64    `json:"relevance_score"`
	ContentQualityScore float64    `json:"content_quality_score"`
	AuthorityScore      float64    `json:"authority_score"`
	SpamRiskScore       float64    `json:"spam_risk_score"`
	Confidence          Confidence `json:"confidence_level"`
	IsOpportunity       bool       `json:"is_opportunity"`

	// ContactEmail is filled in by the contact extractor for candidates that
	// pass the opportunity gate; empty otherwise.
	ContactEmail string `json:"contact_email,omitempty"`
}

// NewOpportunityCandidate validates score ranges at the boundary rather than
// deep in pipeline logic.
func NewOpportunityCandidate(r SearchResult, relevance, quality, authority, spamRisk float64, conf Confidence, isOpp bool) (OpportunityCandidate, error) {
	for _, s := range []struct {
		name string
		v    float64
	}{
		{"relevance", relevance},
		{"content_quality", quality},
		{"authority", authority},
		{"spam_risk", spamRisk},
	} {
		if s.v < 0 || s.v > 1 {
			return OpportunityCandidate{}, eris.Errorf("model: %s score %.3f outside [0,1]", s.name, s.v)
		}
	}
	switch conf {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		return OpportunityCandidate{}, eris.Errorf("model: unknown confidence %q", conf)
	}
	return OpportunityCandidate{
		SearchResult:        r,
		RelevanceScore:      relevance,
		ContentQualityScore: quality,
		AuthorityScore:      authority,
		SpamRiskScore:       spamRisk,
		Confidence:          conf,
		IsOpportunity:       isOpp,
	}, nil
}
