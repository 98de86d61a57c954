package model

import (
	"time"

	"github.com/Alias1177/matchminer/internal/analysis/describe"
	"github.com/Alias1177/matchminer/internal/analysis/threshold"
)

// Summary counts findings per precision tier.
type Summary struct {
	Total      int `json:"total_findings"`
	Excellent  int `json:"excellent"`
	Good       int `json:"good"`
	Acceptable int `json:"acceptable"`
}

// AnalysisResult holds the ranked findings of one named analysis.
type AnalysisResult struct {
	Name         string    `json:"name"`
	MinSample    int       `json:"min_sample"`
	MinPrecision float64   `json:"min_precision"`
	Evaluated    int       `json:"segments_evaluated"`
	Findings     []Finding `json:"findings"`
	Summary      Summary   `json:"summary"`
}

// Report stores a full discovery run
type Report struct {
	RunID        string                    `json:"run_id"`
	GeneratedAt  time.Time                 `json:"generated_at"`
	Source       string                    `json:"source,omitempty"`
	TotalRecords int                       `json:"total_records"`
	Analyses     []AnalysisResult          `json:"analyses"`
	Top          []Finding                 `json:"top_findings"` // all analyses merged, re-ranked, truncated
	Summary      Summary                   `json:"summary"`
	Thresholds   []threshold.Result        `json:"best_thresholds,omitempty"`
	Fields       []describe.FieldSummary   `json:"field_statistics,omitempty"`
	Sides        []describe.SideComparison `json:"home_away,omitempty"`
}
