package model

import "math"

// Precision tiers used in summaries.
const (
	TierExcellent  = "EXCELLENT"
	TierGood       = "GOOD"
	TierAcceptable = "ACCEPTABLE"
	TierBelow      = "BELOW"
)

// Finding is one reported segment/outcome pair. It is a snapshot and never
// changes after it is produced.
type Finding struct {
	Group      string   `json:"group,omitempty" db:"group_name"`
	Segment    string   `json:"segment" db:"segment"`
	Outcome    string   `json:"outcome" db:"outcome"`
	Label      string   `json:"label" db:"label"`
	Precision  float64  `json:"precision" db:"precision_pct"` // percent, two decimals
	SampleSize int      `json:"sample_size" db:"sample_size"`
	Count      int      `json:"count" db:"hit_count"` // records carrying Label
	Mean       *float64 `json:"mean,omitempty" db:"mean_value"`
	Tier       string   `json:"tier" db:"tier"`
}

// TierFor buckets a precision percentage: >=80 excellent, >=70 good,
// >=65 acceptable.
func TierFor(precision float64) string {
	switch {
	case precision >= 80:
		return TierExcellent
	case precision >= 70:
		return TierGood
	case precision >= 65:
		return TierAcceptable
	}
	return TierBelow
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
