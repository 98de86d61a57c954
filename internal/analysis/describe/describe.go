package describe

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Alias1177/matchminer/internal/record"
)

// Stability labels derived from the coefficient of variation.
const (
	VeryStable = "VERY_STABLE"
	Stable     = "STABLE"
	Volatile   = "VOLATILE"
)

// FieldSummary holds descriptive statistics of one numeric field.
type FieldSummary struct {
	Field     string  `json:"field"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Q1        float64 `json:"q1"`
	Q3        float64 `json:"q3"`
	CV        float64 `json:"cv"` // percent
	Stability string  `json:"stability"`
}

// Summarize computes a FieldSummary over the records carrying field.
// The bool is false when no record has a value.
func Summarize(store *record.Store, field record.Field) (FieldSummary, bool) {
	data := store.Values(field)
	if len(data) == 0 {
		return FieldSummary{Field: field.Name}, false
	}

	s := FieldSummary{Field: field.Name, Count: len(data)}
	s.Mean, _ = stats.Mean(data)
	s.Median, _ = stats.Median(data)
	s.Std, _ = stats.StandardDeviationSample(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	s.Q1, _ = stats.Percentile(data, 25)
	s.Q3, _ = stats.Percentile(data, 75)
	if math.IsNaN(s.Std) {
		s.Std = 0
	}
	if s.Mean != 0 {
		s.CV = s.Std / math.Abs(s.Mean) * 100
	}
	s.Stability = StabilityFor(s.CV)
	return s, true
}

// SummarizeAll summarizes every field that has at least one value.
func SummarizeAll(store *record.Store, fields []record.Field) []FieldSummary {
	out := make([]FieldSummary, 0, len(fields))
	for _, f := range fields {
		if s, ok := Summarize(store, f); ok {
			out = append(out, s)
		}
	}
	return out
}

// StabilityFor buckets a coefficient of variation: below 20 is very stable,
// below 30 stable.
func StabilityFor(cv float64) string {
	switch {
	case cv < 20:
		return VeryStable
	case cv < 30:
		return Stable
	}
	return Volatile
}

// SideComparison contrasts the home and away side of one market.
type SideComparison struct {
	Market      string  `json:"market"`
	HomeMean    float64 `json:"home_mean"`
	AwayMean    float64 `json:"away_mean"`
	DiffPct     float64 `json:"diff_pct"`
	TStat       float64 `json:"t_stat"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"` // p < 0.05
}

// Pair names the home and away column of a market.
type Pair struct {
	Market string
	Home   record.Field
	Away   record.Field
}

// CompareSides runs a two-sample Student t-test (pooled variance) between the
// home and away values of every pair. Pairs with fewer than two values on a
// side are skipped.
func CompareSides(store *record.Store, pairs []Pair) []SideComparison {
	out := make([]SideComparison, 0, len(pairs))
	for _, p := range pairs {
		home := store.Values(p.Home)
		away := store.Values(p.Away)
		if len(home) < 2 || len(away) < 2 {
			continue
		}
		out = append(out, compare(p.Market, home, away))
	}
	return out
}

func compare(market string, home, away []float64) SideComparison {
	hm, hv := stat.MeanVariance(home, nil)
	am, av := stat.MeanVariance(away, nil)
	n1, n2 := float64(len(home)), float64(len(away))

	c := SideComparison{Market: market, HomeMean: hm, AwayMean: am, PValue: 1}
	if am != 0 {
		c.DiffPct = (hm - am) / math.Abs(am) * 100
	}

	df := n1 + n2 - 2
	pooled := ((n1-1)*hv + (n2-1)*av) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	if se == 0 || math.IsNaN(se) {
		return c
	}
	c.TStat = (hm - am) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	c.PValue = 2 * dist.Survival(math.Abs(c.TStat))
	c.Significant = c.PValue < 0.05
	return c
}

// Count is one category of a Breakdown.
type Count struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"` // percent
}

// Breakdown counts the values of a categorical column, most frequent first.
// Records without the column are ignored.
func Breakdown(store *record.Store, column string) []Count {
	counts := make(map[string]int)
	total := 0
	store.Each(func(_ int, r record.Record) {
		if v, ok := r.Str(column); ok {
			counts[v]++
			total++
		}
	})

	out := make([]Count, 0, len(counts))
	for v, n := range counts {
		out = append(out, Count{Value: v, Count: n, Share: float64(n) / float64(total) * 100})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
