package threshold

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/matchminer/internal/record"
)

// ErrInvalidRange is returned for a candidate range that cannot be scanned.
var ErrInvalidRange = errors.New("invalid threshold range")

// MaxCandidates bounds the number of cut points a single Range may yield.
const MaxCandidates = 1_000_000

// Range describes evenly spaced cut points, both ends inclusive.
type Range struct {
	Start float64 `json:"start" yaml:"start"`
	Stop  float64 `json:"stop" yaml:"stop"`
	Step  float64 `json:"step" yaml:"step"`
}

// Validate checks that the range yields at least one candidate.
func (r Range) Validate() error {
	switch {
	case math.IsNaN(r.Start) || math.IsNaN(r.Stop) || math.IsNaN(r.Step):
		return fmt.Errorf("%w: NaN bound", ErrInvalidRange)
	case math.IsInf(r.Start, 0) || math.IsInf(r.Stop, 0) || math.IsInf(r.Step, 0):
		return fmt.Errorf("%w: infinite bound", ErrInvalidRange)
	case r.Step <= 0:
		return fmt.Errorf("%w: step %v must be positive", ErrInvalidRange, r.Step)
	case r.Stop < r.Start:
		return fmt.Errorf("%w: stop %v below start %v", ErrInvalidRange, r.Stop, r.Start)
	}
	// Compared as floats so a huge ratio cannot overflow the int conversion.
	if steps := math.Floor((r.Stop-r.Start)/r.Step + 1e-9); steps+1 > MaxCandidates {
		return fmt.Errorf("%w: %.0f candidates exceed the limit of %d", ErrInvalidRange, steps+1, MaxCandidates)
	}
	return nil
}

// Candidates enumerates the cut points. Each point is computed as
// Start + i*Step so rounding errors do not accumulate.
func (r Range) Candidates() ([]float64, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	n := int(math.Floor((r.Stop-r.Start)/r.Step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = roundTo(r.Start+float64(i)*r.Step, 9)
	}
	return out, nil
}

// Candidate holds the rates measured at one cut point, in percent.
// OverRate + UnderRate + EqualRate = 100 when Samples > 0.
type Candidate struct {
	Threshold float64 `json:"threshold"`
	OverRate  float64 `json:"over_rate"`
	UnderRate float64 `json:"under_rate"`
	EqualRate float64 `json:"equal_rate"`
}

// Pick is the selected cut point for one side.
type Pick struct {
	Threshold float64 `json:"threshold"`
	Rate      float64 `json:"rate"`
	Skew      float64 `json:"skew"`
}

// Result is the outcome of scanning one field.
type Result struct {
	Field      string      `json:"field"`
	Samples    int         `json:"samples"`
	Candidates []Candidate `json:"candidates"`
	BestOver   *Pick       `json:"best_over,omitempty"`
	BestUnder  *Pick       `json:"best_under,omitempty"`
}

// FoundOver reports whether any candidate had an over-rate above 50%.
func (r Result) FoundOver() bool { return r.BestOver != nil }

// FoundUnder reports whether any candidate had an under-rate above 50%.
func (r Result) FoundUnder() bool { return r.BestUnder != nil }

// Scan measures over/under rates of field at every candidate of rng and picks
// the most skewed candidate on each side. Only candidates whose rate exceeds
// 50% are eligible; when none is, the pick stays nil. Ties keep the lowest
// threshold.
func Scan(store *record.Store, field record.Field, rng Range) (Result, error) {
	cuts, err := rng.Candidates()
	if err != nil {
		return Result{}, err
	}

	values := store.Values(field)
	sort.Float64s(values)
	n := len(values)

	res := Result{
		Field:      field.Name,
		Samples:    n,
		Candidates: make([]Candidate, 0, len(cuts)),
	}
	if n == 0 {
		for _, t := range cuts {
			res.Candidates = append(res.Candidates, Candidate{Threshold: t})
		}
		log.Debug().Str("field", field.Name).Msg("No values to scan")
		return res, nil
	}

	bestOverSkew, bestUnderSkew := 0.0, 0.0
	for _, t := range cuts {
		below := sort.SearchFloat64s(values, t)
		notAbove := sort.Search(n, func(i int) bool { return values[i] > t })
		over := n - notAbove
		equal := notAbove - below

		c := Candidate{
			Threshold: t,
			OverRate:  pct(over, n),
			UnderRate: pct(below, n),
			EqualRate: pct(equal, n),
		}
		res.Candidates = append(res.Candidates, c)

		if skew := c.OverRate - 50; c.OverRate > 50 && skew > bestOverSkew {
			bestOverSkew = skew
			res.BestOver = &Pick{Threshold: t, Rate: c.OverRate, Skew: skew}
		}
		if skew := c.UnderRate - 50; c.UnderRate > 50 && skew > bestUnderSkew {
			bestUnderSkew = skew
			res.BestUnder = &Pick{Threshold: t, Rate: c.UnderRate, Skew: skew}
		}
	}
	return res, nil
}

// RateAt returns the over/under candidate for an exact threshold, if scanned.
func (r Result) RateAt(t float64) (Candidate, bool) {
	for _, c := range r.Candidates {
		if math.Abs(c.Threshold-t) < 1e-9 {
			return c, true
		}
	}
	return Candidate{}, false
}

func pct(k, n int) float64 {
	return float64(k) / float64(n) * 100
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
