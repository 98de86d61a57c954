package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/matchminer/internal/analysis/segment"
	"github.com/Alias1177/matchminer/internal/model"
)

// ErrInvalidPolicy is returned by NewPolicy for out-of-range minimums.
var ErrInvalidPolicy = errors.New("invalid ranking policy")

// Policy holds the minimums a segment must clear to be reported.
type Policy struct {
	MinSample    int     `json:"min_sample" yaml:"min_sample"`
	MinPrecision float64 `json:"min_precision" yaml:"min_precision"` // percent
}

// NewPolicy validates and builds a Policy. A negative sample size or a
// precision outside [0, 100] is a programmer error and is rejected rather
// than clamped.
func NewPolicy(minSample int, minPrecision float64) (Policy, error) {
	p := Policy{MinSample: minSample, MinPrecision: minPrecision}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// MustPolicy is NewPolicy for package-level constants; it panics on error.
func MustPolicy(minSample int, minPrecision float64) Policy {
	p, err := NewPolicy(minSample, minPrecision)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MinSample < 0 {
		return fmt.Errorf("%w: min sample %d is negative", ErrInvalidPolicy, p.MinSample)
	}
	if math.IsNaN(p.MinPrecision) || p.MinPrecision < 0 || p.MinPrecision > 100 {
		return fmt.Errorf("%w: min precision %v outside [0, 100]", ErrInvalidPolicy, p.MinPrecision)
	}
	return nil
}

// Ranker turns evaluated tallies into ordered findings.
type Ranker struct {
	policy Policy
	logger zerolog.Logger
}

// NewRanker creates a ranker for a validated policy.
func NewRanker(p Policy) (*Ranker, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{
		policy: p,
		logger: log.With().Str("component", "ranker").Logger(),
	}, nil
}

// Policy returns the ranker's policy.
func (r *Ranker) Policy() Policy {
	return r.policy
}

type candidate struct {
	finding   model.Finding
	precision float64
	tally     int
	label     int
}

// Rank filters tallies by the policy and orders the survivors by precision
// descending, then sample size descending, then catalog order.
// Empty tallies never produce findings.
func (r *Ranker) Rank(tallies []segment.Tally) []model.Finding {
	var cands []candidate
	dropped := 0
	for ti, t := range tallies {
		if t.Empty() || t.Total < r.policy.MinSample {
			dropped++
			continue
		}
		for li, label := range t.Reportable {
			p, ok := t.Precision(label)
			if !ok {
				continue
			}
			// Policy and tier apply to the reported, rounded value.
			rounded := model.Round2(p)
			if rounded < r.policy.MinPrecision {
				continue
			}
			f := model.Finding{
				Group:      t.Group,
				Segment:    t.Segment,
				Outcome:    t.Outcome,
				Label:      label,
				Precision:  rounded,
				SampleSize: t.Total,
				Count:      t.Counts[label],
				Tier:       model.TierFor(rounded),
			}
			if t.HasMean {
				m := model.Round2(t.Mean)
				f.Mean = &m
			}
			cands = append(cands, candidate{finding: f, precision: p, tally: ti, label: li})
		}
	}

	sortCandidates(cands)

	out := make([]model.Finding, len(cands))
	for i, c := range cands {
		out[i] = c.finding
	}
	r.logger.Debug().
		Int("tallies", len(tallies)).
		Int("below_min_sample", dropped).
		Int("findings", len(out)).
		Msg("Tallies ranked")
	return out
}

func sortCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.precision != b.precision {
			return a.precision > b.precision
		}
		if a.finding.SampleSize != b.finding.SampleSize {
			return a.finding.SampleSize > b.finding.SampleSize
		}
		if a.tally != b.tally {
			return a.tally < b.tally
		}
		return a.label < b.label
	})
}

// Merge re-ranks findings coming from several analyses into one ordered
// list, keeping the relative order of equal findings, and truncates it to
// limit entries (limit <= 0 keeps all).
func Merge(limit int, lists ...[]model.Finding) []model.Finding {
	var all []model.Finding
	for _, l := range lists {
		all = append(all, l...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Precision != all[j].Precision {
			return all[i].Precision > all[j].Precision
		}
		return all[i].SampleSize > all[j].SampleSize
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Summarize counts findings per precision tier.
func Summarize(findings []model.Finding) model.Summary {
	s := model.Summary{Total: len(findings)}
	for _, f := range findings {
		switch model.TierFor(f.Precision) {
		case model.TierExcellent:
			s.Excellent++
		case model.TierGood:
			s.Good++
		case model.TierAcceptable:
			s.Acceptable++
		}
	}
	return s
}
