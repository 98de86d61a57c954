package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/matchminer/internal/analysis/describe"
	"github.com/Alias1177/matchminer/internal/analysis/ranking"
	"github.com/Alias1177/matchminer/internal/analysis/segment"
	"github.com/Alias1177/matchminer/internal/analysis/threshold"
	"github.com/Alias1177/matchminer/internal/catalog"
	"github.com/Alias1177/matchminer/internal/model"
	"github.com/Alias1177/matchminer/internal/record"
)

// DefaultTopN is the size of the merged findings list.
const DefaultTopN = 50

// Options configures an Engine.
type Options struct {
	Workers int
	TopN    int
	// MinSample and MinPrecision, when set, replace every analysis policy value.
	MinSample    *int
	MinPrecision *float64
	// Source names the input in the report.
	Source string
}

// Engine runs discovery analyses over a record store
type Engine struct {
	opts      Options
	evaluator *segment.Evaluator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEngine creates a new discovery engine
func NewEngine(opts Options) *Engine {
	if opts.TopN == 0 {
		opts.TopN = DefaultTopN
	}
	return &Engine{
		opts:      opts,
		evaluator: segment.NewEvaluator(opts.Workers),
		logger:    log.With().Str("component", "engine").Logger(),
		now:       time.Now,
	}
}

// policyFor applies the configured overrides to the analysis policy.
func (e *Engine) policyFor(a catalog.Analysis) (ranking.Policy, error) {
	p := a.Policy
	if e.opts.MinSample != nil {
		p.MinSample = *e.opts.MinSample
	}
	if e.opts.MinPrecision != nil {
		p.MinPrecision = *e.opts.MinPrecision
	}
	return ranking.NewPolicy(p.MinSample, p.MinPrecision)
}

// Run evaluates every analysis against store and assembles the report.
func (e *Engine) Run(ctx context.Context, store *record.Store, analyses []catalog.Analysis) (*model.Report, error) {
	if store.Len() == 0 {
		return nil, fmt.Errorf("no records to analyze")
	}
	start := time.Now()

	report := &model.Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  e.now().UTC(),
		Source:       e.opts.Source,
		TotalRecords: store.Len(),
	}

	var all [][]model.Finding
	for _, a := range analyses {
		res, err := e.runAnalysis(ctx, store, a)
		if err != nil {
			return nil, fmt.Errorf("analysis %s: %w", a.Name, err)
		}
		report.Analyses = append(report.Analyses, res)
		all = append(all, res.Findings)
	}

	merged := ranking.Merge(0, all...)
	report.Summary = ranking.Summarize(merged)
	report.Top = merged
	if e.opts.TopN > 0 && len(merged) > e.opts.TopN {
		report.Top = merged[:e.opts.TopN]
	}

	thresholds, err := ScanAll(store, catalog.ScanFields())
	if err != nil {
		return nil, err
	}
	report.Thresholds = thresholds
	report.Fields = describe.SummarizeAll(store, catalog.SummaryFields())
	report.Sides = describe.CompareSides(store, catalog.SidePairs())

	e.logger.Info().
		Str("run_id", report.RunID).
		Int("records", report.TotalRecords).
		Int("analyses", len(report.Analyses)).
		Int("findings", report.Summary.Total).
		Dur("elapsed", time.Since(start)).
		Msg("Discovery run completed")
	return report, nil
}

func (e *Engine) runAnalysis(ctx context.Context, store *record.Store, a catalog.Analysis) (model.AnalysisResult, error) {
	policy, err := e.policyFor(a)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	ranker, err := ranking.NewRanker(policy)
	if err != nil {
		return model.AnalysisResult{}, err
	}

	tallies, err := e.evaluator.EvaluateAll(ctx, store, a.Entries)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("failed to evaluate segments: %w", err)
	}

	excluded := 0
	for _, t := range tallies {
		excluded += t.Excluded
	}
	findings := ranker.Rank(tallies)

	e.logger.Debug().
		Str("analysis", a.Name).
		Int("entries", len(a.Entries)).
		Int("excluded", excluded).
		Int("findings", len(findings)).
		Msg("Analysis ranked")

	return model.AnalysisResult{
		Name:         a.Name,
		MinSample:    policy.MinSample,
		MinPrecision: policy.MinPrecision,
		Evaluated:    len(tallies),
		Findings:     findings,
		Summary:      ranking.Summarize(findings),
	}, nil
}

// ScanAll scans every field for its best over and under threshold.
func ScanAll(store *record.Store, fields []catalog.ScanField) ([]threshold.Result, error) {
	out := make([]threshold.Result, 0, len(fields))
	for _, sf := range fields {
		res, err := threshold.Scan(store, sf.Field, sf.Range)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", sf.Field.Name, err)
		}
		out = append(out, res)
	}
	return out, nil
}
