package segment

import (
	"context"
	"runtime"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/matchminer/internal/record"
)

// Entry is one (segment, outcome) pair of a catalog.
type Entry struct {
	Group   string
	Segment Predicate
	Outcome OutcomeRule
	// Aux, when set, is averaged over the tallied records.
	Aux record.Field
}

// Cross pairs every predicate with every outcome rule, predicates outermost.
func Cross(group string, preds []Predicate, rules []OutcomeRule, aux record.Field) []Entry {
	entries := make([]Entry, 0, len(preds)*len(rules))
	for _, p := range preds {
		for _, o := range rules {
			entries = append(entries, Entry{Group: group, Segment: p, Outcome: o, Aux: aux})
		}
	}
	return entries
}

// Tally counts outcome labels inside one segment.
type Tally struct {
	Group      string
	Segment    string
	Outcome    string
	Labels     []string
	Reportable []string
	Counts     map[string]int
	Total      int
	// Excluded counts records dropped for missing fields or failed extraction.
	Excluded int
	Mean     float64
	HasMean  bool
}

// Empty reports a segment with no tallied records.
func (t Tally) Empty() bool {
	return t.Total == 0
}

// Precision returns the share of label in percent. The bool is false when the
// tally is empty, so callers never see 0/0.
func (t Tally) Precision(label string) (float64, bool) {
	if t.Total == 0 {
		return 0, false
	}
	return float64(t.Counts[label]) / float64(t.Total) * 100, true
}

// Evaluate tallies e.Outcome over the records of store matched by e.Segment.
func Evaluate(store *record.Store, e Entry) Tally {
	t := Tally{
		Group:      e.Group,
		Segment:    e.Segment.Name,
		Outcome:    e.Outcome.Name,
		Labels:     e.Outcome.Labels,
		Reportable: e.Outcome.Reportable(),
		Counts:     make(map[string]int, len(e.Outcome.Labels)),
	}
	for _, l := range e.Outcome.Labels {
		t.Counts[l] = 0
	}

	var aux []float64
	store.Each(func(_ int, r record.Record) {
		matched, ok := safeMatch(e.Segment, r)
		if !ok {
			t.Excluded++
			return
		}
		if !matched {
			return
		}
		label, ok := safeClassify(e.Outcome, r)
		if !ok {
			t.Excluded++
			return
		}
		if _, known := t.Counts[label]; !known {
			t.Excluded++
			return
		}
		t.Counts[label]++
		t.Total++
		if !e.Aux.IsZero() {
			if v, ok := e.Aux.Value(r); ok {
				aux = append(aux, v)
			}
		}
	})

	if len(aux) > 0 {
		if m, err := stats.Mean(aux); err == nil {
			t.Mean, t.HasMean = m, true
		}
	}
	return t
}

func safeMatch(p Predicate, r record.Record) (matched, ok bool) {
	if p.Match == nil {
		return false, false
	}
	defer func() {
		if recover() != nil {
			matched, ok = false, false
		}
	}()
	return p.Match(r)
}

func safeClassify(o OutcomeRule, r record.Record) (label string, ok bool) {
	if o.Classify == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			label, ok = "", false
		}
	}()
	return o.Classify(r)
}

// Evaluator runs Evaluate over a whole catalog with bounded parallelism.
type Evaluator struct {
	workers int
	logger  zerolog.Logger
}

// NewEvaluator creates an evaluator. workers <= 0 uses GOMAXPROCS.
func NewEvaluator(workers int) *Evaluator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Evaluator{
		workers: workers,
		logger:  log.With().Str("component", "segment_evaluator").Logger(),
	}
}

// EvaluateAll evaluates every entry. Results keep the order of entries
// regardless of scheduling.
func (e *Evaluator) EvaluateAll(ctx context.Context, store *record.Store, entries []Entry) ([]Tally, error) {
	start := time.Now()
	out := make([]Tally, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range entries {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Evaluate(store, entries[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug().
		Int("entries", len(entries)).
		Int("records", store.Len()).
		Int("workers", e.workers).
		Dur("elapsed", time.Since(start)).
		Msg("Catalog evaluated")
	return out, nil
}
