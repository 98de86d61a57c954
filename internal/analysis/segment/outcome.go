package segment

import (
	"fmt"

	"github.com/Alias1177/matchminer/internal/record"
)

// OutcomeRule classifies a record into exactly one of Labels.
// Classify returns ok=false when the record cannot be classified (missing
// field, value on the threshold, unknown category); it is then excluded.
type OutcomeRule struct {
	Name     string
	Labels   []string
	Report   []string // labels allowed to become findings; empty means all
	Classify func(r record.Record) (label string, ok bool)
}

// Reportable lists the labels that may be reported, in label order.
func (o OutcomeRule) Reportable() []string {
	if len(o.Report) == 0 {
		return o.Labels
	}
	allowed := make(map[string]bool, len(o.Report))
	for _, l := range o.Report {
		allowed[l] = true
	}
	out := make([]string, 0, len(o.Report))
	for _, l := range o.Labels {
		if allowed[l] {
			out = append(out, l)
		}
	}
	return out
}

// Only restricts the reportable labels.
func (o OutcomeRule) Only(labels ...string) OutcomeRule {
	o.Report = labels
	return o
}

// OverLabel and UnderLabel name the two sides of an over/under rule.
func OverLabel(threshold float64) string {
	return "OVER " + formatNum(threshold)
}

func UnderLabel(threshold float64) string {
	return "UNDER " + formatNum(threshold)
}

// OverUnder splits records strictly above and strictly below threshold.
// A value exactly on the threshold counts toward neither side.
func OverUnder(f record.Field, threshold float64) OutcomeRule {
	over, under := OverLabel(threshold), UnderLabel(threshold)
	return OutcomeRule{
		Name:   fmt.Sprintf("%s vs %s", f.Name, formatNum(threshold)),
		Labels: []string{over, under},
		Classify: func(r record.Record) (string, bool) {
			v, ok := f.Value(r)
			if !ok {
				return "", false
			}
			switch {
			case v > threshold:
				return over, true
			case v < threshold:
				return under, true
			}
			return "", false
		},
	}
}

// Event labels a boolean event defined by a predicate.
func Event(name string, p Predicate, yes, no string) OutcomeRule {
	return OutcomeRule{
		Name:   name,
		Labels: []string{yes, no},
		Classify: func(r record.Record) (string, bool) {
			m, ok := p.Match(r)
			if !ok {
				return "", false
			}
			if m {
				return yes, true
			}
			return no, true
		},
	}
}

// Category labels records by a categorical column. names maps raw values to
// display labels in declaration order, e.g. {"H", "Home Win"}.
func Category(name, column string, names ...[2]string) OutcomeRule {
	labels := make([]string, len(names))
	lookup := make(map[string]string, len(names))
	for i, n := range names {
		labels[i] = n[1]
		lookup[n[0]] = n[1]
	}
	return OutcomeRule{
		Name:   name,
		Labels: labels,
		Classify: func(r record.Record) (string, bool) {
			v, ok := r.Str(column)
			if !ok {
				return "", false
			}
			l, ok := lookup[v]
			return l, ok
		},
	}
}
