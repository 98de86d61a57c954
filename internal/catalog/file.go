package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Alias1177/matchminer/internal/analysis/ranking"
	"github.com/Alias1177/matchminer/internal/analysis/segment"
	"github.com/Alias1177/matchminer/internal/record"
)

// File is the YAML layout of a custom analysis.
//
//	name: tense_matches
//	policy: {min_sample: 40, min_precision: 70}
//	aux: TotalYellow
//	segments:
//	  - name: Tense match
//	    when:
//	      - {field: TotalFouls, op: gt, value: 30}
//	outcomes:
//	  - {field: TotalYellow, thresholds: [3.5, 4.5], side: over}
//	  - {category: FTResult, values: [H, D, A]}
type File struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Policy      ranking.Policy `yaml:"policy"`
	Aux         string         `yaml:"aux"`
	Segments    []FileSegment  `yaml:"segments"`
	Outcomes    []FileOutcome  `yaml:"outcomes"`
}

// FileSegment is a named conjunction of conditions. A segment with no
// conditions matches every record.
type FileSegment struct {
	Name string          `yaml:"name"`
	When []FileCondition `yaml:"when"`
}

// FileCondition compares a numeric field, or a categorical column when Is is
// set.
type FileCondition struct {
	Field string  `yaml:"field"`
	Op    string  `yaml:"op"`
	Value float64 `yaml:"value"`
	Is    string  `yaml:"is"`
}

// FileOutcome is either an over/under rule on a numeric field or a category
// rule on a column.
type FileOutcome struct {
	Field      string    `yaml:"field"`
	Thresholds []float64 `yaml:"thresholds"`
	Side       string    `yaml:"side"` // over, under or empty for both
	Category   string    `yaml:"category"`
	Values     []string  `yaml:"values"`
}

// LoadFile reads and compiles a custom analysis.
func LoadFile(path string) (Analysis, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("read catalog: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Analysis{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	a, err := f.Compile()
	if err != nil {
		return Analysis{}, fmt.Errorf("compile catalog %s: %w", path, err)
	}
	return a, nil
}

// Compile resolves field names and builds the analysis entries.
func (f File) Compile() (Analysis, error) {
	if f.Name == "" {
		return Analysis{}, fmt.Errorf("catalog has no name")
	}
	policy, err := ranking.NewPolicy(f.Policy.MinSample, f.Policy.MinPrecision)
	if err != nil {
		return Analysis{}, err
	}

	var aux record.Field
	if f.Aux != "" {
		if aux, err = Field(f.Aux); err != nil {
			return Analysis{}, err
		}
	}

	preds := make([]segment.Predicate, 0, len(f.Segments))
	for _, s := range f.Segments {
		p, err := s.compile()
		if err != nil {
			return Analysis{}, fmt.Errorf("segment %q: %w", s.Name, err)
		}
		preds = append(preds, p)
	}

	var rules []segment.OutcomeRule
	for i, o := range f.Outcomes {
		rs, err := o.compile()
		if err != nil {
			return Analysis{}, fmt.Errorf("outcome %d: %w", i, err)
		}
		rules = append(rules, rs...)
	}
	if len(preds) == 0 || len(rules) == 0 {
		return Analysis{}, fmt.Errorf("catalog %q needs at least one segment and one outcome", f.Name)
	}

	return Analysis{
		Name:        f.Name,
		Description: f.Description,
		Entries:     segment.Cross(f.Name, preds, rules, aux),
		Policy:      policy,
	}, nil
}

func (s FileSegment) compile() (segment.Predicate, error) {
	if len(s.When) == 0 {
		return segment.All().Named(nameOr(s.Name, "all matches")), nil
	}
	parts := make([]segment.Predicate, 0, len(s.When))
	for _, c := range s.When {
		if c.Is != "" {
			parts = append(parts, segment.Is(c.Field, c.Is))
			continue
		}
		field, err := Field(c.Field)
		if err != nil {
			return segment.Predicate{}, err
		}
		op, err := segment.ParseOp(c.Op)
		if err != nil {
			return segment.Predicate{}, err
		}
		parts = append(parts, segment.Where(field, op, c.Value))
	}
	p := parts[0]
	if len(parts) > 1 {
		p = segment.And(parts...)
	}
	if s.Name != "" {
		p = p.Named(s.Name)
	}
	return p, nil
}

func (o FileOutcome) compile() ([]segment.OutcomeRule, error) {
	if o.Category != "" {
		if len(o.Values) == 0 {
			return nil, fmt.Errorf("category %q has no values", o.Category)
		}
		names := make([][2]string, len(o.Values))
		for i, v := range o.Values {
			names[i] = [2]string{v, v}
		}
		return []segment.OutcomeRule{segment.Category(o.Category, o.Category, names...)}, nil
	}

	field, err := Field(o.Field)
	if err != nil {
		return nil, err
	}
	if len(o.Thresholds) == 0 {
		return nil, fmt.Errorf("field %q has no thresholds", o.Field)
	}
	rules := make([]segment.OutcomeRule, 0, len(o.Thresholds))
	for _, th := range o.Thresholds {
		r := segment.OverUnder(field, th)
		switch strings.ToLower(o.Side) {
		case "":
		case "over":
			r = r.Only(segment.OverLabel(th))
		case "under":
			r = r.Only(segment.UnderLabel(th))
		default:
			return nil, fmt.Errorf("unknown side %q", o.Side)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
