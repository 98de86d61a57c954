package segment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alias1177/matchminer/internal/record"
)

// Op is a comparison operator used by Where.
type Op string

const (
	GT Op = ">"
	GE Op = ">="
	LT Op = "<"
	LE Op = "<="
	EQ Op = "=="
)

// ParseOp converts a textual operator ("gt", ">", ...) into an Op.
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ">", "gt":
		return GT, nil
	case ">=", "ge", "gte":
		return GE, nil
	case "<", "lt":
		return LT, nil
	case "<=", "le", "lte":
		return LE, nil
	case "==", "=", "eq":
		return EQ, nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

func (o Op) apply(x, y float64) bool {
	switch o {
	case GT:
		return x > y
	case GE:
		return x >= y
	case LT:
		return x < y
	case LE:
		return x <= y
	case EQ:
		return x == y
	}
	return false
}

// Predicate selects the records of a segment.
// Match returns ok=false when the record lacks a field the predicate needs;
// such a record is excluded from the evaluation instead of counted as a miss.
type Predicate struct {
	Name  string
	Match func(r record.Record) (matched bool, ok bool)
}

// Named returns a copy of p with a new description.
func (p Predicate) Named(name string) Predicate {
	p.Name = name
	return p
}

// All matches every record.
func All() Predicate {
	return Predicate{Name: "all matches", Match: func(record.Record) (bool, bool) { return true, true }}
}

// Where compares a field to a constant.
func Where(f record.Field, op Op, value float64) Predicate {
	return Predicate{
		Name: fmt.Sprintf("%s %s %s", f.Name, op, formatNum(value)),
		Match: func(r record.Record) (bool, bool) {
			v, ok := f.Value(r)
			if !ok {
				return false, false
			}
			return op.apply(v, value), true
		},
	}
}

// Between is lo <= f <= hi.
func Between(f record.Field, lo, hi float64) Predicate {
	return Predicate{
		Name: fmt.Sprintf("%s <= %s <= %s", formatNum(lo), f.Name, formatNum(hi)),
		Match: func(r record.Record) (bool, bool) {
			v, ok := f.Value(r)
			if !ok {
				return false, false
			}
			return v >= lo && v <= hi, true
		},
	}
}

// Is matches records whose categorical column equals value.
func Is(column, value string) Predicate {
	return Predicate{
		Name: fmt.Sprintf("%s = %s", column, value),
		Match: func(r record.Record) (bool, bool) {
			v, ok := r.Str(column)
			if !ok {
				return false, false
			}
			return v == value, true
		},
	}
}

// And matches when every part matches. A missing field in any part excludes
// the record.
func And(parts ...Predicate) Predicate {
	return Predicate{
		Name: joinNames(parts, " AND "),
		Match: func(r record.Record) (bool, bool) {
			matched := true
			for _, p := range parts {
				m, ok := p.Match(r)
				if !ok {
					return false, false
				}
				matched = matched && m
			}
			return matched, true
		},
	}
}

// Or matches when any part matches. A record is excluded only when no part
// matched and at least one part could not be evaluated.
func Or(parts ...Predicate) Predicate {
	return Predicate{
		Name: joinNames(parts, " OR "),
		Match: func(r record.Record) (bool, bool) {
			missing := false
			for _, p := range parts {
				m, ok := p.Match(r)
				if !ok {
					missing = true
					continue
				}
				if m {
					return true, true
				}
			}
			if missing {
				return false, false
			}
			return false, true
		},
	}
}

// Not negates p. Exclusions are preserved.
func Not(p Predicate) Predicate {
	return Predicate{
		Name: "NOT (" + p.Name + ")",
		Match: func(r record.Record) (bool, bool) {
			m, ok := p.Match(r)
			if !ok {
				return false, false
			}
			return !m, true
		},
	}
}

func joinNames(parts []Predicate, sep string) string {
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = p.Name
	}
	return strings.Join(names, sep)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
