package record

import "math"

// Field is a numeric accessor over a Record, either a raw column or a value
// derived from other fields. A derived field is absent when any input is.
type Field struct {
	Name string
	fn   func(Record) (float64, bool)
}

// Func wraps an arbitrary accessor.
func Func(name string, fn func(Record) (float64, bool)) Field {
	return Field{Name: name, fn: fn}
}

// Column reads a raw numeric column.
func Column(name string) Field {
	return Field{Name: name, fn: func(r Record) (float64, bool) {
		return r.Num(name)
	}}
}

// Sum is a + b.
func Sum(a, b Field) Field {
	return combine(a.Name+"+"+b.Name, a, b, func(x, y float64) float64 { return x + y })
}

// Diff is a - b.
func Diff(a, b Field) Field {
	return combine(a.Name+"-"+b.Name, a, b, func(x, y float64) float64 { return x - y })
}

// AbsDiff is |a - b|.
func AbsDiff(a, b Field) Field {
	return combine("|"+a.Name+"-"+b.Name+"|", a, b, func(x, y float64) float64 { return math.Abs(x - y) })
}

func combine(name string, a, b Field, op func(x, y float64) float64) Field {
	return Field{Name: name, fn: func(r Record) (float64, bool) {
		x, ok := a.Value(r)
		if !ok {
			return 0, false
		}
		y, ok := b.Value(r)
		if !ok {
			return 0, false
		}
		return op(x, y), true
	}}
}

// Named returns a copy of f with a new display name.
func (f Field) Named(name string) Field {
	f.Name = name
	return f
}

// IsZero reports whether f was never initialised.
func (f Field) IsZero() bool {
	return f.fn == nil
}

// Value evaluates the field. NaN and infinities count as absent.
func (f Field) Value(r Record) (float64, bool) {
	if f.fn == nil {
		return 0, false
	}
	v, ok := f.fn(r)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
