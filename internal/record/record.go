package record

import "sort"

// Record is one historical match. Fields are read-only after construction.
type Record struct {
	num map[string]float64
	str map[string]string
}

// New builds a Record from numeric and categorical fields. Both maps are
// copied so later changes by the caller do not leak into the Record.
func New(num map[string]float64, str map[string]string) Record {
	r := Record{
		num: make(map[string]float64, len(num)),
		str: make(map[string]string, len(str)),
	}
	for k, v := range num {
		r.num[k] = v
	}
	for k, v := range str {
		r.str[k] = v
	}
	return r
}

// Num returns a numeric field. The bool is false when the field is absent.
func (r Record) Num(name string) (float64, bool) {
	v, ok := r.num[name]
	return v, ok
}

// Str returns a categorical field. The bool is false when the field is absent.
func (r Record) Str(name string) (string, bool) {
	v, ok := r.str[name]
	return v, ok
}

// Fields lists every field name present on the record, sorted.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r.num)+len(r.str))
	for k := range r.num {
		names = append(names, k)
	}
	for k := range r.str {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Store is an ordered, immutable sequence of records.
type Store struct {
	records []Record
}

// NewStore copies recs into a new Store.
func NewStore(recs []Record) *Store {
	out := make([]Record, len(recs))
	copy(out, recs)
	return &Store{records: out}
}

// Len returns the number of records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// At returns the i-th record.
func (s *Store) At(i int) Record {
	return s.records[i]
}

// Each calls fn for every record in order.
func (s *Store) Each(fn func(i int, r Record)) {
	if s == nil {
		return
	}
	for i, r := range s.records {
		fn(i, r)
	}
}

// Complete returns the subset of records on which every named numeric field
// is present. NaN and infinite cells count as absent, as in Field.Value.
func (s *Store) Complete(fields ...string) *Store {
	cols := make([]Field, len(fields))
	for i, f := range fields {
		cols[i] = Column(f)
	}
	kept := make([]Record, 0, s.Len())
	s.Each(func(_ int, r Record) {
		for _, c := range cols {
			if _, ok := c.Value(r); !ok {
				return
			}
		}
		kept = append(kept, r)
	})
	return &Store{records: kept}
}

// Values collects field over the store, skipping records where it is absent.
func (s *Store) Values(field Field) []float64 {
	vals := make([]float64, 0, s.Len())
	s.Each(func(_ int, r Record) {
		if v, ok := field.Value(r); ok {
			vals = append(vals, v)
		}
	})
	return vals
}
