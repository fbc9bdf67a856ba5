package domain

// Filter is a structured where-clause over record metadata. A leaf filter is
// an equality predicate on Field; a non-leaf filter is the conjunction of And.
// A nil *Filter matches every record.
type Filter struct {
	Field string
	Value any
	And   []*Filter
}

// Eq returns an equality predicate.
func Eq(field string, value any) *Filter {
	return &Filter{Field: field, Value: value}
}

// AllOf combines filters with logical AND. Nil entries are dropped; a single
// remaining filter is returned as is.
func AllOf(filters ...*Filter) *Filter {
	kept := make([]*Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			kept = append(kept, f)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &Filter{And: kept}
}

// Predicates flattens the filter into its equality predicates.
func (f *Filter) Predicates() []*Filter {
	if f == nil {
		return nil
	}
	if len(f.And) == 0 {
		return []*Filter{f}
	}
	var out []*Filter
	for _, sub := range f.And {
		out = append(out, sub.Predicates()...)
	}
	return out
}

// Map renders the filter in the document-store where syntax, e.g.
// {"course_title": "X"} or {"$and": [{...}, {...}]}.
func (f *Filter) Map() map[string]any {
	if f == nil {
		return nil
	}
	if len(f.And) == 0 {
		return map[string]any{f.Field: f.Value}
	}
	clauses := make([]map[string]any, 0, len(f.And))
	for _, sub := range f.And {
		clauses = append(clauses, sub.Map())
	}
	return map[string]any{"$and": clauses}
}

// Matches reports whether metadata satisfies the filter.
func (f *Filter) Matches(m Metadata) bool {
	for _, p := range f.Predicates() {
		if !valueEquals(m[p.Field], p.Value) {
			return false
		}
	}
	return true
}

func valueEquals(got, want any) bool {
	if wi, ok := toInt(want); ok {
		gi, ok := toInt(got)
		return ok && gi == wi
	}
	switch w := want.(type) {
	case string:
		g, ok := got.(string)
		return ok && g == w
	case bool:
		g, ok := got.(bool)
		return ok && g == w
	}
	return got == want
}
