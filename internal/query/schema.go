package query

import (
	"cmp"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownField is returned when a filter or sort key is not part of an entity's schema.
var ErrUnknownField = errors.New("unknown field")

// Field describes one filterable and/or sortable attribute of T.
type Field[T any] struct {
	// Column is the storage column backing the field.
	Column string
	// Value reads the typed attribute used for equality filters.
	Value func(T) any
	// Compare orders two entities by the attribute.
	Compare func(a, b T) int
	// Parse converts a raw query-string value; nil means the field cannot be filtered on.
	Parse func(string) (any, error)
}

// Filterable reports whether the field accepts equality filters.
func (f Field[T]) Filterable() bool { return f.Parse != nil && f.Value != nil }

// Sortable reports whether the field can order results.
func (f Field[T]) Sortable() bool { return f.Compare != nil }

// String builds a filterable, sortable text field.
func String[T any](column string, get func(T) string) Field[T] {
	return Field[T]{
		Column:  column,
		Value:   func(e T) any { return get(e) },
		Compare: func(a, b T) int { return cmp.Compare(get(a), get(b)) },
		Parse:   func(s string) (any, error) { return s, nil },
	}
}

// Int builds a filterable, sortable integer field.
func Int[T any](column string, get func(T) int64) Field[T] {
	return Field[T]{
		Column:  column,
		Value:   func(e T) any { return get(e) },
		Compare: func(a, b T) int { return cmp.Compare(get(a), get(b)) },
		Parse: func(s string) (any, error) {
			v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("must be an integer")
			}
			return v, nil
		},
	}
}

// Float builds a filterable, sortable decimal field.
func Float[T any](column string, get func(T) float64) Field[T] {
	return Field[T]{
		Column:  column,
		Value:   func(e T) any { return get(e) },
		Compare: func(a, b T) int { return cmp.Compare(get(a), get(b)) },
		Parse: func(s string) (any, error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("must be a number")
			}
			return v, nil
		},
	}
}

// Time builds a sort-only timestamp field.
func Time[T any](column string, get func(T) time.Time) Field[T] {
	return Field[T]{
		Column:  column,
		Compare: func(a, b T) int { return get(a).Compare(get(b)) },
	}
}

// SortOnly strips the filter capability from a field.
func SortOnly[T any](f Field[T]) Field[T] {
	f.Parse = nil
	return f
}

// FilterOnly strips the sort capability from a field.
func FilterOnly[T any](f Field[T]) Field[T] {
	f.Compare = nil
	return f
}

// Schema is the allow-list of fields a list request may reference for T.
type Schema[T any] struct {
	fields map[string]Field[T]
}

// NewSchema builds a schema from name → field pairs.
func NewSchema[T any](fields map[string]Field[T]) Schema[T] {
	cp := make(map[string]Field[T], len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Schema[T]{fields: cp}
}

// Field looks up a field by its public name.
func (s Schema[T]) Field(name string) (Field[T], bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Filterable lists the names accepted as filters, sorted for stable error messages and docs.
func (s Schema[T]) Filterable() []string {
	var out []string
	for name, f := range s.fields {
		if f.Filterable() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// FieldError reports a single rejected filter or sort parameter.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

// ParseFilters converts raw query-string filters into typed values. Keys outside the schema
// are ignored here; callers pass only keys that are not reserved list parameters.
func (s Schema[T]) ParseFilters(raw map[string]string) (map[string]any, []FieldError) {
	out := make(map[string]any, len(raw))
	var errs []FieldError
	for name, value := range raw {
		f, ok := s.fields[name]
		if !ok || !f.Filterable() {
			errs = append(errs, FieldError{Field: name, Err: ErrUnknownField})
			continue
		}
		if value == "" {
			continue
		}
		v, err := f.Parse(value)
		if err != nil {
			errs = append(errs, FieldError{Field: name, Err: err})
			continue
		}
		out[name] = v
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return out, errs
}

// Validate checks that every filter and the sort key are known to the schema.
func (s Schema[T]) Validate(q Query) []FieldError {
	var errs []FieldError
	for name := range q.Filters {
		if f, ok := s.fields[name]; !ok || !f.Filterable() {
			errs = append(errs, FieldError{Field: name, Err: ErrUnknownField})
		}
	}
	if q.SortBy != "" {
		if f, ok := s.fields[q.SortBy]; !ok || !f.Sortable() {
			errs = append(errs, FieldError{Field: "sortBy", Err: fmt.Errorf("%w %q", ErrUnknownField, q.SortBy)})
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}
