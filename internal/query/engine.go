package query

import (
	"slices"
	"time"
)

// Entity is the minimum a record needs for id-based lookups and in-place replacement.
type Entity[T any] interface {
	Key() int64
	// Touch returns a copy with the modification timestamp set to at.
	Touch(at time.Time) T
}

// Evaluate filters, counts, optionally sorts and paginates collection.
// The collection is never modified and the returned items never alias it.
func Evaluate[T any](collection []T, q Query, schema Schema[T]) Result[T] {
	q = Normalize(q)
	filters := ActiveFilters(q.Filters)

	filtered := make([]T, 0, len(collection))
	for _, e := range collection {
		if matches(e, filters, schema) {
			filtered = append(filtered, e)
		}
	}
	total := len(filtered)

	if q.SortBy != "" {
		if f, ok := schema.Field(q.SortBy); ok && f.Sortable() {
			cmpFn := f.Compare
			if q.SortOrder == Desc {
				cmpFn = func(a, b T) int { return f.Compare(b, a) }
			}
			slices.SortStableFunc(filtered, cmpFn)
		}
	}

	start := q.Offset()
	if start >= total {
		return NewResult([]T{}, total, q)
	}
	end := min(start+q.Limit, total)
	items := make([]T, end-start)
	copy(items, filtered[start:end])
	return NewResult(items, total, q)
}

func matches[T any](e T, filters map[string]any, schema Schema[T]) bool {
	for name, want := range filters {
		f, ok := schema.Field(name)
		if !ok || !f.Filterable() {
			return false
		}
		if f.Value(e) != want {
			return false
		}
	}
	return true
}

// FindByID returns the first entity whose key equals id.
func FindByID[T Entity[T]](collection []T, id int64) (T, bool) {
	i := indexOf(collection, id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return collection[i], true
}

// UpsertAt replaces the entity with key id by patch(old) touched at now, keeping its position.
// It returns a new slice; the input is left as it was.
func UpsertAt[T Entity[T]](collection []T, id int64, patch func(T) T, now time.Time) ([]T, T, bool) {
	i := indexOf(collection, id)
	if i < 0 {
		var zero T
		return collection, zero, false
	}
	updated := patch(collection[i]).Touch(now)
	out := slices.Clone(collection)
	out[i] = updated
	return out, updated, true
}

// RemoveByID drops the first entity with key id. The input slice is left as it was.
func RemoveByID[T Entity[T]](collection []T, id int64) ([]T, bool) {
	i := indexOf(collection, id)
	if i < 0 {
		return collection, false
	}
	out := make([]T, 0, len(collection)-1)
	out = append(out, collection[:i]...)
	out = append(out, collection[i+1:]...)
	return out, true
}

func indexOf[T Entity[T]](collection []T, id int64) int {
	return slices.IndexFunc(collection, func(e T) bool { return e.Key() == id })
}
