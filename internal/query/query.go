// Package query evaluates list requests (filter, count, sort, paginate) over in-memory collections.
// Every list endpoint goes through it, so memory and SQL stores agree on the same window semantics.
package query

import (
	"math"
	"strings"
)

const (
	// DefaultLimit applies when the caller did not ask for a page size.
	DefaultLimit = 10
	// MaxLimit caps a single page.
	MaxLimit = 100
)

// Order is the sort direction of a list request.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts asc/desc in any case; anything else is reported as not ok.
func ParseOrder(s string) (Order, bool) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	case "":
		return "", true
	default:
		return "", false
	}
}

// Query is a single list request. Filters hold typed values keyed by schema field name;
// nil and empty-string values impose no constraint.
type Query struct {
	Page      int
	Limit     int
	Filters   map[string]any
	SortBy    string
	SortOrder Order
}

// Result is one page of a list request. Items is always a fresh slice.
type Result[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// Normalize applies the page/limit floors and defaults used by every store.
func Normalize(q Query) Query {
	if q.Page <= 0 {
		q.Page = 1
	}
	switch {
	case q.Limit == 0:
		q.Limit = DefaultLimit
	case q.Limit < 0:
		q.Limit = 1
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	if q.SortOrder == "" {
		q.SortOrder = Asc
	}
	return q
}

// Offset is the index of the first item of the page. Call on a normalized query.
// A page too large to address saturates to math.MaxInt, which is past the end of any collection.
func (q Query) Offset() int {
	if q.Limit > 0 && q.Page-1 > (math.MaxInt-q.Limit)/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// TotalPages returns ceil(total/limit), 0 for an empty result.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// NewResult assembles a Result for a page that was already cut by a store.
func NewResult[T any](items []T, total int, q Query) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		TotalPages: TotalPages(total, q.Limit),
	}
}

// ActiveFilters drops nil and empty-string filter values.
func ActiveFilters(filters map[string]any) map[string]any {
	out := make(map[string]any, len(filters))
	for k, v := range filters {
		if isEmpty(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
