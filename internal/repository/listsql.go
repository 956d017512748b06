package repository

import (
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"

	"github.com/maxviazov/tayseer-service/internal/query"
)

// ListStatements builds the count and page selects for q against t.
// Both share the same WHERE clause so total is counted after filtering and before the window.
// The page select carries the filtered total as a trailing COUNT(*) OVER() column, read with
// WindowScanner; the count select is only needed when the page comes back empty.
// Rows are ordered by the requested field with id as the tie-break, which mirrors the stable
// sort over insertion order the in-memory engine performs.
func ListStatements[T any](t Table[T], q query.Query, ph sq.PlaceholderFormat) (count sq.SelectBuilder, page sq.SelectBuilder) {
	q = query.Normalize(q)
	b := sq.StatementBuilder.PlaceholderFormat(ph)

	where := filterClause(t, q.Filters)
	count = b.Select("COUNT(*)").From(t.Name).Where(where)
	page = b.Select(append(t.SelectColumns(), "COUNT(*) OVER() AS total_count")...).From(t.Name).Where(where)

	order := []string{"id ASC"}
	if f, ok := t.Schema.Field(q.SortBy); ok && f.Sortable() {
		dir := "ASC"
		if q.SortOrder == query.Desc {
			dir = "DESC"
		}
		if f.Column == "id" {
			order = []string{"id " + dir}
		} else {
			order = []string{fmt.Sprintf("%s %s", f.Column, dir), "id ASC"}
		}
	}
	page = page.OrderBy(order...)

	page = page.Limit(uint64(q.Limit)).Offset(uint64(q.Offset()))
	return count, page
}

// filterClause turns active filters into an AND of equalities. Keys the schema does not allow
// collapse the clause to false, matching the in-memory engine.
func filterClause[T any](t Table[T], filters map[string]any) sq.And {
	active := query.ActiveFilters(filters)
	names := make([]string, 0, len(active))
	for name := range active {
		names = append(names, name)
	}
	sort.Strings(names)

	and := sq.And{}
	for _, name := range names {
		f, ok := t.Schema.Field(name)
		if !ok || !f.Filterable() {
			return sq.And{sq.Expr("1 = 0")}
		}
		and = append(and, sq.Eq{f.Column: active[name]})
	}
	return and
}

// WindowScanner scans a page row and its trailing total_count column into Total.
type WindowScanner struct {
	Row   Scanner
	Total *int
}

func (w WindowScanner) Scan(dest ...any) error {
	return w.Row.Scan(append(dest, w.Total)...)
}
