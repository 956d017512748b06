package query_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/tayseer-service/internal/query"
)

type record struct {
	ID        int64
	Status    string
	Type      string
	Score     int64
	UpdatedAt time.Time
}

func (r record) Key() int64                { return r.ID }
func (r record) Touch(at time.Time) record { r.UpdatedAt = at; return r }

var recordSchema = query.NewSchema(map[string]query.Field[record]{
	"id":     query.Int("id", func(r record) int64 { return r.ID }),
	"status": query.String("status", func(r record) string { return r.Status }),
	"type":   query.String("type", func(r record) string { return r.Type }),
	"score":  query.Int("score", func(r record) int64 { return r.Score }),
})

func threeCases() []record {
	return []record{
		{ID: 1, Status: "open", Type: "litigation"},
		{ID: 2, Status: "in_progress", Type: "litigation"},
		{ID: 3, Status: "open", Type: "advisory"},
	}
}

func ids(items []record) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestEvaluate_FilteredFirstPage(t *testing.T) {
	res := query.Evaluate(threeCases(), query.Query{Page: 1, Limit: 2, Filters: map[string]any{"status": "open"}}, recordSchema)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, []int64{1, 3}, ids(res.Items))
}

func TestEvaluate_SecondPageUnfiltered(t *testing.T) {
	res := query.Evaluate(threeCases(), query.Query{Page: 2, Limit: 2, Filters: map[string]any{}}, recordSchema)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, []int64{3}, ids(res.Items))
}

func TestEvaluate_PaginationArithmetic(t *testing.T) {
	var collection []record
	for i := 1; i <= 23; i++ {
		collection = append(collection, record{ID: int64(i), Status: "open"})
	}
	for _, limit := range []int{1, 5, 7, 10, 23, 50} {
		for page := 1; page <= 6; page++ {
			t.Run(fmt.Sprintf("limit=%d/page=%d", limit, page), func(t *testing.T) {
				res := query.Evaluate(collection, query.Query{Page: page, Limit: limit}, recordSchema)
				want := min(max(23-(page-1)*limit, 0), limit)
				assert.Len(t, res.Items, want)
				assert.Equal(t, 23, res.Total)
				assert.Equal(t, (23+limit-1)/limit, res.TotalPages)
				assert.Equal(t, page, res.Page)
			})
		}
	}
}

func TestEvaluate_TotalIgnoresWindow(t *testing.T) {
	collection := threeCases()
	filters := map[string]any{"type": "litigation"}
	a := query.Evaluate(collection, query.Query{Page: 1, Limit: 1, Filters: filters}, recordSchema)
	b := query.Evaluate(collection, query.Query{Page: 9, Limit: 50, Filters: filters}, recordSchema)
	assert.Equal(t, a.Total, b.Total)
	assert.Equal(t, 2, a.Total)
}

func TestEvaluate_EmptyCollection(t *testing.T) {
	res := query.Evaluate[record](nil, query.Query{Page: 1, Limit: 10}, recordSchema)
	require.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.TotalPages)
}

func TestEvaluate_OutOfRangePageEchoed(t *testing.T) {
	res := query.Evaluate(threeCases(), query.Query{Page: 40, Limit: 2}, recordSchema)
	assert.Empty(t, res.Items)
	assert.Equal(t, 40, res.Page)
	assert.Equal(t, 3, res.Total)
}

func TestEvaluate_HugePageIsPastTheEnd(t *testing.T) {
	for _, page := range []int{100000000000000000, math.MaxInt} {
		res := query.Evaluate(threeCases(), query.Query{Page: page, Limit: 100}, recordSchema)
		assert.Empty(t, res.Items)
		assert.NotNil(t, res.Items)
		assert.Equal(t, page, res.Page)
		assert.Equal(t, 3, res.Total)
	}
}

func TestQuery_OffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, query.Query{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, query.Query{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, math.MaxInt, query.Query{Page: math.MaxInt, Limit: 2}.Offset())
	assert.Equal(t, math.MaxInt, query.Query{Page: math.MaxInt/100 + 2, Limit: 100}.Offset())

	// the last addressable page still leaves room for a full window
	last := query.Query{Page: (math.MaxInt-100)/100 + 1, Limit: 100}
	assert.Less(t, last.Offset(), math.MaxInt-99)
}

func TestEvaluate_Defaults(t *testing.T) {
	var collection []record
	for i := 1; i <= 15; i++ {
		collection = append(collection, record{ID: int64(i)})
	}

	res := query.Evaluate(collection, query.Query{}, recordSchema)
	assert.Equal(t, 1, res.Page)
	assert.Len(t, res.Items, query.DefaultLimit)

	res = query.Evaluate(collection, query.Query{Page: -3, Limit: -1}, recordSchema)
	assert.Equal(t, 1, res.Page)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 15, res.TotalPages)
}

func TestEvaluate_FiltersAreANDed(t *testing.T) {
	res := query.Evaluate(threeCases(), query.Query{Filters: map[string]any{"status": "open", "type": "litigation"}}, recordSchema)
	assert.Equal(t, []int64{1}, ids(res.Items))
}

func TestEvaluate_EmptyFilterValuesIgnored(t *testing.T) {
	res := query.Evaluate(threeCases(), query.Query{Filters: map[string]any{"status": "", "type": nil}}, recordSchema)
	assert.Equal(t, 3, res.Total)
}

func TestEvaluate_StrictTypedEquality(t *testing.T) {
	collection := []record{{ID: 1, Score: 5}, {ID: 2, Score: 7}}
	res := query.Evaluate(collection, query.Query{Filters: map[string]any{"score": int64(5)}}, recordSchema)
	assert.Equal(t, []int64{1}, ids(res.Items))

	res = query.Evaluate(collection, query.Query{Filters: map[string]any{"score": "5"}}, recordSchema)
	assert.Equal(t, 0, res.Total)
}

func TestEvaluate_UnknownFilterMatchesNothing(t *testing.T) {
	res := query.Evaluate(threeCases(), query.Query{Filters: map[string]any{"colour": "red"}}, recordSchema)
	assert.Equal(t, 0, res.Total)
}

func TestEvaluate_StableSort(t *testing.T) {
	collection := []record{
		{ID: 1, Score: 3},
		{ID: 2, Score: 1},
		{ID: 3, Score: 3},
		{ID: 4, Score: 1},
		{ID: 5, Score: 2},
	}
	asc := query.Evaluate(collection, query.Query{SortBy: "score", SortOrder: query.Asc}, recordSchema)
	assert.Equal(t, []int64{2, 4, 5, 1, 3}, ids(asc.Items))

	desc := query.Evaluate(collection, query.Query{SortBy: "score", SortOrder: query.Desc}, recordSchema)
	assert.Equal(t, []int64{1, 3, 5, 2, 4}, ids(desc.Items))
}

func TestEvaluate_NoSortKeepsInsertionOrder(t *testing.T) {
	collection := []record{{ID: 9}, {ID: 2}, {ID: 5}}
	res := query.Evaluate(collection, query.Query{}, recordSchema)
	assert.Equal(t, []int64{9, 2, 5}, ids(res.Items))
}

func TestEvaluate_DoesNotMutateOrAlias(t *testing.T) {
	collection := []record{{ID: 3, Score: 2}, {ID: 1, Score: 1}, {ID: 2, Score: 3}}
	before := append([]record(nil), collection...)

	q := query.Query{SortBy: "score", Limit: 3}
	a := query.Evaluate(collection, q, recordSchema)
	b := query.Evaluate(collection, q, recordSchema)

	assert.Equal(t, before, collection)
	assert.Equal(t, a, b)

	a.Items[0].Status = "tampered"
	assert.NotEqual(t, "tampered", b.Items[0].Status)
	for _, r := range collection {
		assert.NotEqual(t, "tampered", r.Status)
	}
}

func TestFindByID(t *testing.T) {
	got, ok := query.FindByID(threeCases(), 2)
	require.True(t, ok)
	assert.Equal(t, "in_progress", got.Status)

	_, ok = query.FindByID(threeCases(), 99)
	assert.False(t, ok)
}

func TestUpsertAt_RoundTrip(t *testing.T) {
	collection := threeCases()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	next, updated, ok := query.UpsertAt(collection, 2, func(r record) record {
		r.Status = "closed"
		return r
	}, now)
	require.True(t, ok)
	assert.Equal(t, "closed", updated.Status)
	assert.Equal(t, now, updated.UpdatedAt)
	assert.Len(t, next, len(collection))
	assert.Equal(t, []int64{1, 2, 3}, ids(next))

	got, ok := query.FindByID(next, 2)
	require.True(t, ok)
	want := collection[1]
	want.Status = "closed"
	want.UpdatedAt = now
	assert.Equal(t, want, got)

	assert.Equal(t, "in_progress", collection[1].Status, "source slice must be untouched")
}

func TestUpsertAt_Missing(t *testing.T) {
	collection := threeCases()
	next, _, ok := query.UpsertAt(collection, 42, func(r record) record { return r }, time.Now())
	assert.False(t, ok)
	assert.Equal(t, collection, next)
}

func TestRemoveByID_Idempotent(t *testing.T) {
	collection := threeCases()

	next, removed := query.RemoveByID(collection, 2)
	require.True(t, removed)
	assert.Equal(t, []int64{1, 3}, ids(next))

	again, removed := query.RemoveByID(next, 2)
	assert.False(t, removed)
	assert.Equal(t, next, again)
	assert.Len(t, collection, 3)
}
