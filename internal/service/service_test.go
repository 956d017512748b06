package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/tayseer-service/internal/model"
	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
	"github.com/maxviazov/tayseer-service/internal/repository/memory"
	"github.com/maxviazov/tayseer-service/internal/service"
)

func memoryStores() service.Stores {
	return service.Stores{
		Customers: memory.NewStore(repository.Customers, nil),
		Products:  memory.NewStore(repository.Products, nil),
		Documents: memory.NewStore(repository.Documents, nil),
		Cases:     memory.NewStore(repository.Cases, nil),
		Contracts: memory.NewStore(repository.Contracts, nil),
		Audits:    memory.NewStore(repository.Audits, nil),
	}
}

func newServices(t *testing.T) *service.Services {
	t.Helper()
	return service.New(memoryStores(), zerolog.New(io.Discard))
}

func ptr[V any](v V) *V { return &v }

func fieldNames(err error) []string {
	var out []string
	for _, fe := range service.FieldErrors(err) {
		out = append(out, fe.Field)
	}
	return out
}

func TestCustomerCreate_Validation(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	cases := []struct {
		name       string
		in         service.CustomerCreate
		wantFields []string
	}{
		{"empty", service.CustomerCreate{}, []string{"name", "email", "type"}},
		{"blank name", service.CustomerCreate{Name: "   ", Email: "a@b.co", Type: "company"}, []string{"name"}},
		{"bad email", service.CustomerCreate{Name: "Acme", Email: "nope", Type: "company"}, []string{"email"}},
		{"bad type", service.CustomerCreate{Name: "Acme", Email: "a@b.co", Type: "robot"}, []string{"type"}},
		{"bad status", service.CustomerCreate{Name: "Acme", Email: "a@b.co", Type: "company", Status: "gone"}, []string{"status"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Customers.Create(ctx, tc.in)
			require.ErrorIs(t, err, service.ErrInvalidInput)
			assert.ElementsMatch(t, tc.wantFields, fieldNames(err))
		})
	}
}

func TestCustomerCreate_DefaultsAndTrim(t *testing.T) {
	svc := newServices(t)
	c, err := svc.Customers.Create(context.Background(), service.CustomerCreate{
		Name: "  Acme  ", Email: "ops@acme.example", Type: "company",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "active", c.Status)
	assert.Positive(t, c.ID)
}

func TestCustomerCreate_DuplicateEmail(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	_, err := svc.Customers.Create(ctx, service.CustomerCreate{Name: "Acme", Email: "ops@acme.example", Type: "company"})
	require.NoError(t, err)
	_, err = svc.Customers.Create(ctx, service.CustomerCreate{Name: "Acme 2", Email: "OPS@acme.example", Type: "company"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestResource_GetAndDeleteRejectNonPositiveID(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	_, err := svc.Documents.Get(ctx, 0)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.ErrorIs(t, svc.Documents.Delete(ctx, -1), service.ErrInvalidInput)

	_, err = svc.Documents.Get(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResource_UpdateOverlaysOnlyProvidedFields(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	doc, err := svc.Documents.Create(ctx, service.DocumentCreate{Title: "Policy", Type: "policy", Content: "v1"})
	require.NoError(t, err)
	assert.Equal(t, "draft", doc.Status)

	updated, err := svc.Documents.Update(ctx, doc.ID, service.DocumentUpdate{Status: ptr("active")})
	require.NoError(t, err)
	assert.Equal(t, "active", updated.Status)
	assert.Equal(t, "Policy", updated.Title)
	assert.Equal(t, "v1", updated.Content)
	assert.True(t, updated.CreatedAt.Equal(doc.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(doc.UpdatedAt))

	_, err = svc.Documents.Update(ctx, doc.ID, service.DocumentUpdate{Title: ptr("")})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, []string{"title"}, fieldNames(err))

	_, err = svc.Documents.Update(ctx, 999, service.DocumentUpdate{Status: ptr("archived")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResource_ListValidatesAgainstSchema(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	_, err := svc.Customers.List(ctx, query.Query{SortBy: "phone"})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, []string{"sortBy"}, fieldNames(err))

	_, err = svc.Customers.List(ctx, query.Query{Filters: map[string]any{"phone": "123"}})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, []string{"phone"}, fieldNames(err))
}

func TestResource_ListPaginates(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	for _, title := range []string{"C", "A", "B"} {
		_, err := svc.Documents.Create(ctx, service.DocumentCreate{Title: title, Type: "memo"})
		require.NoError(t, err)
	}

	res, err := svc.Documents.List(ctx, query.Query{Page: 1, Limit: 2, SortBy: "title", SortOrder: query.Asc})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "A", res.Items[0].Title)
	assert.Equal(t, "B", res.Items[1].Title)
}

func TestCaseCreate_RequiresExistingCustomer(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	_, err := svc.Cases.Create(ctx, service.CaseCreate{Title: "Dispute", Type: "litigation", CustomerID: 77})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, []string{"customer_id"}, fieldNames(err))

	cust, err := svc.Customers.Create(ctx, service.CustomerCreate{Name: "Acme", Email: "a@acme.example", Type: "company"})
	require.NoError(t, err)

	c, err := svc.Cases.Create(ctx, service.CaseCreate{Title: "Dispute", Type: "litigation", CustomerID: cust.ID})
	require.NoError(t, err)
	assert.Equal(t, "open", c.Status)

	_, err = svc.Cases.Update(ctx, c.ID, service.CaseUpdate{CustomerID: ptr(int64(500))})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	unassigned, err := svc.Cases.Create(ctx, service.CaseCreate{Title: "Advice", Type: "advisory"})
	require.NoError(t, err)
	assert.Zero(t, unassigned.CustomerID)
}

func TestContract_PeriodInvariant(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	_, err := svc.Contracts.Create(ctx, service.ContractCreate{
		Title: "Lease", Party: "Landlord", Type: "lease", StartDate: dec, EndDate: jan,
	})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, []string{"end_date"}, fieldNames(err))

	c, err := svc.Contracts.Create(ctx, service.ContractCreate{
		Title: "Lease", Party: "Landlord", Type: "lease", StartDate: jan, EndDate: dec,
	})
	require.NoError(t, err)

	// moving only the start past the stored end is caught against the current record
	_, err = svc.Contracts.Update(ctx, c.ID, service.ContractUpdate{StartDate: ptr(dec.AddDate(0, 0, 1))})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	got, err := svc.Contracts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.StartDate.Equal(jan))
}

func TestAuditCreate_ScoreRange(t *testing.T) {
	svc := newServices(t)
	_, err := svc.Audits.Create(context.Background(), service.AuditCreate{
		Title: "IT", Department: "IT", Score: 101, AuditDate: time.Now(),
	})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, []string{"score"}, fieldNames(err))
}

type failingStore[T any] struct {
	repository.Store[T]
	err error
}

func (f failingStore[T]) Create(context.Context, T) (T, error) {
	var zero T
	return zero, f.err
}

func (f failingStore[T]) List(context.Context, query.Query) (query.Result[T], error) {
	return query.Result[T]{}, f.err
}

func TestResource_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	store := failingStore[model.Document]{err: boom}
	svc := service.NewResource[model.Document, service.DocumentCreate, service.DocumentUpdate](
		"document", store, repository.Documents.Schema, zerolog.New(io.Discard))

	_, err := svc.Create(context.Background(), service.DocumentCreate{Title: "Memo", Type: "memo"})
	assert.ErrorIs(t, err, boom)
	_, err = svc.List(context.Background(), query.Query{})
	assert.ErrorIs(t, err, boom)
}

func TestInventory_AdjustStock(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	p, err := svc.Products.Create(ctx, service.ProductCreate{SKU: "TON-1", Name: "Toner", Category: "office", Quantity: 5})
	require.NoError(t, err)

	out, err := svc.Inventory.AdjustStock(ctx, p.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Quantity)

	_, err = svc.Inventory.AdjustStock(ctx, p.ID, -3)
	require.ErrorIs(t, err, service.ErrInvalidInput)
	got, err := svc.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Quantity)

	_, err = svc.Inventory.AdjustStock(ctx, p.ID, 0)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = svc.Inventory.AdjustStock(ctx, 404, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInventory_AdjustStockRejectsOverflow(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	p, err := svc.Products.Create(ctx, service.ProductCreate{SKU: "BIG-1", Name: "Bulk", Category: "office", Quantity: 10})
	require.NoError(t, err)

	_, err = svc.Inventory.AdjustStock(ctx, p.ID, math.MaxInt64)
	require.ErrorIs(t, err, service.ErrInvalidInput)
	fe := service.FieldErrors(err)
	require.Len(t, fe, 1)
	assert.Equal(t, "delta", fe[0].Field)
	assert.Contains(t, fe[0].Message, "maximum")

	out, err := svc.Inventory.AdjustStock(ctx, p.ID, math.MaxInt64-10)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), out.Quantity)
}

// shiftingStore deletes one record the first time the second page is read,
// which moves every later record one slot towards the front.
type shiftingStore struct {
	repository.Store[model.Product]
	once     sync.Once
	deleteID int64
}

func (s *shiftingStore) List(ctx context.Context, q query.Query) (query.Result[model.Product], error) {
	if q.Page == 2 {
		s.once.Do(func() { _ = s.Store.Delete(ctx, s.deleteID) })
	}
	return s.Store.List(ctx, q)
}

func TestInventory_LowStockRescansWhenWriteShiftsPages(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore(repository.Products, nil)
	for i := 1; i <= 150; i++ {
		_, err := inner.Create(ctx, model.Product{SKU: fmt.Sprintf("S-%03d", i), Name: "item", Category: "x", Status: "active"})
		require.NoError(t, err)
	}
	inv := service.NewInventoryService(&shiftingStore{Store: inner, deleteID: 1}, zerolog.New(io.Discard))

	var got []int64
	for page := 1; page <= 2; page++ {
		res, err := inv.LowStock(ctx, 0, page, 100)
		require.NoError(t, err)
		assert.Equal(t, 149, res.Total)
		for _, p := range res.Items {
			got = append(got, p.ID)
		}
	}
	require.Len(t, got, 149)
	assert.NotContains(t, got, int64(1))
	assert.Contains(t, got, int64(101))
}

func TestInventory_AdjustStockConcurrent(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	p, err := svc.Products.Create(ctx, service.ProductCreate{SKU: "PAP-1", Name: "Paper", Category: "office"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Inventory.AdjustStock(ctx, p.ID, 2)
		}()
	}
	wg.Wait()

	got, err := svc.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Quantity)
}

func TestInventory_LowStock(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	for _, in := range []service.ProductCreate{
		{SKU: "A", Name: "A", Category: "x", Quantity: 9},
		{SKU: "B", Name: "B", Category: "x", Quantity: 1},
		{SKU: "C", Name: "C", Category: "x", Quantity: 40},
		{SKU: "D", Name: "D", Category: "x", Quantity: 1},
		{SKU: "E", Name: "E", Category: "x", Quantity: 0},
	} {
		_, err := svc.Products.Create(ctx, in)
		require.NoError(t, err)
	}

	res, err := svc.Inventory.LowStock(ctx, 5, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "E", res.Items[0].SKU)
	assert.Equal(t, "B", res.Items[1].SKU)

	res, err = svc.Inventory.LowStock(ctx, 5, 2, 2)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "D", res.Items[0].SKU)

	_, err = svc.Inventory.LowStock(ctx, -1, 1, 10)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSeed_LoadsEveryCollection(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	require.NoError(t, service.Seed(ctx, svc))

	customers, err := svc.Customers.List(ctx, query.Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, customers.Total)

	low, err := svc.Inventory.LowStock(ctx, 5, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, low.Total)
}
