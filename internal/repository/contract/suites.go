// Package contract holds behavioral suites every repository.Store implementation must pass.
// Each backend wires its own factory; the expectations stay identical.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/maxviazov/tayseer-service/internal/model"
	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

type ProductFactory func(t *testing.T) (repository.Store[model.Product], func())

type CaseFactory func(t *testing.T) (repository.Store[model.LegalCase], func())

type CustomerFactory func(t *testing.T) (repository.Store[model.Customer], func())

type AuditFactory func(t *testing.T) (repository.Store[model.ComplianceAudit], func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func seedProducts(t *testing.T, repo repository.Store[model.Product], items ...model.Product) []model.Product {
	t.Helper()
	out := make([]model.Product, 0, len(items))
	for _, p := range items {
		created, err := repo.Create(context.Background(), p)
		if err != nil {
			t.Fatalf("seed %s: %v", p.SKU, err)
		}
		out = append(out, created)
	}
	return out
}

func productIDs(items []model.Product) []int64 {
	out := make([]int64, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func RunProductStoreContract(t *testing.T, makeRepo ProductFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.Product{SKU: "HAM-01", Name: "Hammer", Category: "tools", Price: 12.5, Quantity: 4, Status: "active"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID <= 0 || created.CreatedAt.IsZero() || !created.UpdatedAt.Equal(created.CreatedAt) {
			t.Fatalf("create did not stamp identity: %+v", created)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.ID != created.ID || got.SKU != "HAM-01" || got.Price != 12.5 || got.Quantity != 4 {
			t.Fatalf("mismatch: %+v", got)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.GetByID(context.Background(), 999999)
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("create_duplicate_sku_conflict", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedProducts(t, repo, model.Product{SKU: "DUP", Name: "One", Category: "misc", Status: "active"})
		_, err := repo.Create(context.Background(), model.Product{SKU: "DUP", Name: "Two", Category: "misc", Status: "active"})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("list_filter_total_window", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		seeded := seedProducts(t, repo,
			model.Product{SKU: "A", Name: "A", Category: "tools", Status: "active"},
			model.Product{SKU: "B", Name: "B", Category: "paint", Status: "active"},
			model.Product{SKU: "C", Name: "C", Category: "tools", Status: "active"},
			model.Product{SKU: "D", Name: "D", Category: "tools", Status: "discontinued"},
			model.Product{SKU: "E", Name: "E", Category: "tools", Status: "active"},
			model.Product{SKU: "F", Name: "F", Category: "paint", Status: "active"},
			model.Product{SKU: "G", Name: "G", Category: "tools", Status: "active"},
		)
		res, err := repo.List(ctx, query.Query{Page: 1, Limit: 2, Filters: map[string]any{"category": "tools", "status": "active"}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 4 || res.TotalPages != 2 || res.Page != 1 {
			t.Fatalf("unexpected page meta: total=%d pages=%d page=%d", res.Total, res.TotalPages, res.Page)
		}
		want := []int64{seeded[0].ID, seeded[2].ID}
		if !equalIDs(productIDs(res.Items), want) {
			t.Fatalf("unexpected items: got %v want %v", productIDs(res.Items), want)
		}
		res2, err := repo.List(ctx, query.Query{Page: 2, Limit: 2, Filters: map[string]any{"category": "tools", "status": "active"}})
		if err != nil {
			t.Fatalf("list2: %v", err)
		}
		want2 := []int64{seeded[4].ID, seeded[6].ID}
		if res2.Total != 4 || !equalIDs(productIDs(res2.Items), want2) {
			t.Fatalf("unexpected page2: total=%d items=%v", res2.Total, productIDs(res2.Items))
		}
	})

	t.Run("list_out_of_range_page", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedProducts(t, repo,
			model.Product{SKU: "A", Name: "A", Category: "tools", Status: "active"},
			model.Product{SKU: "B", Name: "B", Category: "tools", Status: "active"},
		)
		res, err := repo.List(context.Background(), query.Query{Page: 5, Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 0 || res.Total != 2 || res.Page != 5 || res.TotalPages != 1 {
			t.Fatalf("unexpected out-of-range page: %+v", res)
		}
	})

	t.Run("list_huge_page", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedProducts(t, repo,
			model.Product{SKU: "A", Name: "A", Category: "tools", Status: "active"},
			model.Product{SKU: "B", Name: "B", Category: "tools", Status: "active"},
		)
		for _, page := range []int{100000000000000000, math.MaxInt} {
			res, err := repo.List(context.Background(), query.Query{Page: page, Limit: 100})
			if err != nil {
				t.Fatalf("list page %d: %v", page, err)
			}
			if len(res.Items) != 0 || res.Total != 2 || res.Page != page {
				t.Fatalf("unexpected huge page %d: %+v", page, res)
			}
		}
	})

	t.Run("list_empty", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		res, err := repo.List(context.Background(), query.Query{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Items == nil || len(res.Items) != 0 || res.Total != 0 || res.TotalPages != 0 {
			t.Fatalf("unexpected empty page: %+v", res)
		}
	})

	t.Run("list_sort_stable_ties", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		s := seedProducts(t, repo,
			model.Product{SKU: "A", Name: "A", Category: "x", Price: 3, Status: "active"},
			model.Product{SKU: "B", Name: "B", Category: "x", Price: 1, Status: "active"},
			model.Product{SKU: "C", Name: "C", Category: "x", Price: 3, Status: "active"},
			model.Product{SKU: "D", Name: "D", Category: "x", Price: 1, Status: "active"},
		)
		res, err := repo.List(context.Background(), query.Query{SortBy: "price", SortOrder: query.Desc})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := []int64{s[0].ID, s[2].ID, s[1].ID, s[3].ID}
		if !equalIDs(productIDs(res.Items), want) {
			t.Fatalf("unexpected order: got %v want %v", productIDs(res.Items), want)
		}
	})

	t.Run("update_overlays_and_touches", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		s := seedProducts(t, repo,
			model.Product{SKU: "A", Name: "A", Category: "x", Quantity: 1, Status: "active"},
			model.Product{SKU: "B", Name: "B", Category: "x", Quantity: 1, Status: "active"},
		)
		updated, err := repo.Update(ctx, s[0].ID, func(p model.Product) (model.Product, error) {
			p.Quantity = 9
			return p, nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Quantity != 9 || updated.Name != "A" || !updated.CreatedAt.Equal(s[0].CreatedAt) {
			t.Fatalf("patch not overlaid: %+v", updated)
		}
		if updated.UpdatedAt.Before(s[0].UpdatedAt) {
			t.Fatalf("updated_at went backwards: %v < %v", updated.UpdatedAt, s[0].UpdatedAt)
		}
		res, err := repo.List(ctx, query.Query{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 2 || !equalIDs(productIDs(res.Items), productIDs(s)) {
			t.Fatalf("update changed collection shape: %v", productIDs(res.Items))
		}
	})

	t.Run("update_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.Update(context.Background(), 424242, func(p model.Product) (model.Product, error) { return p, nil })
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update_patch_error_keeps_record", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		s := seedProducts(t, repo, model.Product{SKU: "A", Name: "A", Category: "x", Quantity: 3, Status: "active"})
		marker := errors.New("rejected")
		_, err := repo.Update(ctx, s[0].ID, func(p model.Product) (model.Product, error) {
			p.Quantity = -1
			return p, marker
		})
		if !errors.Is(err, marker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		got, err := repo.GetByID(ctx, s[0].ID)
		if err != nil || got.Quantity != 3 {
			t.Fatalf("record changed after rejected patch: %+v err=%v", got, err)
		}
	})

	t.Run("update_unique_conflict", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		s := seedProducts(t, repo,
			model.Product{SKU: "A", Name: "A", Category: "x", Status: "active"},
			model.Product{SKU: "B", Name: "B", Category: "x", Status: "active"},
		)
		_, err := repo.Update(context.Background(), s[1].ID, func(p model.Product) (model.Product, error) {
			p.SKU = "A"
			return p, nil
		})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("delete_idempotent", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		s := seedProducts(t, repo,
			model.Product{SKU: "A", Name: "A", Category: "x", Status: "active"},
			model.Product{SKU: "B", Name: "B", Category: "x", Status: "active"},
			model.Product{SKU: "C", Name: "C", Category: "x", Status: "active"},
		)
		if err := repo.Delete(ctx, s[1].ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := repo.Delete(ctx, s[1].ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
		res, err := repo.List(ctx, query.Query{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if !equalIDs(productIDs(res.Items), []int64{s[0].ID, s[2].ID}) {
			t.Fatalf("unexpected remaining order: %v", productIDs(res.Items))
		}
	})

	t.Run("concurrent_updates_no_lost_writes", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		s := seedProducts(t, repo, model.Product{SKU: "A", Name: "A", Category: "x", Status: "active"})

		const workers = 16
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, s[0].ID, func(p model.Product) (model.Product, error) {
					p.Quantity++
					return p, nil
				})
				if err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("concurrent update: %v", err)
		}
		got, err := repo.GetByID(ctx, s[0].ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Quantity != workers {
			t.Fatalf("lost updates: quantity=%d want %d", got.Quantity, workers)
		}
	})
}

func RunCaseStoreContract(t *testing.T, makeRepo CaseFactory) {
	t.Helper()

	t.Run("filtered_window_keeps_insertion_order", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var ids []int64
		for _, status := range []string{"open", "in_progress", "open"} {
			c, err := repo.Create(ctx, model.LegalCase{Title: "Case " + status, Type: "litigation", Status: status})
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
			ids = append(ids, c.ID)
		}

		res, err := repo.List(ctx, query.Query{Page: 1, Limit: 2, Filters: map[string]any{"status": "open"}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 2 || res.TotalPages != 1 || len(res.Items) != 2 {
			t.Fatalf("unexpected filtered page: %+v", res)
		}
		if res.Items[0].ID != ids[0] || res.Items[1].ID != ids[2] {
			t.Fatalf("unexpected order: %d,%d", res.Items[0].ID, res.Items[1].ID)
		}

		res, err = repo.List(ctx, query.Query{Page: 2, Limit: 2})
		if err != nil {
			t.Fatalf("list page 2: %v", err)
		}
		if res.Total != 3 || res.TotalPages != 2 || len(res.Items) != 1 || res.Items[0].ID != ids[2] {
			t.Fatalf("unexpected second page: %+v", res)
		}
	})

	t.Run("filter_by_customer", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for _, cid := range []int64{7, 8, 7} {
			if _, err := repo.Create(ctx, model.LegalCase{Title: "c", Type: "advisory", Status: "open", CustomerID: cid}); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		res, err := repo.List(ctx, query.Query{Filters: map[string]any{"customer_id": int64(7)}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 2 {
			t.Fatalf("expected 2 cases for customer 7, got %d", res.Total)
		}
	})
}

func RunCustomerStoreContract(t *testing.T, makeRepo CustomerFactory) {
	t.Helper()

	t.Run("email_filter_is_case_sensitive", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.Customer{Name: "Alice", Email: "Alice@Example.com", Type: "individual", Status: "active"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		res, err := repo.List(ctx, query.Query{Filters: map[string]any{"email": "alice@example.com"}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 0 || len(res.Items) != 0 {
			t.Fatalf("filter matched a differently cased email: %+v", res)
		}

		res, err = repo.List(ctx, query.Query{Filters: map[string]any{"email": "Alice@Example.com"}})
		if err != nil {
			t.Fatalf("list exact: %v", err)
		}
		if res.Total != 1 || len(res.Items) != 1 || res.Items[0].ID != created.ID {
			t.Fatalf("exact email filter missed: %+v", res)
		}
	})

	t.Run("email_unique_ignoring_case", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.Create(ctx, model.Customer{Name: "Bob", Email: "bob@example.com", Type: "individual", Status: "active"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		_, err := repo.Create(ctx, model.Customer{Name: "Robert", Email: "BOB@example.com", Type: "individual", Status: "active"})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}

		other, err := repo.Create(ctx, model.Customer{Name: "Carol", Email: "carol@example.com", Type: "company", Status: "active"})
		if err != nil {
			t.Fatalf("create other: %v", err)
		}
		_, err = repo.Update(ctx, other.ID, func(c model.Customer) (model.Customer, error) {
			c.Email = "Bob@Example.com"
			return c, nil
		})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists on update, got %v", err)
		}
	})

	t.Run("status_and_type_filters", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var ids []int64
		for i, c := range []model.Customer{
			{Name: "a", Type: "company", Status: "active"},
			{Name: "b", Type: "individual", Status: "active"},
			{Name: "c", Type: "company", Status: "inactive"},
			{Name: "d", Type: "company", Status: "active"},
		} {
			c.Email = fmt.Sprintf("c%d@example.com", i)
			created, err := repo.Create(ctx, c)
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
			ids = append(ids, created.ID)
		}
		res, err := repo.List(ctx, query.Query{Filters: map[string]any{"type": "company", "status": "active"}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		got := make([]int64, 0, len(res.Items))
		for _, c := range res.Items {
			got = append(got, c.ID)
		}
		if res.Total != 2 || !equalIDs(got, []int64{ids[0], ids[3]}) {
			t.Fatalf("unexpected filtered customers: total=%d ids=%v", res.Total, got)
		}
	})
}

func RunAuditStoreContract(t *testing.T, makeRepo AuditFactory) {
	t.Helper()

	day := func(d int) time.Time { return time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC) }
	seed := func(t *testing.T, repo repository.Store[model.ComplianceAudit], items ...model.ComplianceAudit) []int64 {
		t.Helper()
		out := make([]int64, 0, len(items))
		for _, a := range items {
			created, err := repo.Create(context.Background(), a)
			if err != nil {
				t.Fatalf("seed %s: %v", a.Title, err)
			}
			out = append(out, created.ID)
		}
		return out
	}
	auditIDs := func(items []model.ComplianceAudit) []int64 {
		out := make([]int64, 0, len(items))
		for _, a := range items {
			out = append(out, a.ID)
		}
		return out
	}

	t.Run("audit_date_desc_keeps_ties_in_insertion_order", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ids := seed(t, repo,
			model.ComplianceAudit{Title: "a1", Department: "legal", Status: "completed", AuditDate: day(1)},
			model.ComplianceAudit{Title: "a2", Department: "legal", Status: "completed", AuditDate: day(3)},
			model.ComplianceAudit{Title: "a3", Department: "legal", Status: "completed", AuditDate: day(2)},
			model.ComplianceAudit{Title: "a4", Department: "legal", Status: "completed", AuditDate: day(3)},
			model.ComplianceAudit{Title: "a5", Department: "legal", Status: "completed", AuditDate: day(1)},
		)
		res, err := repo.List(context.Background(), query.Query{SortBy: "audit_date", SortOrder: query.Desc})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := []int64{ids[1], ids[3], ids[2], ids[0], ids[4]}
		if !equalIDs(auditIDs(res.Items), want) {
			t.Fatalf("unexpected order: got %v want %v", auditIDs(res.Items), want)
		}
		if !res.Items[0].AuditDate.Equal(day(3)) {
			t.Fatalf("audit_date not round-tripped: %v", res.Items[0].AuditDate)
		}

		res, err = repo.List(context.Background(), query.Query{Page: 2, Limit: 2, SortBy: "audit_date", SortOrder: query.Desc})
		if err != nil {
			t.Fatalf("list page 2: %v", err)
		}
		if res.Total != 5 || res.TotalPages != 3 || !equalIDs(auditIDs(res.Items), want[2:4]) {
			t.Fatalf("unexpected second page: total=%d ids=%v", res.Total, auditIDs(res.Items))
		}
	})

	t.Run("score_sort_with_filter", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ids := seed(t, repo,
			model.ComplianceAudit{Title: "s1", Department: "finance", Status: "completed", Score: 70, AuditDate: day(1)},
			model.ComplianceAudit{Title: "s2", Department: "legal", Status: "completed", Score: 95, AuditDate: day(2)},
			model.ComplianceAudit{Title: "s3", Department: "finance", Status: "completed", Score: 90, AuditDate: day(3)},
			model.ComplianceAudit{Title: "s4", Department: "finance", Status: "scheduled", Score: 0, AuditDate: day(4)},
			model.ComplianceAudit{Title: "s5", Department: "finance", Status: "completed", Score: 70, AuditDate: day(5)},
		)
		res, err := repo.List(context.Background(), query.Query{
			Filters:   map[string]any{"department": "finance", "status": "completed"},
			SortBy:    "score",
			SortOrder: query.Asc,
		})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := []int64{ids[0], ids[4], ids[2]}
		if res.Total != 3 || !equalIDs(auditIDs(res.Items), want) {
			t.Fatalf("unexpected order: total=%d got %v want %v", res.Total, auditIDs(res.Items), want)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}
