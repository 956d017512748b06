package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/tayseer-service/internal/model"
	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

// InventoryService covers stock movements on top of the product catalog.
type InventoryService interface {
	AdjustStock(ctx context.Context, productID, delta int64) (model.Product, error)
	LowStock(ctx context.Context, threshold int64, page, limit int) (query.Result[model.Product], error)
}

type inventoryService struct {
	products repository.Store[model.Product]
	log      zerolog.Logger
}

func NewInventoryService(products repository.Store[model.Product], logger zerolog.Logger) InventoryService {
	l := logger.With().Str("module", "service").Str("component", "inventory").Logger()
	return &inventoryService{products: products, log: l}
}

// AdjustStock applies delta inside the store's read-modify-write so concurrent movements never lose updates.
func (s *inventoryService) AdjustStock(ctx context.Context, productID, delta int64) (model.Product, error) {
	start := time.Now()
	var ferrs []FieldError
	if productID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "must be > 0"})
	}
	if delta == 0 {
		ferrs = append(ferrs, FieldError{Field: "delta", Message: "must not be zero"})
	}
	if err := NewInvalidInput(ferrs); err != nil {
		return model.Product{}, err
	}

	out, err := s.products.Update(ctx, productID, func(p model.Product) (model.Product, error) {
		if delta > 0 && p.Quantity > math.MaxInt64-delta {
			return p, NewInvalidInput([]FieldError{{Field: "delta", Message: "stock would exceed the maximum quantity"}})
		}
		if p.Quantity+delta < 0 {
			return p, NewInvalidInput([]FieldError{{Field: "delta", Message: "stock cannot go below zero"}})
		}
		p.Quantity += delta
		return p, nil
	})
	if err != nil {
		if !isDomainErr(err) {
			s.log.Error().Err(err).Int64("product_id", productID).Int64("delta", delta).Msg("adjust stock failed")
		}
		return model.Product{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("product_id", productID).Int64("delta", delta).Int64("quantity", out.Quantity).Msg("stock adjusted")
	return out, nil
}

// LowStock lists products at or below threshold, lowest quantity first.
// Stores only filter by equality, so the range check runs here and the engine windows the result.
func (s *inventoryService) LowStock(ctx context.Context, threshold int64, page, limit int) (query.Result[model.Product], error) {
	if threshold < 0 {
		return query.Result[model.Product]{}, NewInvalidInput([]FieldError{{Field: "threshold", Message: "must be >= 0"}})
	}
	all, err := collect(ctx, s.products, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("low stock scan failed")
		return query.Result[model.Product]{}, err
	}
	low := make([]model.Product, 0, len(all))
	for _, p := range all {
		if p.Quantity <= threshold {
			low = append(low, p)
		}
	}
	return query.Evaluate(low, query.Query{
		Page:      page,
		Limit:     limit,
		SortBy:    "quantity",
		SortOrder: query.Asc,
	}, repository.Products.Schema), nil
}

// collectAttempts bounds how often collect restarts a scan that raced a write.
const collectAttempts = 3

// collect drains every page of a filtered list. Pages are separate reads, so a create or delete
// landing between them shifts the window: when the total moves the scan starts over, and records
// are kept once per id. A concurrent create plus delete that leaves the total unchanged can still
// slip through; after collectAttempts the last scan is returned as is.
func collect[T interface{ Key() int64 }](ctx context.Context, store repository.Store[T], filters map[string]any) ([]T, error) {
	var out []T
	for attempt := 1; ; attempt++ {
		items, stable, err := drain(ctx, store, filters)
		if err != nil {
			return nil, err
		}
		out = items
		if stable || attempt == collectAttempts {
			return out, nil
		}
	}
}

// drain reads all pages once and reports whether the total held steady across them.
func drain[T interface{ Key() int64 }](ctx context.Context, store repository.Store[T], filters map[string]any) ([]T, bool, error) {
	var out []T
	seen := make(map[int64]struct{})
	total := -1
	stable := true
	for page := 1; ; page++ {
		res, err := store.List(ctx, query.Query{Page: page, Limit: query.MaxLimit, Filters: filters})
		if err != nil {
			return nil, false, err
		}
		if total >= 0 && res.Total != total {
			stable = false
		}
		total = res.Total
		for _, it := range res.Items {
			if _, dup := seen[it.Key()]; dup {
				continue
			}
			seen[it.Key()] = struct{}{}
			out = append(out, it)
		}
		if page >= res.TotalPages {
			return out, stable, nil
		}
	}
}
