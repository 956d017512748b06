// Package memory keeps collections in process memory. It is the reference implementation of
// repository.Store: every operation is the list engine applied under a single mutex.
package memory

import (
	"context"
	"sync"

	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

type store[T repository.Record[T]] struct {
	mu     sync.RWMutex
	table  repository.Table[T]
	items  []T
	nextID int64
	now    repository.Clock
}

// NewStore returns an empty in-memory collection for table t.
func NewStore[T repository.Record[T]](t repository.Table[T], now repository.Clock) repository.Store[T] {
	if now == nil {
		now = repository.UTCNow
	}
	return &store[T]{table: t, nextID: 1, now: now}
}

func (s *store[T]) Create(_ context.Context, e T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflicts(e, 0) {
		var zero T
		return zero, repository.ErrAlreadyExists
	}
	out := e.Stamp(s.nextID, s.now())
	s.nextID++
	s.items = append(s.items, out)
	return out, nil
}

func (s *store[T]) GetByID(_ context.Context, id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := query.FindByID(s.items, id)
	if !ok {
		return it, repository.ErrNotFound
	}
	return it, nil
}

func (s *store[T]) List(_ context.Context, q query.Query) (query.Result[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.Evaluate(s.items, q, s.table.Schema), nil
}

func (s *store[T]) Update(_ context.Context, id int64, patch repository.PatchFunc[T]) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	current, ok := query.FindByID(s.items, id)
	if !ok {
		return zero, repository.ErrNotFound
	}
	next, err := patch(current)
	if err != nil {
		return zero, err
	}
	if s.conflicts(next, id) {
		return zero, repository.ErrAlreadyExists
	}
	items, updated, _ := query.UpsertAt(s.items, id, func(T) T { return next }, s.now())
	s.items = items
	return updated, nil
}

func (s *store[T]) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, removed := query.RemoveByID(s.items, id)
	if !removed {
		return repository.ErrNotFound
	}
	s.items = items
	return nil
}

// conflicts reports a unique-key collision with any record other than skipID.
func (s *store[T]) conflicts(e T, skipID int64) bool {
	if s.table.Conflicts == nil {
		return false
	}
	for _, it := range s.items {
		if it.Key() != skipID && s.table.Conflicts(it, e) {
			return true
		}
	}
	return false
}
