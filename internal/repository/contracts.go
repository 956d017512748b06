package repository

import (
	"context"
	"time"

	"github.com/maxviazov/tayseer-service/internal/query"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Record is what every stored entity provides: addressing, touch on update, stamp on insert.
type Record[T any] interface {
	query.Entity[T]
	Stamp(id int64, at time.Time) T
}

// PatchFunc transforms the current version of a record into the next one.
// Returning an error aborts the update and leaves the stored record unchanged.
type PatchFunc[T any] func(current T) (T, error)

// Store is the collection abstraction every module persists through.
// Implementations surface domain errors from errors.go rather than driver codes.
type Store[T any] interface {
	Create(ctx context.Context, e T) (T, error)
	GetByID(ctx context.Context, id int64) (T, error)
	// List evaluates q with the semantics of query.Evaluate: filter, count, sort, then page.
	List(ctx context.Context, q query.Query) (query.Result[T], error)
	// Update runs patch against the latest version under the store's write lock, so concurrent
	// updates of the same record never lose writes.
	Update(ctx context.Context, id int64, patch PatchFunc[T]) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Clock returns the current time; stores take one so tests can pin timestamps.
type Clock func() time.Time

// UTCNow is the default clock. Timestamps are kept in UTC and truncated to microseconds,
// the finest precision Postgres stores.
func UTCNow() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
