package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

// Input is a validated request body that knows how to lay itself over an entity.
// Create inputs are applied to the zero value; update inputs only touch fields they carry.
type Input[T any] interface {
	Apply(T) T
}

// Resource is the CRUD + list use case set shared by every collection.
type Resource[T any, C any, U any] interface {
	Create(ctx context.Context, in C) (T, error)
	Get(ctx context.Context, id int64) (T, error)
	List(ctx context.Context, q query.Query) (query.Result[T], error)
	Update(ctx context.Context, id int64, in U) (T, error)
	Delete(ctx context.Context, id int64) error
	Schema() query.Schema[T]
}

// Option customizes a resource service.
type Option[T any] func(*resource[T])

// WithInvariant adds a pure check on the entity about to be written (after create/update is applied).
// It runs inside the store's read-modify-write, so it sees the current record.
func WithInvariant[T any](fn func(T) []FieldError) Option[T] {
	return func(r *resource[T]) { r.invariants = append(r.invariants, fn) }
}

// WithReferences adds a check that may hit other stores. It sees only the fields present in the
// request (applied to the zero value) and runs before the write starts.
func WithReferences[T any](fn func(context.Context, T) ([]FieldError, error)) Option[T] {
	return func(r *resource[T]) { r.references = append(r.references, fn) }
}

type resource[T any] struct {
	invariants []func(T) []FieldError
	references []func(context.Context, T) ([]FieldError, error)
}

type resourceService[T repository.Record[T], C Input[T], U Input[T]] struct {
	resource[T]
	name   string
	store  repository.Store[T]
	schema query.Schema[T]
	log    zerolog.Logger
}

// NewResource builds the generic use cases for one collection.
func NewResource[T repository.Record[T], C Input[T], U Input[T]](name string, store repository.Store[T], schema query.Schema[T], logger zerolog.Logger, opts ...Option[T]) Resource[T, C, U] {
	s := &resourceService[T, C, U]{
		name:   name,
		store:  store,
		schema: schema,
		log:    logger.With().Str("module", "service").Str("component", name).Logger(),
	}
	for _, o := range opts {
		o(&s.resource)
	}
	return s
}

func (s *resourceService[T, C, U]) Schema() query.Schema[T] { return s.schema }

func (s *resourceService[T, C, U]) Create(ctx context.Context, in C) (T, error) {
	start := time.Now()
	var zero T
	if err := validateStruct(in); err != nil {
		s.log.Debug().Interface("field_errors", FieldErrors(err)).Msg(s.name + " validation failed")
		return zero, err
	}
	candidate := in.Apply(zero)
	if err := s.checkReferences(ctx, candidate); err != nil {
		return zero, err
	}
	if err := s.checkInvariants(candidate); err != nil {
		return zero, err
	}

	out, err := s.store.Create(ctx, candidate)
	if err != nil {
		s.logFailure(err, "create")
		return zero, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("id", out.Key()).Msg(s.name + " created")
	return out, nil
}

func (s *resourceService[T, C, U]) Get(ctx context.Context, id int64) (T, error) {
	if id <= 0 {
		var zero T
		return zero, NewInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	return s.store.GetByID(ctx, id)
}

func (s *resourceService[T, C, U]) List(ctx context.Context, q query.Query) (query.Result[T], error) {
	if ferrs := FromQueryErrors(s.schema.Validate(q)); len(ferrs) > 0 {
		return query.Result[T]{}, NewInvalidInput(ferrs)
	}
	res, err := s.store.List(ctx, q)
	if err != nil {
		s.logFailure(err, "list")
		return query.Result[T]{}, err
	}
	return res, nil
}

func (s *resourceService[T, C, U]) Update(ctx context.Context, id int64, in U) (T, error) {
	start := time.Now()
	var zero T
	if id <= 0 {
		return zero, NewInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	if err := validateStruct(in); err != nil {
		s.log.Debug().Interface("field_errors", FieldErrors(err)).Msg(s.name + " validation failed")
		return zero, err
	}
	if err := s.checkReferences(ctx, in.Apply(zero)); err != nil {
		return zero, err
	}

	out, err := s.store.Update(ctx, id, func(cur T) (T, error) {
		next := in.Apply(cur)
		if err := s.checkInvariants(next); err != nil {
			return cur, err
		}
		return next, nil
	})
	if err != nil {
		s.logFailure(err, "update")
		return zero, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("id", id).Msg(s.name + " updated")
	return out, nil
}

func (s *resourceService[T, C, U]) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.logFailure(err, "delete")
		return err
	}
	s.log.Info().Int64("id", id).Msg(s.name + " deleted")
	return nil
}

func (s *resourceService[T, C, U]) checkInvariants(e T) error {
	var ferrs []FieldError
	for _, fn := range s.invariants {
		ferrs = append(ferrs, fn(e)...)
	}
	return NewInvalidInput(ferrs)
}

func (s *resourceService[T, C, U]) checkReferences(ctx context.Context, e T) error {
	var ferrs []FieldError
	for _, fn := range s.references {
		fe, err := fn(ctx, e)
		if err != nil {
			s.logFailure(err, "reference check")
			return err
		}
		ferrs = append(ferrs, fe...)
	}
	return NewInvalidInput(ferrs)
}

func (s *resourceService[T, C, U]) logFailure(err error, op string) {
	if isDomainErr(err) {
		s.log.Debug().Err(err).Msg(s.name + " " + op + " rejected")
		return
	}
	s.log.Error().Err(err).Msg(s.name + " " + op + " failed")
}
