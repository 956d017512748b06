package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

type store[T repository.Record[T]] struct {
	pool  *pgxpool.Pool
	table repository.Table[T]
	tx    *txManager
	now   repository.Clock
}

// NewStore returns a repository.Store backed by table t.
func NewStore[T repository.Record[T]](pool *pgxpool.Pool, t repository.Table[T], now repository.Clock) repository.Store[T] {
	if now == nil {
		now = repository.UTCNow
	}
	return &store[T]{pool: pool, table: t, tx: &txManager{pool: pool}, now: now}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (s *store[T]) returning() string {
	return "RETURNING " + strings.Join(s.table.SelectColumns(), ", ")
}

func (s *store[T]) Create(ctx context.Context, e T) (T, error) {
	var zero T
	if err := ensurePool(s.pool); err != nil {
		return zero, err
	}
	e = e.Stamp(0, s.now())
	sqlStr, args, err := psql.Insert(s.table.Name).
		Columns(s.table.Columns...).
		Values(s.table.Values(e)...).
		Suffix(s.returning()).
		ToSql()
	if err != nil {
		return zero, fmt.Errorf("build insert %s: %w", s.table.Name, err)
	}
	out, err := s.table.Scan(getQ(ctx, s.pool).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		return zero, repository.MapPgError(err)
	}
	return out, nil
}

func (s *store[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := ensurePool(s.pool); err != nil {
		return zero, err
	}
	return s.getByID(ctx, getQ(ctx, s.pool), id, "")
}

func (s *store[T]) getByID(ctx context.Context, exec q, id int64, suffix string) (T, error) {
	var zero T
	b := psql.Select(s.table.SelectColumns()...).From(s.table.Name).Where(sq.Eq{"id": id})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return zero, fmt.Errorf("build select %s: %w", s.table.Name, err)
	}
	out, err := s.table.Scan(exec.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, repository.ErrNotFound
		}
		return zero, repository.MapPgError(err)
	}
	return out, nil
}

// List reads the page and its window total in one statement. Only an empty page needs the
// separate count, and it runs in the same snapshot.
func (s *store[T]) List(ctx context.Context, qr query.Query) (query.Result[T], error) {
	if err := ensurePool(s.pool); err != nil {
		return query.Result[T]{}, err
	}
	qr = query.Normalize(qr)
	countB, pageB := repository.ListStatements(s.table, qr, sq.Dollar)

	var (
		items []T
		total int
	)
	err := s.tx.WithinSnapshot(ctx, func(ctx context.Context) error {
		exec := getQ(ctx, s.pool)
		pageSQL, pageArgs, err := pageB.ToSql()
		if err != nil {
			return fmt.Errorf("build page %s: %w", s.table.Name, err)
		}
		rows, err := exec.Query(ctx, pageSQL, pageArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		items = make([]T, 0, qr.Limit)
		for rows.Next() {
			it, err := s.table.Scan(repository.WindowScanner{Row: rows, Total: &total})
			if err != nil {
				return err
			}
			items = append(items, it)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(items) > 0 {
			return nil
		}

		countSQL, countArgs, err := countB.ToSql()
		if err != nil {
			return fmt.Errorf("build count %s: %w", s.table.Name, err)
		}
		return exec.QueryRow(ctx, countSQL, countArgs...).Scan(&total)
	})
	if err != nil {
		return query.Result[T]{}, repository.MapPgError(err)
	}
	return query.NewResult(items, total, qr), nil
}

// Update locks the row with SELECT ... FOR UPDATE so the patch always sees the latest version.
func (s *store[T]) Update(ctx context.Context, id int64, patch repository.PatchFunc[T]) (T, error) {
	var out T
	if err := ensurePool(s.pool); err != nil {
		return out, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exec := getQ(ctx, s.pool)
		current, err := s.getByID(ctx, exec, id, "FOR UPDATE")
		if err != nil {
			return err
		}
		next, err := patch(current)
		if err != nil {
			return err
		}
		next = next.Touch(s.now())

		values := s.table.Values(next)
		set := make(map[string]any, len(values))
		for i, col := range s.table.Columns {
			if col == "created_at" {
				continue
			}
			set[col] = values[i]
		}
		sqlStr, args, err := psql.Update(s.table.Name).
			SetMap(set).
			Where(sq.Eq{"id": id}).
			Suffix(s.returning()).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update %s: %w", s.table.Name, err)
		}
		out, err = s.table.Scan(exec.QueryRow(ctx, sqlStr, args...))
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (s *store[T]) Delete(ctx context.Context, id int64) error {
	if err := ensurePool(s.pool); err != nil {
		return err
	}
	sqlStr, args, err := psql.Delete(s.table.Name).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", s.table.Name, err)
	}
	tag, err := getQ(ctx, s.pool).Exec(ctx, sqlStr, args...)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
