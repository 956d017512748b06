// Package sqlite persists collections in an embedded SQLite database through modernc.org/sqlite.
// It shares table descriptors and list statements with the Postgres store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

// Open opens (creating if needed) the database at path. ":memory:" gives a private in-process database.
// A single connection serializes writers, which is what SQLite wants anyway and keeps
// read-modify-write transactions from interleaving.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return db, nil
}

// mapError translates SQLite constraint failures into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return repository.ErrAlreadyExists
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_CHECK:
			return repository.ErrConflict
		}
	}
	return err
}

// execer is implemented by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type store[T repository.Record[T]] struct {
	db    *sql.DB
	table repository.Table[T]
	now   repository.Clock
}

// NewStore returns a repository.Store backed by table t.
func NewStore[T repository.Record[T]](db *sql.DB, t repository.Table[T], now repository.Clock) repository.Store[T] {
	if now == nil {
		now = repository.UTCNow
	}
	return &store[T]{db: db, table: t, now: now}
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func (s *store[T]) returning() string {
	return "RETURNING " + strings.Join(s.table.SelectColumns(), ", ")
}

func (s *store[T]) Create(ctx context.Context, e T) (T, error) {
	var zero T
	e = e.Stamp(0, s.now())
	sqlStr, args, err := builder.Insert(s.table.Name).
		Columns(s.table.Columns...).
		Values(s.table.Values(e)...).
		Suffix(s.returning()).
		ToSql()
	if err != nil {
		return zero, fmt.Errorf("build insert %s: %w", s.table.Name, err)
	}
	out, err := s.table.Scan(s.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return zero, mapError(err)
	}
	return out, nil
}

func (s *store[T]) GetByID(ctx context.Context, id int64) (T, error) {
	return s.getByID(ctx, s.db, id)
}

func (s *store[T]) getByID(ctx context.Context, exec execer, id int64) (T, error) {
	var zero T
	sqlStr, args, err := builder.Select(s.table.SelectColumns()...).
		From(s.table.Name).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return zero, fmt.Errorf("build select %s: %w", s.table.Name, err)
	}
	out, err := s.table.Scan(exec.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, repository.ErrNotFound
		}
		return zero, mapError(err)
	}
	return out, nil
}

// List reads the page and its window total in one statement. Only an empty page needs the
// separate count; both run in one transaction so a concurrent write cannot land between them.
func (s *store[T]) List(ctx context.Context, q query.Query) (query.Result[T], error) {
	q = query.Normalize(q)
	countB, pageB := repository.ListStatements(s.table, q, sq.Question)

	pageSQL, pageArgs, err := pageB.ToSql()
	if err != nil {
		return query.Result[T]{}, fmt.Errorf("build page %s: %w", s.table.Name, err)
	}
	countSQL, countArgs, err := countB.ToSql()
	if err != nil {
		return query.Result[T]{}, fmt.Errorf("build count %s: %w", s.table.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return query.Result[T]{}, mapError(err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return query.Result[T]{}, mapError(err)
	}
	defer rows.Close()
	var total int
	items := make([]T, 0, q.Limit)
	for rows.Next() {
		it, err := s.table.Scan(repository.WindowScanner{Row: rows, Total: &total})
		if err != nil {
			return query.Result[T]{}, mapError(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return query.Result[T]{}, mapError(err)
	}
	if err := rows.Close(); err != nil {
		return query.Result[T]{}, mapError(err)
	}

	if len(items) == 0 {
		if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return query.Result[T]{}, mapError(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return query.Result[T]{}, mapError(err)
	}
	return query.NewResult(items, total, q), nil
}

func (s *store[T]) Update(ctx context.Context, id int64, patch repository.PatchFunc[T]) (T, error) {
	var zero T
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, mapError(err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.getByID(ctx, tx, id)
	if err != nil {
		return zero, err
	}
	next, err := patch(current)
	if err != nil {
		return zero, err
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
	sqlStr, args, err := builder.Update(s.table.Name).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix(s.returning()).
		ToSql()
	if err != nil {
		return zero, fmt.Errorf("build update %s: %w", s.table.Name, err)
	}
	out, err := s.table.Scan(tx.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return zero, mapError(err)
	}
	if err := tx.Commit(); err != nil {
		return zero, mapError(err)
	}
	return out, nil
}

func (s *store[T]) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := builder.Delete(s.table.Name).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", s.table.Name, err)
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type pinger struct{ db *sql.DB }

// NewPinger adapts *sql.DB to the repository.Pinger interface.
func NewPinger(db *sql.DB) repository.Pinger { return &pinger{db: db} }

func (p *pinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
