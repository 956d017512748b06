package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/maxviazov/tayseer-service/internal/config"
	"github.com/maxviazov/tayseer-service/internal/handler"
	"github.com/maxviazov/tayseer-service/internal/repository"
	"github.com/maxviazov/tayseer-service/internal/repository/cached"
	"github.com/maxviazov/tayseer-service/internal/repository/memory"
	"github.com/maxviazov/tayseer-service/internal/repository/postgres"
	"github.com/maxviazov/tayseer-service/internal/repository/sqlite"
	"github.com/maxviazov/tayseer-service/internal/service"
	"github.com/maxviazov/tayseer-service/migrations"
)

// storage bundles the stores with the resources that must be released on shutdown.
type storage struct {
	stores  service.Stores
	checks  map[string]handler.Pinger
	redis   *redis.Client
	closers []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, l zerolog.Logger) (*storage, error) {
	st := &storage{checks: map[string]handler.Pinger{}}
	ok := false
	defer func() {
		if !ok {
			st.Close()
		}
	}()

	switch cfg.Storage.Driver {
	case "memory":
		st.stores = memoryStores()
	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = db.Close() })
		if err := migrations.Up(ctx, db, "sqlite", l); err != nil {
			return nil, err
		}
		st.stores = sqliteStores(db)
		st.checks["database"] = sqlite.NewPinger(db)
		l.Info().Str("path", cfg.Storage.SQLitePath).Msg("✅ SQLite database ready")
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Postgres, &l)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		db := stdlib.OpenDBFromPool(pool)
		st.closers = append(st.closers, func() { _ = db.Close() })
		if err := migrations.Up(ctx, db, "postgres", l); err != nil {
			return nil, err
		}
		st.stores = postgresStores(pool)
		st.checks["database"] = postgres.NewPinger(pool)
		l.Info().Str("host", cfg.Postgres.Host).Str("db", cfg.Postgres.DBName).Msg("✅ PostgreSQL connection established")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st.closers = append(st.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			// the cache fails open, so an unreachable redis only degrades readiness
			l.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable at startup")
		}
		st.redis = client
		st.stores = cachedStores(st.stores, client, time.Duration(cfg.Redis.TTL)*time.Second, l)
		st.checks["cache"] = cached.NewPinger(client)
	}

	ok = true
	return st, nil
}

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

func sqliteStores(db *sql.DB) service.Stores {
	return service.Stores{
		Customers: sqlite.NewStore(db, repository.Customers, nil),
		Products:  sqlite.NewStore(db, repository.Products, nil),
		Documents: sqlite.NewStore(db, repository.Documents, nil),
		Cases:     sqlite.NewStore(db, repository.Cases, nil),
		Contracts: sqlite.NewStore(db, repository.Contracts, nil),
		Audits:    sqlite.NewStore(db, repository.Audits, nil),
	}
}

func postgresStores(pool *pgxpool.Pool) service.Stores {
	return service.Stores{
		Customers: postgres.NewStore(pool, repository.Customers, nil),
		Products:  postgres.NewStore(pool, repository.Products, nil),
		Documents: postgres.NewStore(pool, repository.Documents, nil),
		Cases:     postgres.NewStore(pool, repository.Cases, nil),
		Contracts: postgres.NewStore(pool, repository.Contracts, nil),
		Audits:    postgres.NewStore(pool, repository.Audits, nil),
	}
}

// cachedStores puts a read-through redis layer in front of every store.
// All collections share one breaker: redis is either up or it is not.
func cachedStores(st service.Stores, client redis.Cmdable, ttl time.Duration, l zerolog.Logger) service.Stores {
	br := cached.NewBreaker("redis", 30*time.Second, l)
	return service.Stores{
		Customers: wrap(st.Customers, client, br, "customers", ttl, l),
		Products:  wrap(st.Products, client, br, "products", ttl, l),
		Documents: wrap(st.Documents, client, br, "documents", ttl, l),
		Cases:     wrap(st.Cases, client, br, "legal_cases", ttl, l),
		Contracts: wrap(st.Contracts, client, br, "contracts", ttl, l),
		Audits:    wrap(st.Audits, client, br, "compliance_audits", ttl, l),
	}
}

func wrap[T repository.Record[T]](next repository.Store[T], client redis.Cmdable, br *gobreaker.CircuitBreaker, name string, ttl time.Duration, l zerolog.Logger) repository.Store[T] {
	return cached.NewStore(next, client, br, "tayseer:"+name, ttl, l)
}
