// Package cached decorates a repository.Store with a Redis read-through cache for single-record lookups.
// List results are never cached: their window depends on every write.
package cached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

type store[T repository.Record[T]] struct {
	next    repository.Store[T]
	client  redis.Cmdable
	breaker *gobreaker.CircuitBreaker
	prefix  string
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewBreaker trips after five consecutive Redis failures and probes again after cooldown.
// A cache miss is not a failure.
func NewBreaker(name string, cooldown time.Duration, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cache breaker state changed")
		},
	})
}

// NewStore wraps next. Keys are "<prefix>:<id>", with a "<prefix>:<id>:gen" counter that every
// write bumps so a read racing an update never caches the older version. Redis failures are logged and the
// call falls through to next, so the cache never turns into a source of errors. While the breaker
// is open Redis is skipped entirely. A nil breaker gets a private one.
func NewStore[T repository.Record[T]](next repository.Store[T], client redis.Cmdable, breaker *gobreaker.CircuitBreaker, prefix string, ttl time.Duration, logger zerolog.Logger) repository.Store[T] {
	l := logger.With().Str("component", "cache").Str("collection", prefix).Logger()
	if breaker == nil {
		breaker = NewBreaker("redis:"+prefix, 30*time.Second, l)
	}
	return &store[T]{
		next:    next,
		client:  client,
		breaker: breaker,
		prefix:  prefix,
		ttl:     ttl,
		logger:  l,
	}
}

// call runs fn behind the breaker.
func (s *store[T]) call(fn func() (any, error)) (any, error) {
	return s.breaker.Execute(fn)
}

func (s *store[T]) key(id int64) string { return fmt.Sprintf("%s:%d", s.prefix, id) }

func (s *store[T]) genKey(id int64) string { return s.key(id) + ":gen" }

func (s *store[T]) Create(ctx context.Context, e T) (T, error) {
	out, err := s.next.Create(ctx, e)
	if err != nil {
		return out, err
	}
	// ids are never reused, so a fresh record has no generation yet
	s.putIf(ctx, out, "0")
	return out, nil
}

func (s *store[T]) GetByID(ctx context.Context, id int64) (T, error) {
	gen, usable := "", false
	v, err := s.call(func() (any, error) { return s.client.MGet(ctx, s.key(id), s.genKey(id)).Result() })
	switch {
	case err == nil:
		vals := v.([]any)
		gen = generation(vals[1])
		usable = true
		if raw, ok := vals[0].(string); ok {
			var out T
			if uerr := json.Unmarshal([]byte(raw), &out); uerr == nil {
				return out, nil
			}
			s.logger.Warn().Int64("id", id).Msg("dropping undecodable cache entry")
			s.invalidate(ctx, id)
			usable = false
		}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Debug().Int64("id", id).Msg("cache bypassed, breaker open")
	default:
		s.logger.Warn().Err(err).Int64("id", id).Msg("cache read failed")
	}

	out, err := s.next.GetByID(ctx, id)
	if err != nil {
		return out, err
	}
	if usable {
		s.putIf(ctx, out, gen)
	}
	return out, nil
}

func (s *store[T]) List(ctx context.Context, q query.Query) (query.Result[T], error) {
	return s.next.List(ctx, q)
}

func (s *store[T]) Update(ctx context.Context, id int64, patch repository.PatchFunc[T]) (T, error) {
	out, err := s.next.Update(ctx, id, patch)
	if err != nil {
		return out, err
	}
	// concurrent updates may finish out of order; the next read repopulates
	s.invalidate(ctx, id)
	return out, nil
}

func (s *store[T]) Delete(ctx context.Context, id int64) error {
	err := s.next.Delete(ctx, id)
	s.invalidate(ctx, id)
	return err
}

// putScript sets KEYS[1] only while the generation in KEYS[2] still equals ARGV[1].
var putScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// putIf caches e unless a writer bumped its generation after gen was read.
func (s *store[T]) putIf(ctx context.Context, e T, gen string) {
	raw, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn().Err(err).Int64("id", e.Key()).Msg("cache encode failed")
		return
	}
	keys := []string{s.key(e.Key()), s.genKey(e.Key())}
	v, err := s.call(func() (any, error) {
		return putScript.Run(ctx, s.client, keys, gen, raw, s.ttl.Milliseconds()).Int()
	})
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Int64("id", e.Key()).Msg("cache write failed")
	case v.(int) == 0:
		s.logger.Debug().Int64("id", e.Key()).Msg("cache write skipped, record changed meanwhile")
	}
}

// invalidate bumps the record's generation and drops its entry. It skips the breaker: a write
// that cannot reach Redis must still try, or the old entry outlives the breaker's cooldown.
func (s *store[T]) invalidate(ctx context.Context, id int64) {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, s.genKey(id))
		p.PExpire(ctx, s.genKey(id), s.genTTL())
		p.Del(ctx, s.key(id))
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("id", id).Msg("cache invalidate failed")
	}
}

// genTTL outlives any entry cached under the previous generation.
func (s *store[T]) genTTL() time.Duration { return 2 * s.ttl }

func generation(v any) string {
	if g, ok := v.(string); ok {
		return g
	}
	return "0"
}

type pinger struct{ client redis.Cmdable }

// NewPinger reports Redis reachability for readiness checks.
func NewPinger(client redis.Cmdable) repository.Pinger { return pinger{client: client} }

func (p pinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }
