// Package quota enforces per-tier daily usage limits against a shared
// Redis counter, and provides the HTTP gate that applies them.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps any counter store failure so callers can treat
// outages as a single distinguished condition.
var ErrStoreUnavailable = errors.New("quota: counter store unavailable")

// CounterStore is the narrow contract the limiter needs from a shared
// counter backend. Increment must be a single atomic round trip; the
// allow/deny decision depends on it being race-free across concurrent
// callers. Get is diagnostic only and must never feed the decision.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Get(ctx context.Context, key string) (int64, bool, error)
}

// RedisCounterStore implements CounterStore on a Redis client. It does not
// retry; transient failures surface as ErrStoreUnavailable and the limiter's
// fail-open policy absorbs them.
type RedisCounterStore struct {
	rdb redis.Cmdable
}

func NewRedisCounterStore(rdb redis.Cmdable) *RedisCounterStore {
	return &RedisCounterStore{rdb: rdb}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: INCR %s: %v", ErrStoreUnavailable, key, err)
	}
	return n, nil
}

func (s *RedisCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("%w: EXPIRE %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *RedisCounterStore) Get(ctx context.Context, key string) (int64, bool, error) {
	n, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: GET %s: %v", ErrStoreUnavailable, key, err)
	}
	return n, true, nil
}
