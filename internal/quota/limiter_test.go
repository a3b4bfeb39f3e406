package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divination-engine/arcana/internal/entitlement"
)

// countingStore wraps a CounterStore and records how often it is hit.
type countingStore struct {
	inner CounterStore
	calls atomic.Int64
}

func (c *countingStore) Increment(ctx context.Context, key string) (int64, error) {
	c.calls.Add(1)
	return c.inner.Increment(ctx, key)
}

func (c *countingStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	c.calls.Add(1)
	return c.inner.Expire(ctx, key, ttl)
}

func (c *countingStore) Get(ctx context.Context, key string) (int64, bool, error) {
	c.calls.Add(1)
	return c.inner.Get(ctx, key)
}

// failingStore always reports the backend as down.
type failingStore struct{}

func (failingStore) Increment(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("%w: connection refused", ErrStoreUnavailable)
}

func (failingStore) Expire(context.Context, string, time.Duration) error {
	return fmt.Errorf("%w: connection refused", ErrStoreUnavailable)
}

func (failingStore) Get(context.Context, string) (int64, bool, error) {
	return 0, false, fmt.Errorf("%w: connection refused", ErrStoreUnavailable)
}

func newTestLimiter(t *testing.T, at time.Time) *Limiter {
	t.Helper()
	_, rdb := setupMiniredis(t)
	l := NewLimiter(NewRedisCounterStore(rdb))
	l.now = func() time.Time { return at }
	return l
}

func TestLimiter_FreeTierExhaustion(t *testing.T) {
	l := newTestLimiter(t, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	userID := uuid.NewString()

	// FREE allows 3 per day; remaining counts down 2, 1, 0.
	for want := 2; want >= 0; want-- {
		res := l.Check(ctx, userID, entitlement.TierFree)
		assert.True(t, res.Allowed)
		assert.Equal(t, want, res.Remaining)
		assert.Positive(t, res.ResetInSeconds)
	}

	// Fourth call is denied.
	res := l.Check(ctx, userID, entitlement.TierFree)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Positive(t, res.ResetInSeconds)
}

func TestLimiter_BasicTierBoundary(t *testing.T) {
	l := newTestLimiter(t, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	userID := uuid.NewString()

	for i := 0; i < 19; i++ {
		res := l.Check(ctx, userID, entitlement.TierBasic)
		require.True(t, res.Allowed)
	}

	// 20th call is the last allowed one.
	res := l.Check(ctx, userID, entitlement.TierBasic)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	res = l.Check(ctx, userID, entitlement.TierBasic)
	assert.False(t, res.Allowed)
}

func TestLimiter_UnlimitedTiersSkipStore(t *testing.T) {
	_, rdb := setupMiniredis(t)
	store := &countingStore{inner: NewRedisCounterStore(rdb)}
	l := NewLimiter(store)
	ctx := context.Background()

	for _, tier := range []entitlement.Tier{entitlement.TierPremium, entitlement.TierPro} {
		for i := 0; i < 50; i++ {
			res := l.Check(ctx, uuid.NewString(), tier)
			assert.True(t, res.Allowed)
			assert.Equal(t, RemainingUnlimited, res.Remaining)
			assert.Zero(t, res.ResetInSeconds)
		}
	}

	assert.Zero(t, store.calls.Load(), "unlimited tiers must never touch the counter store")
}

func TestLimiter_UnrecognizedTierThrottledLikeFree(t *testing.T) {
	l := newTestLimiter(t, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	userID := uuid.NewString()

	for i := 0; i < 3; i++ {
		res := l.Check(ctx, userID, entitlement.Tier("GOLD"))
		require.True(t, res.Allowed)
	}

	res := l.Check(ctx, userID, entitlement.Tier("GOLD"))
	assert.False(t, res.Allowed)
}

func TestLimiter_CounterKeyAndTTL(t *testing.T) {
	now := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	mr, rdb := setupMiniredis(t)
	l := NewLimiter(NewRedisCounterStore(rdb))
	l.now = func() time.Time { return now }
	ctx := context.Background()

	res := l.Check(ctx, "user-1", entitlement.TierFree)
	require.True(t, res.Allowed)

	key := "rate_limit:interpretations:user-1:2026-03-15"
	require.True(t, mr.Exists(key), "counter key should use the UTC calendar date")

	// One hour to midnight UTC.
	assert.Equal(t, 3600, res.ResetInSeconds)
	assert.Equal(t, time.Hour, mr.TTL(key))

	// Subsequent increments must not reset the TTL.
	mr.FastForward(30 * time.Minute)
	l.now = func() time.Time { return now.Add(30 * time.Minute) }
	_ = l.Check(ctx, "user-1", entitlement.TierFree)
	assert.Equal(t, 30*time.Minute, mr.TTL(key))
}

func TestLimiter_SeparateDaysSeparateCounters(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	l := NewLimiter(NewRedisCounterStore(rdb))
	ctx := context.Background()

	l.now = func() time.Time { return time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC) }
	for i := 0; i < 4; i++ {
		_ = l.Check(ctx, "user-1", entitlement.TierFree)
	}
	res := l.Check(ctx, "user-1", entitlement.TierFree)
	require.False(t, res.Allowed)

	// Crossing UTC midnight starts a fresh window.
	l.now = func() time.Time { return time.Date(2026, 3, 16, 0, 1, 0, 0, time.UTC) }
	res = l.Check(ctx, "user-1", entitlement.TierFree)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)

	assert.True(t, mr.Exists("rate_limit:interpretations:user-1:2026-03-15"))
	assert.True(t, mr.Exists("rate_limit:interpretations:user-1:2026-03-16"))
}

func TestLimiter_FailsOpenOnStoreOutage(t *testing.T) {
	l := NewLimiter(failingStore{})
	ctx := context.Background()

	res := l.Check(ctx, uuid.NewString(), entitlement.TierFree)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
	assert.Zero(t, res.ResetInSeconds)
}

func TestLimiter_ConcurrentChecksNeverOverAdmit(t *testing.T) {
	l := newTestLimiter(t, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	userID := uuid.NewString()

	const workers = 21 // BASIC limit + 1

	var wg sync.WaitGroup
	var allowed atomic.Int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check(ctx, userID, entitlement.TierBasic).Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), allowed.Load())
}

func TestLimiter_Usage(t *testing.T) {
	l := newTestLimiter(t, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	n, err := l.Usage(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	_ = l.Check(ctx, "user-1", entitlement.TierFree)
	_ = l.Check(ctx, "user-1", entitlement.TierFree)

	n, err = l.Usage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLimiter_UsageStoreError(t *testing.T) {
	l := NewLimiter(failingStore{})
	_, err := l.Usage(context.Background(), "user-1")
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
}
