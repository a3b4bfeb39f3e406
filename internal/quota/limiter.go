package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/divination-engine/arcana/internal/entitlement"
	"github.com/divination-engine/arcana/internal/metrics"
)

const counterKeyPrefix = "rate_limit:interpretations"

// RemainingUnlimited is the Remaining value for tiers with no daily cap.
const RemainingUnlimited = -1

// Result is the outcome of a single rate-limit check. Produced fresh per
// check, never persisted.
type Result struct {
	Allowed        bool
	Remaining      int
	ResetInSeconds int
}

// Limiter decides allow/deny for one call against the per-tier daily quota.
// It holds no mutable state of its own; all contention lives in the counter
// store's atomic increment.
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Check applies the increment-first fixed-window algorithm. The call counts
// against quota the moment it is attempted, which closes the
// read-check-then-increment race; a rejected request still consumes one unit
// of a per-day counter, which is acceptable. Store outages fail open: quota
// enforcement is advisory while the backend is down.
func (l *Limiter) Check(ctx context.Context, userID string, tier entitlement.Tier) Result {
	policy := entitlement.PolicyFor(tier)

	// Unlimited tiers never touch the shared counter.
	if policy.DailyLimit == entitlement.Unlimited {
		slog.Debug("quota: unlimited tier, skipping counter", "user_id", userID, "tier", tier)
		return Result{Allowed: true, Remaining: RemainingUnlimited, ResetInSeconds: 0}
	}

	now := l.now().UTC()
	key := l.counterKey(userID, now)

	count, err := l.store.Increment(ctx, key)
	if err != nil {
		slog.Error("quota: counter store failure, failing open", "user_id", userID, "error", err)
		metrics.QuotaStoreFailures.Inc()
		return Result{Allowed: true, Remaining: 1, ResetInSeconds: 0}
	}

	reset := secondsUntilMidnightUTC(now)

	if count == 1 {
		// First increment of the day owns the TTL. Concurrent first
		// incrementers racing here is harmless: the expiry is idempotent.
		if err := l.store.Expire(ctx, key, time.Duration(reset)*time.Second); err != nil {
			// A missing TTL only risks the counter outliving its day,
			// never wrong throttling of the current day.
			slog.Warn("quota: setting counter expiry failed", "key", key, "error", err)
		}
	}

	if count > int64(policy.DailyLimit) {
		slog.Info("quota: daily limit exceeded",
			"user_id", userID, "tier", tier, "count", count, "limit", policy.DailyLimit)
		return Result{Allowed: false, Remaining: 0, ResetInSeconds: reset}
	}

	remaining := policy.DailyLimit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	slog.Debug("quota: check passed",
		"user_id", userID, "tier", tier, "count", count, "limit", policy.DailyLimit, "remaining", remaining)

	return Result{Allowed: true, Remaining: remaining, ResetInSeconds: reset}
}

// Usage returns the current day's counter value for diagnostics. It is never
// consulted for the allow/deny decision.
func (l *Limiter) Usage(ctx context.Context, userID string) (int64, error) {
	n, _, err := l.store.Get(ctx, l.counterKey(userID, l.now().UTC()))
	return n, err
}

func (l *Limiter) counterKey(userID string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s", counterKeyPrefix, userID, now.Format(time.DateOnly))
}

func secondsUntilMidnightUTC(now time.Time) int {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return int(midnight.Sub(now).Seconds())
}
