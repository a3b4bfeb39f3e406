package quota

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/divination-engine/arcana/internal/api"
	"github.com/divination-engine/arcana/internal/entitlement"
	"github.com/divination-engine/arcana/internal/events"
	"github.com/divination-engine/arcana/internal/identity"
	"github.com/divination-engine/arcana/internal/metrics"
)

// ExceededResponse is the 429 body returned when the daily quota is spent.
type ExceededResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	RetryAfter  int    `json:"retryAfter"`
	UpgradeHint string `json:"upgradeHint"`
}

// Gate guards the interpret route. It resolves the caller's tier from the
// request principal (degrading to FREE rather than rejecting), runs the
// rate-limit check, and either forwards with rate-limit headers attached or
// short-circuits with a structured 429.
type Gate struct {
	limiter   *Limiter
	publisher *events.Publisher
}

// NewGate creates a Gate. publisher may be nil; usage events are then
// skipped.
func NewGate(limiter *Limiter, publisher *events.Publisher) *Gate {
	return &Gate{limiter: limiter, publisher: publisher}
}

// Middleware applies the quota check in front of next.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := identity.FromContext(r.Context())
		if principal == nil {
			// Never consult the counter store without an identity.
			api.HandleError(w, api.ErrUnauthorized)
			return
		}

		userID := principal.Subject()
		tier := entitlement.ResolveOrFree(principal.Authorities())

		res := g.limiter.Check(r.Context(), userID, tier)
		if !res.Allowed {
			g.deny(w, r, userID, tier, res)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", formatRemaining(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(res.ResetInSeconds))
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, userID string, tier entitlement.Tier, res Result) {
	policy := entitlement.PolicyFor(tier)

	// Expected condition, not an error: log informational and count it.
	slog.Info("quota: request denied", "user_id", userID, "tier", tier, "retry_after", res.ResetInSeconds)
	metrics.QuotaDenials.WithLabelValues(string(tier)).Inc()

	if g.publisher != nil {
		g.publisher.PublishUsageEventAsync(events.UsageEvent{
			UserID:    userID,
			EventType: events.EventQuotaExceeded,
			Tier:      string(tier),
			Details:   fmt.Sprintf("daily limit %d reached", policy.DailyLimit),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(res.ResetInSeconds))
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(ExceededResponse{
		Error: "Rate limit exceeded",
		Message: fmt.Sprintf("Daily limit of %d interpretations exceeded for %s tier users",
			policy.DailyLimit, strings.ToLower(string(tier))),
		RetryAfter:  res.ResetInSeconds,
		UpgradeHint: policy.UpgradeHint,
	})
}

func formatRemaining(remaining int) string {
	if remaining == RemainingUnlimited {
		return "unlimited"
	}
	return strconv.Itoa(remaining)
}
