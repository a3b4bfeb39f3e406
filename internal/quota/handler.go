package quota

import (
	"log/slog"
	"net/http"

	"github.com/divination-engine/arcana/internal/api"
	"github.com/divination-engine/arcana/internal/entitlement"
	"github.com/divination-engine/arcana/internal/identity"
)

// Handler exposes quota diagnostics for the authenticated user.
type Handler struct {
	limiter *Limiter
}

func NewHandler(limiter *Limiter) *Handler {
	return &Handler{limiter: limiter}
}

type UsageResponse struct {
	Tier           string `json:"tier"`
	DailyLimit     int    `json:"daily_limit"`
	Used           int64  `json:"used"`
	Remaining      int    `json:"remaining"`
	ResetInSeconds int    `json:"reset_in_seconds"`
}

// Usage handles GET /users/me/quota. It reads the current counter without
// incrementing it.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	principal := identity.FromContext(r.Context())
	if principal == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	tier := entitlement.ResolveOrFree(principal.Authorities())
	policy := entitlement.PolicyFor(tier)

	used, err := h.limiter.Usage(r.Context(), principal.Subject())
	if err != nil {
		slog.Warn("reading quota usage", "user_id", principal.Subject(), "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	resp := UsageResponse{
		Tier:       string(tier),
		DailyLimit: policy.DailyLimit,
		Used:       used,
		Remaining:  RemainingUnlimited,
	}
	if policy.DailyLimit != entitlement.Unlimited {
		remaining := policy.DailyLimit - int(used)
		if remaining < 0 {
			remaining = 0
		}
		resp.Remaining = remaining
		resp.ResetInSeconds = secondsUntilMidnightUTC(h.limiter.now().UTC())
	}

	api.JSON(w, http.StatusOK, resp)
}
