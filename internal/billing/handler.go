package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/divination-engine/arcana/internal/api"
	"github.com/divination-engine/arcana/internal/config"
	"github.com/divination-engine/arcana/internal/entitlement"
	"github.com/divination-engine/arcana/internal/users"
)

// maxWebhookBody caps webhook payload size.
const maxWebhookBody = 1 << 20

// dedupeTTL is how long processed event IDs are remembered.
const dedupeTTL = 24 * time.Hour

// SignatureHeader carries the Polar webhook signature.
const SignatureHeader = "Polar-Signature"

var upgradeStatuses = map[string]bool{
	"active":   true,
	"trialing": true,
}

var downgradeStatuses = map[string]bool{
	"canceled":   true,
	"revoked":    true,
	"unpaid":     true,
	"past_due":   true,
	"incomplete": true,
	"paused":     true,
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Customer struct {
			ExternalID string `json:"external_id"`
		} `json:"customer"`
		Product struct {
			ID string `json:"id"`
		} `json:"product"`
	} `json:"data"`
}

// Handler processes billing provider webhooks and adjusts user tiers.
type Handler struct {
	users       *users.Service
	rdb         redis.Cmdable
	secret      string
	productTier map[string]entitlement.Tier
	now         func() time.Time
}

func NewHandler(userSvc *users.Service, rdb redis.Cmdable, cfg config.PolarConfig) *Handler {
	productTier := map[string]entitlement.Tier{}
	if cfg.ProductIDBasic != "" {
		productTier[cfg.ProductIDBasic] = entitlement.TierBasic
	}
	if cfg.ProductIDPremium != "" {
		productTier[cfg.ProductIDPremium] = entitlement.TierPremium
	}
	return &Handler{
		users:       userSvc,
		rdb:         rdb,
		secret:      cfg.WebhookSecret,
		productTier: productTier,
		now:         time.Now,
	}
}

// Webhook handles POST /webhooks/polar. The signature is verified against the
// raw body before any JSON parsing.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if !VerifySignature(body, r.Header.Get(SignatureHeader), h.secret, h.now()) {
		api.JSONErrorMessage(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid JSON payload"))
		return
	}

	if event.Data.ID != "" {
		fresh, err := h.rdb.SetNX(r.Context(), "webhook:polar:"+event.Data.ID, 1, dedupeTTL).Result()
		if err != nil {
			slog.Warn("webhook dedupe check failed", "event_id", event.Data.ID, "error", err)
		} else if !fresh {
			slog.Info("duplicate webhook event ignored", "event_id", event.Data.ID)
			api.JSON(w, http.StatusOK, map[string]bool{"received": true, "duplicate": true})
			return
		}
	}

	switch event.Type {
	case "subscription.created", "subscription.updated":
		if err := h.applySubscription(r, &event); err != nil {
			slog.Error("processing billing webhook", "event_type", event.Type, "error", err)
			api.HandleError(w, api.ErrInternalServer)
			return
		}
	default:
		slog.Info("unhandled webhook event type", "event_type", event.Type)
	}

	api.JSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) applySubscription(r *http.Request, event *webhookEvent) error {
	userID, err := uuid.Parse(event.Data.Customer.ExternalID)
	if err != nil {
		slog.Warn("webhook missing or invalid customer external_id")
		return nil
	}

	status := event.Data.Status
	if status == "" {
		status = "active"
	}

	var tier entitlement.Tier
	switch {
	case event.Type == "subscription.created" || upgradeStatuses[status]:
		var ok bool
		tier, ok = h.productTier[event.Data.Product.ID]
		if !ok {
			slog.Warn("unknown product in webhook, defaulting to FREE", "product_id", event.Data.Product.ID)
			tier = entitlement.TierFree
		}
	case downgradeStatuses[status]:
		tier = entitlement.TierFree
	default:
		slog.Warn("unrecognized subscription status", "status", status)
		return nil
	}

	err = h.users.ChangeTier(r.Context(), userID, tier)
	if errors.Is(err, pgx.ErrNoRows) {
		slog.Warn("user not found for billing webhook", "user_id", userID)
		return nil
	}
	if err == nil {
		slog.Info("user tier updated from billing webhook", "user_id", userID, "tier", tier)
	}
	return err
}
