package tarot

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/divination-engine/arcana/internal/api"
	"github.com/divination-engine/arcana/internal/entitlement"
	"github.com/divination-engine/arcana/internal/identity"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

type InterpretRequest struct {
	ReadingID   string `json:"reading_id" validate:"required,uuid"`
	UserContext string `json:"user_context" validate:"max=1000"`
}

type InterpretResponse struct {
	ReadingID      string    `json:"reading_id"`
	Interpretation string    `json:"interpretation"`
	SpreadType     string    `json:"spread_type"`
	Tier           string    `json:"tier"`
	Timestamp      time.Time `json:"timestamp"`
}

// Interpret handles POST /tarot/interpret.
func (h *Handler) Interpret(w http.ResponseWriter, r *http.Request) {
	principal := identity.FromContext(r.Context())
	if principal == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	userID, err := uuid.Parse(principal.Subject())
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req InterpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	readingID, err := uuid.Parse(req.ReadingID)
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid reading_id"))
		return
	}

	// Strict resolution here: unlike the gate, which only throttles and may
	// safely assume FREE, the handler labels the interpretation with the
	// caller's tier and must not guess.
	tier, err := entitlement.Resolve(principal.Authorities())
	if err != nil {
		api.HandleError(w, api.ErrTierUnavailable)
		return
	}

	result, err := h.svc.Interpret(r.Context(), userID, readingID, tier, req.UserContext)
	if err != nil {
		slog.Error("interpreting reading", "reading_id", readingID, "error", err)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, InterpretResponse{
		ReadingID:      result.ReadingID.String(),
		Interpretation: result.Text,
		SpreadType:     result.SpreadType,
		Tier:           string(tier),
		Timestamp:      time.Now().UTC(),
	})
}
