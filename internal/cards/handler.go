package cards

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/divination-engine/arcana/internal/api"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.List(r.Context())
	if err != nil {
		slog.Error("listing cards", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, cards)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "cardID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid card ID"))
		return
	}

	card, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("getting card", "error", err, "card_id", id)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if card == nil {
		api.HandleError(w, api.NewNotFoundError("card not found"))
		return
	}

	api.JSON(w, http.StatusOK, card)
}

// DrawResponse pairs a card with its orientation within the draw.
type DrawResponse struct {
	Card     Card `json:"card"`
	Position int  `json:"position"`
	Reversed bool `json:"reversed"`
}

func (h *Handler) Draw(w http.ResponseWriter, r *http.Request) {
	count := 3
	if c := r.URL.Query().Get("count"); c != "" {
		parsed, err := strconv.Atoi(c)
		if err != nil || parsed < 1 || parsed > DeckSize {
			api.HandleError(w, api.NewBadRequestError("count must be between 1 and 78"))
			return
		}
		count = parsed
	}

	drawn, reversed, err := h.svc.Draw(r.Context(), count)
	if err != nil {
		slog.Error("drawing cards", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	out := make([]DrawResponse, len(drawn))
	for i, c := range drawn {
		out[i] = DrawResponse{Card: c, Position: i + 1, Reversed: reversed[i]}
	}

	api.JSON(w, http.StatusOK, out)
}
