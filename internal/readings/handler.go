package readings

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/divination-engine/arcana/internal/api"
	"github.com/divination-engine/arcana/internal/cards"
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

type CreateReadingRequest struct {
	Question   string            `json:"question" validate:"required,max=500"`
	SpreadType string            `json:"spread_type" validate:"required"`
	Cards      []cards.DrawnCard `json:"cards" validate:"required,min=1,max=10,dive"`
}

// Create accepts both authenticated and anonymous callers. An anonymous
// reading has no owner until an authenticated user interprets it.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var userID *uuid.UUID
	if principal := identity.FromContext(r.Context()); principal != nil {
		id, err := uuid.Parse(principal.Subject())
		if err != nil {
			api.HandleError(w, api.ErrUnauthorized)
			return
		}
		userID = &id
	}

	var req CreateReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	if !ValidSpread(req.SpreadType) {
		api.HandleError(w, api.NewBadRequestError("unsupported spread type: "+req.SpreadType))
		return
	}

	reading, err := h.svc.Create(r.Context(), userID, req.Question, req.SpreadType, req.Cards)
	if err != nil {
		slog.Error("creating reading", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, reading)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	params := DefaultListParams()
	if p := r.URL.Query().Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil && page > 0 {
			params.Page = page
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if pageSize, err := strconv.Atoi(ps); err == nil && pageSize > 0 && pageSize <= 100 {
			params.PageSize = pageSize
		}
	}

	list, total, err := h.svc.ListByUser(r.Context(), userID, params)
	if err != nil {
		slog.Error("listing readings", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONPaginated(w, http.StatusOK, list, total, params.Page, params.PageSize)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	_, reading, ok := h.ownedReading(w, r)
	if !ok {
		return
	}

	api.JSON(w, http.StatusOK, reading)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, reading, ok := h.ownedReading(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), reading.ID); err != nil {
		slog.Error("deleting reading", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "reading deleted")
}

// ownedReading loads the reading from the URL and enforces ownership.
func (h *Handler) ownedReading(w http.ResponseWriter, r *http.Request) (uuid.UUID, *Reading, bool) {
	userID, ok := callerID(w, r)
	if !ok {
		return uuid.Nil, nil, false
	}

	readingID, err := uuid.Parse(chi.URLParam(r, "readingID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid reading ID"))
		return uuid.Nil, nil, false
	}

	reading, err := h.svc.GetByID(r.Context(), readingID)
	if err != nil {
		slog.Error("fetching reading", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return uuid.Nil, nil, false
	}
	if reading == nil {
		api.HandleError(w, api.NewNotFoundError("reading not found"))
		return uuid.Nil, nil, false
	}

	if reading.UserID == nil || *reading.UserID != userID {
		api.HandleError(w, api.ErrNotReadingOwner)
		return uuid.Nil, nil, false
	}

	return userID, reading, true
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	principal := identity.FromContext(r.Context())
	if principal == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(principal.Subject())
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}
