package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/divination-engine/arcana/internal/database"
	"github.com/divination-engine/arcana/internal/events"
	mw "github.com/divination-engine/arcana/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Auth handlers
	Register http.HandlerFunc
	Login    http.HandlerFunc
	Refresh  http.HandlerFunc
	Logout   http.HandlerFunc

	// Card handlers
	ListCards http.HandlerFunc
	GetCard   http.HandlerFunc
	DrawCards http.HandlerFunc

	// Reading handlers
	CreateReading http.HandlerFunc
	ListReadings  http.HandlerFunc
	GetReading    http.HandlerFunc
	DeleteReading http.HandlerFunc

	// Interpretation handler, guarded by the access gate
	Interpret http.HandlerFunc

	// Quota and audit
	QuotaUsage http.HandlerFunc
	ListAudit  http.HandlerFunc

	// Billing webhook
	PolarWebhook http.HandlerFunc

	// Middleware
	AuthMiddleware func(http.Handler) http.Handler
	// OptionalAuthMiddleware attaches a principal when a token is
	// presented but admits anonymous requests.
	OptionalAuthMiddleware func(http.Handler) http.Handler
	GateMiddleware         func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	AuthRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, eventsClient *events.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks DB and the event stream
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"events":   "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if eventsClient != nil && !eventsClient.Healthy() {
			health["events"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if eventsClient == nil {
			health["events"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Billing webhooks are authenticated by signature, not by bearer token.
	r.Post("/webhooks/polar", h.PolarWebhook)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public) — optionally rate-limited
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthRateLimiter != nil {
				r.Use(cfg.AuthRateLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Post("/logout", h.Logout)
			})
		})

		// Deck routes (public)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", h.ListCards)
			r.Get("/{cardID}", h.GetCard)
			r.Post("/draw", h.DrawCards)
		})

		// Anonymous visitors may draw and store a reading; it stays
		// unowned until an authenticated user interprets it.
		r.Group(func(r chi.Router) {
			r.Use(h.OptionalAuthMiddleware)
			r.Post("/readings", h.CreateReading)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/readings", h.ListReadings)
			r.Get("/readings/{readingID}", h.GetReading)
			r.Delete("/readings/{readingID}", h.DeleteReading)

			// The interpret route sits behind the access gate: tier limits
			// are checked, and the daily counter incremented, before the
			// handler runs.
			r.Group(func(r chi.Router) {
				r.Use(h.GateMiddleware)
				r.Post("/tarot/interpret", h.Interpret)
			})

			r.Get("/users/me/quota", h.QuotaUsage)
			r.Get("/users/me/audit", h.ListAudit)
		})
	})

	return r
}
