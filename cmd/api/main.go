package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/divination-engine/arcana/internal/api"
	"github.com/divination-engine/arcana/internal/audit"
	"github.com/divination-engine/arcana/internal/auth"
	"github.com/divination-engine/arcana/internal/billing"
	"github.com/divination-engine/arcana/internal/cards"
	"github.com/divination-engine/arcana/internal/config"
	"github.com/divination-engine/arcana/internal/database"
	"github.com/divination-engine/arcana/internal/events"
	"github.com/divination-engine/arcana/internal/middleware"
	"github.com/divination-engine/arcana/internal/quota"
	"github.com/divination-engine/arcana/internal/readings"
	iredis "github.com/divination-engine/arcana/internal/redis"
	"github.com/divination-engine/arcana/internal/server"
	"github.com/divination-engine/arcana/internal/tarot"
	"github.com/divination-engine/arcana/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// PostgreSQL
	if err := database.RunMigrations(cfg.DB.DSN(), "migrations"); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS JetStream (optional)
	var eventsClient *events.Client
	var publisher *events.Publisher
	if cfg.NATS.Enabled {
		eventsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to nats", "error", err)
			os.Exit(1)
		}
		defer eventsClient.Close()
		publisher = events.NewPublisher(eventsClient.JetStream())
	}

	// Auth
	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authSvc := auth.NewService(jwtManager, redisClient)
	userRepo := users.NewRepository(pool)
	userSvc := users.NewService(userRepo)
	authHandler := auth.NewHandler(authSvc, userSvc)

	// Deck and readings
	cardRepo := cards.NewRepository(pool)
	cardSvc := cards.NewService(cardRepo)
	cardHandler := cards.NewHandler(cardSvc)

	readingRepo := readings.NewRepository(pool)
	readingSvc := readings.NewService(readingRepo)
	readingHandler := readings.NewHandler(readingSvc)

	// Quota enforcement
	store := quota.NewRedisCounterStore(redisClient)
	limiter := quota.NewLimiter(store)
	gate := quota.NewGate(limiter, publisher)
	quotaHandler := quota.NewHandler(limiter)

	// Interpretation
	generator := tarot.NewOpenAIGenerator(cfg.LLM)
	tarotSvc := tarot.NewService(readingRepo, cardRepo, generator, publisher, slog.Default())
	tarotHandler := tarot.NewHandler(tarotSvc)

	// Billing
	billingHandler := billing.NewHandler(userSvc, redisClient, cfg.Polar)

	// Audit trail, fed from the usage event stream
	auditRepo := audit.NewRepository(pool)
	auditHandler := audit.NewHandler(auditRepo)
	if eventsClient != nil {
		consumer := audit.NewConsumer(auditRepo, events.NewConsumerManager(eventsClient.JetStream()))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("audit consumer stopped", "error", err)
			}
		}()
	}

	// Per-IP limiter for the public auth endpoints
	authLimiter := middleware.NewIPRateLimiter(redisClient, 10, 60)

	router := api.NewRouter(pool, eventsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthRateLimiter:    authLimiter.Middleware,
	}, api.HandlerSet{
		Register: authHandler.Register,
		Login:    authHandler.Login,
		Refresh:  authHandler.Refresh,
		Logout:   authHandler.Logout,

		ListCards: cardHandler.List,
		GetCard:   cardHandler.Get,
		DrawCards: cardHandler.Draw,

		CreateReading: readingHandler.Create,
		ListReadings:  readingHandler.List,
		GetReading:    readingHandler.Get,
		DeleteReading: readingHandler.Delete,

		Interpret: tarotHandler.Interpret,

		QuotaUsage: quotaHandler.Usage,
		ListAudit:  auditHandler.List,

		PolarWebhook: billingHandler.Webhook,

		AuthMiddleware:         auth.Middleware(authSvc),
		OptionalAuthMiddleware: auth.OptionalMiddleware(authSvc),
		GateMiddleware:         gate.Middleware,
	})

	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
