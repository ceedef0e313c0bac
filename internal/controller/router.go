package controller

import (
	"time"

	appDeadline "github.com/mbuchner/liefertermin/internal/deadline"
	"github.com/mbuchner/liefertermin/internal/domain/audit"
	"github.com/mbuchner/liefertermin/internal/domain/deadletter"
	"github.com/mbuchner/liefertermin/internal/infrastructure/config"
	"github.com/mbuchner/liefertermin/internal/infrastructure/observability"
	customMW "github.com/mbuchner/liefertermin/internal/middleware"
	"github.com/mbuchner/liefertermin/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Pool           *pgxpool.Pool
	RedisClient    *redis.Client
	Resolver       *appDeadline.Resolver
	SyncService    *service.SyncService
	DeadLetterRepo deadletter.Repository
	AuditRepo      audit.Repository
	Metrics        *observability.Metrics
	ServerConfig   config.ServerConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Correlation())
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.ServerConfig.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", CorrelationHeaderName},
		ExposedHeaders:   []string{CorrelationHeaderName},
		AllowCredentials: deps.ServerConfig.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	if deps.ServerConfig.RateLimitPerMin > 0 {
		r.Use(customMW.RateLimit(deps.ServerConfig.RateLimitPerMin))
	}
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	orderH := NewOrderController(deps.Resolver, deps.SyncService)
	opsH := NewOpsController(deps.DeadLetterRepo, deps.AuditRepo, deps.SyncService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Orders
		r.Get("/orders/{id}/deadlines", orderH.GetDeadlines)
		r.Post("/orders/{id}/sync", orderH.EnqueueSync)
		r.Post("/orders/{id}/sync/now", orderH.SyncNow)

		// Operations
		r.Get("/dead-letters", opsH.ListDeadLetters)
		r.Get("/dead-letters/{id}", opsH.GetDeadLetter)
		r.Post("/dead-letters/{id}/replay", opsH.ReplayDeadLetter)
		r.Get("/audit", opsH.ListAuditEntries)
	})

	return r
}

// CorrelationHeaderName re-exports the middleware constant for CORS
// configuration.
const CorrelationHeaderName = customMW.CorrelationHeader
