package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mbuchner/liefertermin/internal/bootstrap"
	"github.com/mbuchner/liefertermin/internal/channel"
	"github.com/mbuchner/liefertermin/internal/controller"
	appDeadline "github.com/mbuchner/liefertermin/internal/deadline"
	"github.com/mbuchner/liefertermin/internal/infrastructure/observability"
	infraRedis "github.com/mbuchner/liefertermin/internal/infrastructure/redis"
	"github.com/mbuchner/liefertermin/internal/integration"
	"github.com/mbuchner/liefertermin/internal/repository/postgres"
	"github.com/mbuchner/liefertermin/internal/san6"
	"github.com/mbuchner/liefertermin/internal/service"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "liefertermin-api", "liefertermin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	orderRepo := postgres.NewOrderRepository(app.Pool)
	settingsRepo := postgres.NewSettingsRepository(app.Pool)
	auditRepo := postgres.NewAuditRepository(app.Pool)
	deadLetterRepo := postgres.NewDeadLetterRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- External channel clients ---
	channelsCfg := app.Config.Channels
	clients := channel.NewClientRegistry(
		channel.NewHTTPClient("san6", channelsCfg.San6.BaseURL, channelsCfg.San6.Timeout,
			observability.Component(app.Logger, "san6-client")),
		channel.NewHTTPClient("gambio", channelsCfg.Gambio.BaseURL, channelsCfg.Gambio.Timeout,
			observability.Component(app.Logger, "gambio-client")),
	)
	adapters := channel.NewRegistry(
		channel.NewSan6Adapter(),
		channel.NewShopwareAdapter(),
		channel.NewGambioAdapter(),
	)

	// --- Services ---
	syncCfg := app.Config.Sync
	resolver := appDeadline.NewResolver(orderRepo, settingsRepo,
		observability.Component(app.Logger, "deadline-resolver"))
	executor := integration.NewExecutor(auditRepo, deadLetterRepo,
		integration.Policy{MaxAttempts: syncCfg.MaxAttempts, BaseDelay: syncCfg.RetryBaseDelay},
		observability.Component(app.Logger, "integration"), app.Metrics)
	producer := infraRedis.NewStreamProducer(app.Redis)

	syncService := service.NewSyncService(service.SyncServiceDeps{
		Orders:      orderRepo,
		DeadLetters: deadLetterRepo,
		AuditLog:    auditRepo,
		Clients:     clients,
		Adapters:    adapters,
		Matcher:     san6.NewMatcher(observability.Component(app.Logger, "san6-matcher")),
		Resolver:    resolver,
		Executor:    executor,
		TxManager:   txManager,
		Locks: func(orderID string) service.Locker {
			return infraRedis.NewOrderLock(app.Redis, orderID, syncCfg.LockTTL)
		},
		Queue:   producer,
		Logger:  observability.Component(app.Logger, "sync-service"),
		Metrics: app.Metrics,
	})

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:           app.Pool,
		RedisClient:    app.Redis,
		Resolver:       resolver,
		SyncService:    syncService,
		DeadLetterRepo: deadLetterRepo,
		AuditRepo:      auditRepo,
		Metrics:        app.Metrics,
		ServerConfig:   app.Config.Server,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
