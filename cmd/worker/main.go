package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbuchner/liefertermin/internal/bootstrap"
	"github.com/mbuchner/liefertermin/internal/channel"
	appDeadline "github.com/mbuchner/liefertermin/internal/deadline"
	"github.com/mbuchner/liefertermin/internal/infrastructure/observability"
	infraRedis "github.com/mbuchner/liefertermin/internal/infrastructure/redis"
	"github.com/mbuchner/liefertermin/internal/integration"
	"github.com/mbuchner/liefertermin/internal/repository/postgres"
	"github.com/mbuchner/liefertermin/internal/san6"
	"github.com/mbuchner/liefertermin/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "liefertermin-worker", "liefertermin_worker")
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

	// --- Sync stream consumer ---
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.SyncStream,
		syncCfg.ConsumerGroup,
		app.Config.InstanceID,
		syncCfg.BatchSize,
		syncCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	app.Logger.Info().
		Str("stream", infraRedis.SyncStream).
		Str("group", syncCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	// Signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Sync job processor (reads from Redis Streams).
	g.Go(func() error {
		return runSyncProcessor(gCtx, app.Logger, consumer, syncService, app)
	})

	// 2. Pending-order scanner (enqueues orders that were never synced).
	g.Go(func() error {
		return runPendingScanner(gCtx, app.Logger, syncService, syncCfg.PollInterval, int(syncCfg.BatchSize))
	})

	// 3. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

func runPendingScanner(
	ctx context.Context,
	logger zerolog.Logger,
	syncService *service.SyncService,
	pollInterval time.Duration,
	batchSize int,
) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		// san6 is the authoritative system for orders that were never
		// reconciled.
		enqueued, err := syncService.EnqueuePending(ctx, "san6", batchSize)
		if err != nil {
			logger.Error().Err(err).Msg("Pending scanner error")
			continue
		}
		if enqueued > 0 {
			logger.Info().Int("enqueued", enqueued).Msg("Enqueued pending orders")
		}
	}
}

func runSyncProcessor(
	ctx context.Context,
	logger zerolog.Logger,
	consumer *infraRedis.StreamConsumer,
	syncService *service.SyncService,
	app *bootstrap.App,
) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := consumer.Read(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				job, err := infraRedis.ParseSyncJob(msg)
				if err != nil {
					logger.Error().Err(err).Str("message_id", msg.ID).Msg("Invalid sync job in stream message")
					consumer.Ack(ctx, msg.ID)
					continue
				}

				orderID, err := uuid.Parse(job.OrderID)
				if err != nil {
					logger.Error().Str("raw", job.OrderID).Msg("Invalid order ID in sync job")
					consumer.Ack(ctx, msg.ID)
					continue
				}

				jobCtx := ctx
				if job.CorrelationID != "" {
					jobCtx = integration.WithCorrelationID(ctx, job.CorrelationID)
				}

				logger.Info().
					Str("order_id", job.OrderID).
					Str("system", job.System).
					Msg("Processing sync job")

				start := time.Now()
				outcome, err := syncService.SyncOrder(jobCtx, orderID, job.System)
				if err != nil {
					logger.Error().Err(err).
						Str("order_id", job.OrderID).
						Str("system", job.System).
						Msg("Failed to process sync job")
					app.Metrics.WorkerJobsProcessed.WithLabelValues("error").Inc()
					app.Metrics.WorkerProcessingDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
				} else {
					app.Metrics.WorkerJobsProcessed.WithLabelValues(outcome.Status).Inc()
					app.Metrics.WorkerProcessingDuration.WithLabelValues(outcome.Status).Observe(time.Since(start).Seconds())
				}

				consumer.Ack(ctx, msg.ID)
			}
		}
	}
}
