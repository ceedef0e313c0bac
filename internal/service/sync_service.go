package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mbuchner/liefertermin/internal/channel"
	appDeadline "github.com/mbuchner/liefertermin/internal/deadline"
	"github.com/mbuchner/liefertermin/internal/domain/audit"
	domainDeadline "github.com/mbuchner/liefertermin/internal/domain/deadline"
	"github.com/mbuchner/liefertermin/internal/domain/deadletter"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/domain/order"
	"github.com/mbuchner/liefertermin/internal/infrastructure/observability"
	"github.com/mbuchner/liefertermin/internal/integration"
	"github.com/mbuchner/liefertermin/internal/integration/contract"
	"github.com/mbuchner/liefertermin/internal/san6"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransactionManager defines the interface for transaction management.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker is a per-order reconciliation lock.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LockFactory builds a lock scoped to one order id.
type LockFactory func(orderID string) Locker

// JobQueue enqueues reconciliation jobs for the worker.
type JobQueue interface {
	Enqueue(ctx context.Context, orderID, system, correlationID string) error
}

// Outcome statuses of one reconciliation run.
const (
	OutcomeSynced   = "synced"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// Outcome describes how a reconciliation run ended. Rejected and skipped
// are soft outcomes, not errors.
type Outcome struct {
	Status     string
	Violations []string
	Conflicts  []string
	Result     domainDeadline.Result
}

// SyncService runs the reconciliation pipeline for a single order: fetch
// the external payload (with retry and dead-letter capture), validate its
// contract, normalize it, merge it against the shop order and recompute
// the delivery deadlines.
type SyncService struct {
	orders      order.Repository
	deadLetters deadletter.Repository
	auditLog    audit.Repository
	clients     *channel.ClientRegistry
	adapters    *channel.Registry
	matcher     *san6.Matcher
	resolver    *appDeadline.Resolver
	executor    *integration.Executor
	txManager   TransactionManager
	locks       LockFactory
	queue       JobQueue
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

type SyncServiceDeps struct {
	Orders      order.Repository
	DeadLetters deadletter.Repository
	AuditLog    audit.Repository
	Clients     *channel.ClientRegistry
	Adapters    *channel.Registry
	Matcher     *san6.Matcher
	Resolver    *appDeadline.Resolver
	Executor    *integration.Executor
	TxManager   TransactionManager
	Locks       LockFactory
	Queue       JobQueue
	Logger      zerolog.Logger
	Metrics     *observability.Metrics
}

func NewSyncService(deps SyncServiceDeps) *SyncService {
	return &SyncService{
		orders:      deps.Orders,
		deadLetters: deps.DeadLetters,
		auditLog:    deps.AuditLog,
		clients:     deps.Clients,
		adapters:    deps.Adapters,
		matcher:     deps.Matcher,
		resolver:    deps.Resolver,
		executor:    deps.Executor,
		txManager:   deps.TxManager,
		locks:       deps.Locks,
		queue:       deps.Queue,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
}

// EnqueueSync schedules a reconciliation job for asynchronous processing.
func (s *SyncService) EnqueueSync(ctx context.Context, orderID uuid.UUID, system string) error {
	ctx, correlationID := integration.EnsureCorrelationID(ctx)
	if _, err := s.clients.Get(system); err != nil {
		return err
	}
	return s.queue.Enqueue(ctx, orderID.String(), system, correlationID)
}

// EnqueuePending schedules sync jobs for orders that were never
// reconciled. Each job gets its own correlation id. Returns the number of
// jobs enqueued.
func (s *SyncService) EnqueuePending(ctx context.Context, system string, limit int) (int, error) {
	if _, err := s.clients.Get(system); err != nil {
		return 0, err
	}

	pending, err := s.orders.ListPendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending orders: %w", err)
	}

	enqueued := 0
	for _, o := range pending {
		correlationID := uuid.New().String()
		if err := s.queue.Enqueue(ctx, o.ID.String(), system, correlationID); err != nil {
			s.logger.Error().Err(err).
				Str("order_id", o.ID.String()).
				Msg("failed to enqueue pending order")
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

// SyncOrder runs the full pipeline synchronously. A held lock yields a
// skipped outcome; contract violations yield a rejected outcome. Both are
// soft results. Only exhausted-retry fetch failures surface as errors.
func (s *SyncService) SyncOrder(ctx context.Context, orderID uuid.UUID, system string) (*Outcome, error) {
	ctx, correlationID := integration.EnsureCorrelationID(ctx)
	start := time.Now()

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lock := s.locks(orderID.String())
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		s.logger.Info().
			Str("order_id", orderID.String()).
			Str("system", system).
			Msg("reconciliation already running, skipping")
		s.observe(system, OutcomeSkipped, start)
		return &Outcome{Status: OutcomeSkipped}, nil
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			s.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("failed to release sync lock")
		}
	}()

	if s.metrics != nil {
		s.metrics.ActiveSyncs.Inc()
		defer s.metrics.ActiveSyncs.Dec()
	}

	client, err := s.clients.Get(system)
	if err != nil {
		return nil, err
	}

	payload, err := s.executor.ExecuteWithRetry(ctx, system, "fetch_order",
		func(ctx context.Context) (map[string]any, error) {
			return client.FetchOrder(ctx, o.OrderNumber)
		},
		integration.WithPayload(map[string]any{
			"orderId":     orderID.String(),
			"orderNumber": o.OrderNumber,
		}),
	)
	if err != nil {
		s.observe(system, "failed", start)
		return nil, err
	}

	if violations := contract.ValidateAPIPayload(system, payload); len(violations) > 0 {
		s.recordRejection(ctx, system, orderID, correlationID, violations)
		s.observe(system, OutcomeRejected, start)
		return &Outcome{Status: OutcomeRejected, Violations: violations}, nil
	}

	adapter := s.adapters.Resolve(system, payload)
	if adapter == nil {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrChannelNotSupported, system)
	}
	normalized := adapter.Normalize(payload)

	merged := s.matcher.Match(o, normalized)
	merged.SourceSystem = adapter.Name()
	if !merged.HasConflict {
		merged.SyncBadge = order.SyncBadgeSynced
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orders.UpdateSyncState(txCtx, merged); err != nil {
			return fmt.Errorf("update sync state: %w", err)
		}
		entry := audit.NewEntry(audit.ActionOrderSynced, "order", orderID.String())
		entry.SourceSystem = system
		entry.CorrelationID = correlationID
		entry.Payload = map[string]any{
			"conflicts":   merged.Conflicts,
			"hasConflict": merged.HasConflict,
		}
		return s.auditLog.Append(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	result, err := s.resolver.ResolveForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.orders.SaveDeadlines(ctx, orderID, result.LatestShippingAt, result.LatestDeliveryAt); err != nil {
		return nil, fmt.Errorf("save deadlines: %w", err)
	}

	if s.metrics != nil {
		s.metrics.DeadlineComputations.Inc()
		for _, tag := range merged.Conflicts {
			s.metrics.SyncConflicts.WithLabelValues(tag).Inc()
		}
	}
	s.observe(system, OutcomeSynced, start)

	return &Outcome{
		Status:    OutcomeSynced,
		Conflicts: merged.Conflicts,
		Result:    result,
	}, nil
}

// ReplayDeadLetter re-enqueues the operation captured in a dead letter.
func (s *SyncService) ReplayDeadLetter(ctx context.Context, id uuid.UUID) error {
	rec, err := s.deadLetters.GetByID(ctx, id)
	if err != nil {
		return err
	}

	orderID, _ := rec.Payload["orderId"].(string)
	if orderID == "" {
		return domainErrors.NewDomainError("dead_letter_not_replayable",
			"dead letter payload carries no order id", nil)
	}

	ctx = integration.WithCorrelationID(ctx, rec.CorrelationID)
	return s.queue.Enqueue(ctx, orderID, rec.System, rec.CorrelationID)
}

func (s *SyncService) recordRejection(ctx context.Context, system string, orderID uuid.UUID, correlationID string, violations []string) {
	entry := audit.NewEntry(audit.ActionIntegrationRejected, "order", orderID.String())
	entry.SourceSystem = system
	entry.CorrelationID = correlationID
	entry.Payload = map[string]any{"violations": violations}
	if err := s.auditLog.Append(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to append rejection audit entry")
	}
	s.logger.Warn().
		Str("order_id", orderID.String()).
		Str("system", system).
		Strs("violations", violations).
		Msg("payload rejected by contract validator")
}

func (s *SyncService) observe(system, outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.SyncOutcomes.WithLabelValues(system, outcome).Inc()
	s.metrics.SyncDuration.WithLabelValues(system, outcome).Observe(time.Since(start).Seconds())
}
