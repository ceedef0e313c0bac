package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/mbuchner/liefertermin/internal/domain/audit"
	"github.com/mbuchner/liefertermin/internal/domain/deadletter"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/infrastructure/observability"
	pkgretry "github.com/mbuchner/liefertermin/pkg/retry"
	"github.com/rs/zerolog"
)

// Policy is the pure retry decision: how many attempts, and how long to
// wait after the n-th failure. Kept separate from the executor so the
// stop/dead-letter logic stays testable without sleeping.
type Policy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
}

// DefaultPolicy matches the reconciliation defaults: three attempts with
// linear 200ms backoff.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}
}

// Delay returns the backoff after a given 1-based failed attempt.
func (p Policy) Delay(attempt uint) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

// Operation is one call against an external system, returning its raw
// payload.
type Operation func(ctx context.Context) (map[string]any, error)

// Executor wraps external calls with retry, audit logging and dead-letter
// capture. The audit and dead-letter sinks are fire-and-forget: their
// failures are logged and swallowed so they can never mask the wrapped
// operation's outcome.
type Executor struct {
	audit       audit.Repository
	deadLetters deadletter.Repository
	policy      Policy
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

func NewExecutor(
	auditRepo audit.Repository,
	deadLetterRepo deadletter.Repository,
	policy Policy,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Executor {
	if policy.MaxAttempts == 0 {
		policy = DefaultPolicy()
	}
	return &Executor{
		audit:       auditRepo,
		deadLetters: deadLetterRepo,
		policy:      policy,
		logger:      logger,
		metrics:     metrics,
	}
}

type execOptions struct {
	payload     map[string]any
	maxAttempts uint
	userID      string
}

type ExecOption func(*execOptions)

// WithPayload attaches a payload snapshot to audit and dead-letter records.
func WithPayload(payload map[string]any) ExecOption {
	return func(o *execOptions) { o.payload = payload }
}

// WithMaxAttempts overrides the policy's attempt budget for one call.
func WithMaxAttempts(n uint) ExecOption {
	return func(o *execOptions) { o.maxAttempts = n }
}

// WithUserID attributes the operation to an acting user in the audit trail.
func WithUserID(userID string) ExecOption {
	return func(o *execOptions) { o.userID = userID }
}

// ExecuteWithRetry invokes fn until it succeeds or the attempt budget is
// spent. On success exactly one integration_success audit entry is written
// carrying the attempt count. On exhaustion exactly one dead-letter record
// and one integration_dead_letter audit entry are written and the original
// error is returned wrapped in ErrRetriesExhausted. The correlation id is
// resolved once at entry and reused across all attempts and both audit
// paths.
func (e *Executor) ExecuteWithRetry(ctx context.Context, system, operation string, fn Operation, opts ...ExecOption) (map[string]any, error) {
	options := execOptions{
		payload:     map[string]any{},
		maxAttempts: e.policy.MaxAttempts,
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, correlationID := EnsureCorrelationID(ctx)

	var attempts uint
	cfg := pkgretry.Config{
		MaxAttempts:  options.maxAttempts,
		InitialDelay: e.policy.BaseDelay,
		Linear:       true,
		OnRetry: func(n uint, err error) {
			e.logger.Warn().
				Str("system", system).
				Str("operation", operation).
				Str("correlation_id", correlationID).
				Uint("attempt", n+1).
				Err(err).
				Msg("integration attempt failed, retrying")
			if e.metrics != nil {
				e.metrics.IntegrationRetries.WithLabelValues(system).Inc()
			}
		},
	}

	result, err := pkgretry.DoWithResult(ctx, cfg, func() (map[string]any, error) {
		attempts++
		return fn(ctx)
	})

	if err != nil {
		e.recordDeadLetter(ctx, system, operation, correlationID, options, attempts, err)
		if e.metrics != nil {
			e.metrics.IntegrationAttempts.WithLabelValues(system, "dead_letter").Inc()
		}
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrRetriesExhausted, err)
	}

	e.recordSuccess(ctx, system, operation, correlationID, options, attempts)
	if e.metrics != nil {
		e.metrics.IntegrationAttempts.WithLabelValues(system, "success").Inc()
	}
	return result, nil
}

func (e *Executor) recordSuccess(ctx context.Context, system, operation, correlationID string, options execOptions, attempts uint) {
	entry := audit.NewEntry(audit.ActionIntegrationSuccess, "integration", operation)
	entry.SourceSystem = system
	entry.UserID = options.userID
	entry.CorrelationID = correlationID
	entry.Payload = map[string]any{
		"attempt": attempts,
		"payload": options.payload,
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		e.logger.Error().Err(err).
			Str("correlation_id", correlationID).
			Msg("failed to append success audit entry")
	}
}

func (e *Executor) recordDeadLetter(ctx context.Context, system, operation, correlationID string, options execOptions, attempts uint, cause error) {
	rec := deadletter.NewRecord(system, operation, cause.Error(), int(attempts))
	rec.CorrelationID = correlationID
	rec.Payload = options.payload

	if err := e.deadLetters.Append(ctx, rec); err != nil {
		e.logger.Error().Err(err).
			Str("correlation_id", correlationID).
			Msg("failed to append dead letter record")
	}
	if e.metrics != nil {
		e.metrics.DeadLetters.WithLabelValues(system).Inc()
	}

	entry := audit.NewEntry(audit.ActionIntegrationDeadLetter, "integration", operation)
	entry.SourceSystem = system
	entry.UserID = options.userID
	entry.CorrelationID = correlationID
	entry.Payload = map[string]any{
		"attempts": attempts,
		"error":    cause.Error(),
		"payload":  options.payload,
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		e.logger.Error().Err(err).
			Str("correlation_id", correlationID).
			Msg("failed to append dead letter audit entry")
	}

	e.logger.Error().
		Str("system", system).
		Str("operation", operation).
		Str("correlation_id", correlationID).
		Uint("attempts", attempts).
		Err(cause).
		Msg("integration retries exhausted, dead letter recorded")
}
