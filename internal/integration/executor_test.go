package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mbuchner/liefertermin/internal/domain/audit"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupExecutor() (*Executor, *testutil.MockAuditRepository, *testutil.MockDeadLetterRepository) {
	auditRepo := testutil.NewMockAuditRepository()
	deadLetters := testutil.NewMockDeadLetterRepository()
	// Millisecond backoff keeps exhaustion tests fast.
	exec := NewExecutor(auditRepo, deadLetters,
		Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, zerolog.Nop(), nil)
	return exec, auditRepo, deadLetters
}

func TestExecuteWithRetry_SucceedsFirstAttempt(t *testing.T) {
	exec, auditRepo, deadLetters := setupExecutor()

	result, err := exec.ExecuteWithRetry(context.Background(), "san6", "fetch_order",
		func(ctx context.Context) (map[string]any, error) {
			return map[string]any{"orderNumber": "B-100"}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "B-100", result["orderNumber"])

	entries := auditRepo.ByAction(audit.ActionIntegrationSuccess)
	require.Len(t, entries, 1)
	assert.Equal(t, uint(1), entries[0].Payload["attempt"])
	assert.Empty(t, deadLetters.Records())
}

func TestExecuteWithRetry_RecoversAfterTransientFailures(t *testing.T) {
	exec, auditRepo, deadLetters := setupExecutor()

	calls := 0
	result, err := exec.ExecuteWithRetry(context.Background(), "san6", "fetch_order",
		func(ctx context.Context) (map[string]any, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("connection reset")
			}
			return map[string]any{"ok": true}, nil
		})
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 3, calls)

	entries := auditRepo.ByAction(audit.ActionIntegrationSuccess)
	require.Len(t, entries, 1)
	assert.Equal(t, uint(3), entries[0].Payload["attempt"])
	assert.Empty(t, deadLetters.Records(), "recovered calls must not dead-letter")
}

func TestExecuteWithRetry_ExhaustionDeadLetters(t *testing.T) {
	exec, auditRepo, deadLetters := setupExecutor()

	cause := errors.New("503 from upstream")
	calls := 0
	ctx := WithCorrelationID(context.Background(), "corr-42")

	_, err := exec.ExecuteWithRetry(ctx, "san6", "fetch_order",
		func(ctx context.Context) (map[string]any, error) {
			calls++
			return nil, cause
		},
		WithPayload(map[string]any{"orderNumber": "B-100"}),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrRetriesExhausted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls, "attempt budget is exactly MaxAttempts")

	records := deadLetters.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "san6", records[0].System)
	assert.Equal(t, "fetch_order", records[0].Operation)
	assert.Equal(t, 3, records[0].Attempts)
	assert.Equal(t, "corr-42", records[0].CorrelationID)
	assert.Equal(t, "B-100", records[0].Payload["orderNumber"])

	entries := auditRepo.ByAction(audit.ActionIntegrationDeadLetter)
	require.Len(t, entries, 1)
	assert.Equal(t, "corr-42", entries[0].CorrelationID)
	assert.Empty(t, auditRepo.ByAction(audit.ActionIntegrationSuccess))
}

func TestExecuteWithRetry_MaxAttemptsOverride(t *testing.T) {
	exec, _, deadLetters := setupExecutor()

	calls := 0
	_, err := exec.ExecuteWithRetry(context.Background(), "gambio", "fetch_order",
		func(ctx context.Context) (map[string]any, error) {
			calls++
			return nil, errors.New("timeout")
		},
		WithMaxAttempts(1),
	)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, deadLetters.Records(), 1)
	assert.Equal(t, 1, deadLetters.Records()[0].Attempts)
}

func TestExecuteWithRetry_AuditFailureDoesNotMaskResult(t *testing.T) {
	exec, auditRepo, _ := setupExecutor()
	auditRepo.AppendFunc = func(ctx context.Context, e *audit.Entry) error {
		return errors.New("audit store down")
	}

	result, err := exec.ExecuteWithRetry(context.Background(), "san6", "fetch_order",
		func(ctx context.Context) (map[string]any, error) {
			return map[string]any{"ok": true}, nil
		})
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 400*time.Millisecond, p.Delay(2))
	assert.Equal(t, 600*time.Millisecond, p.Delay(3))
}

func TestEnsureCorrelationID_Stable(t *testing.T) {
	ctx, id := EnsureCorrelationID(context.Background())
	require.NotEmpty(t, id)

	ctx2, id2 := EnsureCorrelationID(ctx)
	assert.Equal(t, id, id2, "resolving twice must not mint a new id")
	assert.Equal(t, id, CorrelationID(ctx2))
}
