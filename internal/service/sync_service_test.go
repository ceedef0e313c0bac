package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mbuchner/liefertermin/internal/channel"
	appDeadline "github.com/mbuchner/liefertermin/internal/deadline"
	"github.com/mbuchner/liefertermin/internal/domain/audit"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/domain/order"
	"github.com/mbuchner/liefertermin/internal/integration"
	"github.com/mbuchner/liefertermin/internal/san6"
	"github.com/mbuchner/liefertermin/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	service     *SyncService
	orders      *testutil.MockOrderRepository
	settings    *testutil.MockSettingsRepository
	auditRepo   *testutil.MockAuditRepository
	deadLetters *testutil.MockDeadLetterRepository
	fetcher     *testutil.MockFetcher
	lock        *testutil.MockLocker
	queue       *testutil.MockJobQueue
}

func setupSyncService() *syncFixture {
	f := &syncFixture{
		orders:      testutil.NewMockOrderRepository(),
		settings:    testutil.NewMockSettingsRepository(),
		auditRepo:   testutil.NewMockAuditRepository(),
		deadLetters: testutil.NewMockDeadLetterRepository(),
		fetcher:     &testutil.MockFetcher{SystemName: "san6"},
		lock:        &testutil.MockLocker{},
		queue:       &testutil.MockJobQueue{},
	}

	resolver := appDeadline.NewResolver(f.orders, f.settings, zerolog.Nop())
	executor := integration.NewExecutor(f.auditRepo, f.deadLetters,
		integration.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, zerolog.Nop(), nil)

	f.service = NewSyncService(SyncServiceDeps{
		Orders:      f.orders,
		DeadLetters: f.deadLetters,
		AuditLog:    f.auditRepo,
		Clients:     channel.NewClientRegistry(f.fetcher),
		Adapters: channel.NewRegistry(
			channel.NewSan6Adapter(),
			channel.NewShopwareAdapter(),
			channel.NewGambioAdapter(),
		),
		Matcher:   san6.NewMatcher(zerolog.Nop()),
		Resolver:  resolver,
		Executor:  executor,
		TxManager: &testutil.MockTxManager{},
		Locks:     func(orderID string) Locker { return f.lock },
		Queue:     f.queue,
		Logger:    zerolog.Nop(),
	})
	return f
}

func (f *syncFixture) addOrder() *order.Order {
	o := testutil.NewTestOrder("B-100", "channel-a")
	o.OrderDate = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC) // Monday
	f.orders.Put(o)
	return o
}

func TestSyncOrder_HappyPath(t *testing.T) {
	f := setupSyncService()
	o := f.addOrder()
	f.settings.PutChannel("channel-a", testutil.NewTestSettings("channel-a", 2, 5, ""))
	f.fetcher.FetchOrderFunc = func(ctx context.Context, key string) (map[string]any, error) {
		assert.Equal(t, "B-100", key)
		return map[string]any{
			"orderNumber":   "B-100",
			"customerEmail": "KUNDE@example.com",
			"shippingDate":  "2026-01-07",
		}, nil
	}

	outcome, err := f.service.SyncOrder(context.Background(), o.ID, "san6")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, outcome.Status)
	assert.Empty(t, outcome.Conflicts)
	require.NotNil(t, outcome.Result.LatestShippingAt)
	assert.Equal(t, 7, outcome.Result.LatestShippingAt.Day())
	assert.Equal(t, 12, outcome.Result.LatestDeliveryAt.Day())

	stored := f.orders.Get(o.ID)
	assert.Equal(t, order.SyncBadgeSynced, stored.SyncBadge)
	assert.Equal(t, "san6", stored.SourceSystem)
	require.NotNil(t, stored.ShippingDate)
	assert.Equal(t, 7, stored.ShippingDate.Day())

	require.Len(t, f.auditRepo.ByAction(audit.ActionIntegrationSuccess), 1)
	require.Len(t, f.auditRepo.ByAction(audit.ActionOrderSynced), 1)
	assert.Equal(t, 1, f.lock.Releases)
}

func TestSyncOrder_ConflictStillMerges(t *testing.T) {
	f := setupSyncService()
	o := f.addOrder()
	f.fetcher.FetchOrderFunc = func(ctx context.Context, key string) (map[string]any, error) {
		return map[string]any{
			"orderNumber":   "B-100",
			"customerEmail": "andere@example.com",
			"shippingDate":  "2026-01-07",
		}, nil
	}

	outcome, err := f.service.SyncOrder(context.Background(), o.ID, "san6")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, outcome.Status)
	assert.Equal(t, []string{order.ConflictEmailMismatch}, outcome.Conflicts)

	stored := f.orders.Get(o.ID)
	assert.Equal(t, order.SyncBadgeConflict, stored.SyncBadge)
	assert.True(t, stored.HasConflict)
	require.NotNil(t, stored.ShippingDate, "conflicts never block the merge")
}

func TestSyncOrder_HeldLockSkips(t *testing.T) {
	f := setupSyncService()
	o := f.addOrder()
	f.lock.Held = true

	outcome, err := f.service.SyncOrder(context.Background(), o.ID, "san6")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome.Status)
	assert.Equal(t, 0, f.fetcher.Calls, "skipped runs never hit the external system")
}

func TestSyncOrder_ContractViolationRejects(t *testing.T) {
	f := setupSyncService()
	o := f.addOrder()
	f.fetcher.FetchOrderFunc = func(ctx context.Context, key string) (map[string]any, error) {
		return map[string]any{"foo": "bar"}, nil
	}

	outcome, err := f.service.SyncOrder(context.Background(), o.ID, "san6")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome.Status)
	assert.Len(t, outcome.Violations, 2)

	require.Len(t, f.auditRepo.ByAction(audit.ActionIntegrationRejected), 1)
	stored := f.orders.Get(o.ID)
	assert.Equal(t, order.SyncBadgeNone, stored.SyncBadge, "rejected payloads never merge")
}

func TestSyncOrder_AbsentRemoteRecordRejects(t *testing.T) {
	// A 404 from the external system surfaces as an empty payload, which
	// cannot satisfy any contract.
	f := setupSyncService()
	o := f.addOrder()
	f.fetcher.FetchOrderFunc = func(ctx context.Context, key string) (map[string]any, error) {
		return map[string]any{}, nil
	}

	outcome, err := f.service.SyncOrder(context.Background(), o.ID, "san6")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome.Status)
}

func TestSyncOrder_FetchExhaustionDeadLetters(t *testing.T) {
	f := setupSyncService()
	o := f.addOrder()
	f.fetcher.FetchOrderFunc = func(ctx context.Context, key string) (map[string]any, error) {
		return nil, errors.New("503 from upstream")
	}

	_, err := f.service.SyncOrder(context.Background(), o.ID, "san6")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrRetriesExhausted)
	assert.Equal(t, 3, f.fetcher.Calls)

	records := f.deadLetters.Records()
	require.Len(t, records, 1)
	assert.Equal(t, o.ID.String(), records[0].Payload["orderId"])
	assert.Equal(t, 1, f.lock.Releases, "lock is released even on failure")
}

func TestSyncOrder_UnknownOrder(t *testing.T) {
	f := setupSyncService()

	_, err := f.service.SyncOrder(context.Background(), uuid.New(), "san6")
	assert.ErrorIs(t, err, domainErrors.ErrOrderNotFound)
}

func TestSyncOrder_UnknownSystem(t *testing.T) {
	f := setupSyncService()
	o := f.addOrder()

	_, err := f.service.SyncOrder(context.Background(), o.ID, "unknown")
	assert.ErrorIs(t, err, domainErrors.ErrClientNotFound)
}

func TestEnqueueSync(t *testing.T) {
	f := setupSyncService()
	o := f.addOrder()

	err := f.service.EnqueueSync(context.Background(), o.ID, "san6")
	require.NoError(t, err)

	jobs := f.queue.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, o.ID.String(), jobs[0].OrderID)
	assert.Equal(t, "san6", jobs[0].System)
	assert.NotEmpty(t, jobs[0].CorrelationID)
}

func TestEnqueueSync_UnknownSystem(t *testing.T) {
	f := setupSyncService()
	o := f.addOrder()

	err := f.service.EnqueueSync(context.Background(), o.ID, "unknown")
	assert.ErrorIs(t, err, domainErrors.ErrClientNotFound)
	assert.Empty(t, f.queue.Jobs())
}

func TestEnqueuePending(t *testing.T) {
	f := setupSyncService()
	f.addOrder()
	synced := testutil.NewTestOrder("B-200", "channel-a")
	synced.SyncBadge = order.SyncBadgeSynced
	f.orders.Put(synced)

	enqueued, err := f.service.EnqueuePending(context.Background(), "san6", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, enqueued, "already-synced orders are not re-enqueued")

	jobs := f.queue.Jobs()
	require.Len(t, jobs, 1)
	assert.NotEmpty(t, jobs[0].CorrelationID)
}

func TestReplayDeadLetter(t *testing.T) {
	f := setupSyncService()
	o := f.addOrder()
	f.fetcher.FetchOrderFunc = func(ctx context.Context, key string) (map[string]any, error) {
		return nil, errors.New("503 from upstream")
	}

	ctx := integration.WithCorrelationID(context.Background(), "corr-9")
	_, err := f.service.SyncOrder(ctx, o.ID, "san6")
	require.Error(t, err)
	records := f.deadLetters.Records()
	require.Len(t, records, 1)

	err = f.service.ReplayDeadLetter(context.Background(), records[0].ID)
	require.NoError(t, err)

	jobs := f.queue.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, o.ID.String(), jobs[0].OrderID)
	assert.Equal(t, "san6", jobs[0].System)
	assert.Equal(t, "corr-9", jobs[0].CorrelationID, "replay keeps the original correlation id")
}

func TestReplayDeadLetter_Unknown(t *testing.T) {
	f := setupSyncService()

	err := f.service.ReplayDeadLetter(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrDeadLetterNotFound)
}
