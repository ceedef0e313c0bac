package deadline

import (
	"context"
	"errors"
	"testing"
	"time"

	domainDeadline "github.com/mbuchner/liefertermin/internal/domain/deadline"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupResolver() (*Resolver, *testutil.MockOrderRepository, *testutil.MockSettingsRepository) {
	orders := testutil.NewMockOrderRepository()
	settings := testutil.NewMockSettingsRepository()
	return NewResolver(orders, settings, zerolog.Nop()), orders, settings
}

func TestResolveForOrder_MissingOrderIsSilent(t *testing.T) {
	r, _, _ := setupResolver()

	result, err := r.ResolveForOrder(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, result.IsZero())
}

func TestResolveForOrder_MissingSettingsUsesZeroOffsets(t *testing.T) {
	r, orders, _ := setupResolver()

	o := testutil.NewTestOrder("B-100", "channel-a")
	o.OrderDate = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC) // Monday
	orders.Put(o)

	result, err := r.ResolveForOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.NotNil(t, result.LatestShippingAt)
	require.NotNil(t, result.LatestDeliveryAt)
	assert.True(t, result.LatestShippingAt.Equal(o.OrderDate))
	assert.True(t, result.LatestDeliveryAt.Equal(o.OrderDate))
}

func TestResolveForOrder_AppliesChannelOffsets(t *testing.T) {
	r, orders, settings := setupResolver()

	o := testutil.NewTestOrder("B-101", "channel-a")
	o.OrderDate = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC) // Monday
	orders.Put(o)
	settings.PutChannel("channel-a", testutil.NewTestSettings("channel-a", 2, 5, ""))

	result, err := r.ResolveForOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, result.LatestShippingAt.Day())  // Wednesday
	assert.Equal(t, 12, result.LatestDeliveryAt.Day()) // next Monday
}

func TestResolveForOrder_FallsBackToDefaultSettings(t *testing.T) {
	r, orders, settings := setupResolver()

	o := testutil.NewTestOrder("B-102", "channel-without-row")
	o.OrderDate = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	orders.Put(o)
	settings.PutDefault(testutil.NewTestSettings("", 1, 1, ""))

	result, err := r.ResolveForOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, result.LatestShippingAt.Day()) // Tuesday
}

func TestResolveForOrder_PrepaymentShiftsBaseToPaymentDate(t *testing.T) {
	r, orders, settings := setupResolver()

	paidAt := time.Date(2026, time.January, 7, 9, 0, 0, 0, time.UTC) // Wednesday
	o := testutil.NewPrepaidOrder("B-103", "channel-a", paidAt)
	o.OrderDate = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	orders.Put(o)
	settings.PutChannel("channel-a", testutil.NewTestSettings("channel-a", 1, 1, ""))

	result, err := r.ResolveForOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, result.LatestShippingAt.Day()) // Thursday, counted from payment
}

func TestResolveForOrder_PrepaymentWithoutPaymentDateUsesOrderDate(t *testing.T) {
	r, orders, settings := setupResolver()

	o := testutil.NewTestOrder("B-104", "channel-a")
	o.PaymentMethod = "Vorkasse"
	o.OrderDate = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	orders.Put(o)
	settings.PutChannel("channel-a", testutil.NewTestSettings("channel-a", 1, 1, ""))

	result, err := r.ResolveForOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, result.LatestShippingAt.Day())
}

func TestResolveForOrder_AppliesCutoff(t *testing.T) {
	r, orders, settings := setupResolver()

	o := testutil.NewTestOrder("B-105", "channel-a")
	o.OrderDate = time.Date(2026, time.January, 5, 14, 0, 0, 0, time.UTC) // Monday after cutoff
	orders.Put(o)
	settings.PutChannel("channel-a", testutil.NewTestSettings("channel-a", 1, 1, "12:00"))

	result, err := r.ResolveForOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, result.LatestShippingAt.Day()) // Wednesday
}

func TestResolveForOrder_SettingsErrorSurfaces(t *testing.T) {
	r, orders, settings := setupResolver()

	o := testutil.NewTestOrder("B-106", "channel-a")
	orders.Put(o)
	settings.FindByChannelFunc = func(ctx context.Context, channelID string) (*domainDeadline.Settings, error) {
		return nil, errors.New("connection refused")
	}

	_, err := r.ResolveForOrder(context.Background(), o.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainErrors.ErrSettingsNotFound)
}
