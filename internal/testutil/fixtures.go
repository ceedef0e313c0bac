package testutil

import (
	"time"

	"github.com/mbuchner/liefertermin/internal/domain/deadline"
	"github.com/mbuchner/liefertermin/internal/domain/order"
	"github.com/google/uuid"
)

func NewTestOrder(orderNumber, salesChannelID string) *order.Order {
	now := time.Now()
	return &order.Order{
		ID:             uuid.New(),
		OrderNumber:    orderNumber,
		SalesChannelID: salesChannelID,
		OrderDate:      now,
		PaymentMethod:  "invoice",
		CustomerEmail:  "kunde@example.com",
		SyncBadge:      order.SyncBadgeNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func NewPrepaidOrder(orderNumber, salesChannelID string, paidAt time.Time) *order.Order {
	o := NewTestOrder(orderNumber, salesChannelID)
	o.PaymentMethod = "Vorkasse"
	o.PaidAt = &paidAt
	return o
}

func NewTestSettings(channelID string, shippingOffset, deliveryOffset int, cutoff string) *deadline.Settings {
	now := time.Now()
	s := &deadline.Settings{
		ID:                       uuid.New(),
		LatestShippingOffsetDays: shippingOffset,
		LatestDeliveryOffsetDays: deliveryOffset,
		CutoffTime:               cutoff,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if channelID != "" {
		s.SalesChannelID = &channelID
	}
	return s
}

func TimePtr(t time.Time) *time.Time {
	return &t
}
