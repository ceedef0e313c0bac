package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the read/enrich boundary to the shop's order store.
type Repository interface {
	// FindByID loads an order with its payment data attached.
	// Returns domain errors.ErrOrderNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// UpdateSyncState writes back shipping/delivery facts, parcels and the
	// conflict badge after a reconciliation.
	UpdateSyncState(ctx context.Context, o *Order) error

	// SaveDeadlines persists the computed commitment dates for an order.
	SaveDeadlines(ctx context.Context, id uuid.UUID, latestShippingAt, latestDeliveryAt *time.Time) error

	// ListPendingSync returns orders that have never been reconciled,
	// oldest first.
	ListPendingSync(ctx context.Context, limit int) ([]*Order, error)
}
