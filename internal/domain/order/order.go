package order

import (
	"time"

	"github.com/google/uuid"
)

// SyncBadge marks the reconciliation state shown to operators.
type SyncBadge string

const (
	SyncBadgeNone     SyncBadge = ""
	SyncBadgeSynced   SyncBadge = "synced"
	SyncBadgeConflict SyncBadge = "conflict"
)

// Conflict tags appended by the matching service.
const (
	ConflictEmailMismatch         = "email_mismatch"
	ConflictPaymentMethodMismatch = "payment_method_mismatch"
)

// Parcel is a single shipment package with its carrier tracking number.
type Parcel struct {
	Carrier        string
	TrackingNumber string
}

// Order is the canonical in-memory order representation the sync pipeline
// enriches. Persistence of the underlying shop order is owned by the shop
// itself; this service only reads it and writes back sync state and
// computed deadlines.
type Order struct {
	ID             uuid.UUID
	OrderNumber    string
	SalesChannelID string
	SourceSystem   string

	OrderDate     time.Time
	PaymentMethod string
	PaidAt        *time.Time

	CustomerEmail string

	ShippingDate *time.Time
	DeliveryDate *time.Time
	Parcels      []Parcel

	SyncBadge   SyncBadge
	HasConflict bool
	Conflicts   []string

	LatestShippingAt *time.Time
	LatestDeliveryAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so merges never mutate the loaded order.
func (o *Order) Clone() *Order {
	c := *o
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	if o.ShippingDate != nil {
		t := *o.ShippingDate
		c.ShippingDate = &t
	}
	if o.DeliveryDate != nil {
		t := *o.DeliveryDate
		c.DeliveryDate = &t
	}
	if o.LatestShippingAt != nil {
		t := *o.LatestShippingAt
		c.LatestShippingAt = &t
	}
	if o.LatestDeliveryAt != nil {
		t := *o.LatestDeliveryAt
		c.LatestDeliveryAt = &t
	}
	c.Parcels = append([]Parcel(nil), o.Parcels...)
	c.Conflicts = append([]string(nil), o.Conflicts...)
	return &c
}

// MarkConflict records a conflict tag and flips the operator-facing badge.
// Conflicts are advisory: they never block a merge.
func (o *Order) MarkConflict(tag string) {
	o.Conflicts = append(o.Conflicts, tag)
	o.HasConflict = true
	o.SyncBadge = SyncBadgeConflict
}
