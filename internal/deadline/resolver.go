package deadline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainDeadline "github.com/mbuchner/liefertermin/internal/domain/deadline"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/domain/order"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// prepayment shifts the deadline baseline from order date to payment date.
const prepaymentMethodMarker = "vorkasse"

// Resolver computes the latest shipping and delivery instants for an order
// from its channel settings.
type Resolver struct {
	orders   order.Repository
	settings domainDeadline.SettingsRepository
	logger   zerolog.Logger
}

func NewResolver(orders order.Repository, settings domainDeadline.SettingsRepository, logger zerolog.Logger) *Resolver {
	return &Resolver{
		orders:   orders,
		settings: settings,
		logger:   logger,
	}
}

// ResolveForOrder loads the order and its channel settings and delegates to
// the calculator. A missing order is a valid, silent outcome: the zero
// Result is returned without error. Missing settings degrade to zero
// offsets with no cutoff.
func (r *Resolver) ResolveForOrder(ctx context.Context, orderID uuid.UUID) (domainDeadline.Result, error) {
	o, err := r.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return domainDeadline.Result{}, nil
		}
		return domainDeadline.Result{}, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return domainDeadline.Result{}, nil
	}

	base := o.OrderDate
	if strings.Contains(strings.ToLower(o.PaymentMethod), prepaymentMethodMarker) && o.PaidAt != nil {
		base = *o.PaidAt
	}

	shippingOffset, deliveryOffset := 0, 0
	var cutoff *CutoffTime

	s, err := r.settings.FindByChannel(ctx, o.SalesChannelID)
	switch {
	case err == nil && s != nil:
		shippingOffset = s.LatestShippingOffsetDays
		deliveryOffset = s.LatestDeliveryOffsetDays
		cutoff = ParseCutoff(s.CutoffTime)
	case errors.Is(err, domainErrors.ErrSettingsNotFound):
		r.logger.Debug().
			Str("order_id", orderID.String()).
			Str("channel", o.SalesChannelID).
			Msg("no deadline settings for channel, using zero offsets")
	case err != nil:
		return domainDeadline.Result{}, fmt.Errorf("load settings: %w", err)
	}

	latestShipping := CalculateLatestDate(base, shippingOffset, cutoff)
	latestDelivery := CalculateLatestDate(base, deliveryOffset, cutoff)

	return domainDeadline.Result{
		LatestShippingAt: &latestShipping,
		LatestDeliveryAt: &latestDelivery,
	}, nil
}
