// Package san6 reconciles shop orders against the legacy san6 ERP, which
// is authoritative for shipping and delivery facts when it has them.
package san6

import (
	"strings"
	"time"

	"github.com/mbuchner/liefertermin/internal/domain/order"
	"github.com/rs/zerolog"
)

// Matcher merges an external record into an order and flags conflicts.
type Matcher struct {
	logger zerolog.Logger
}

func NewMatcher(logger zerolog.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// Match reconciles the order with the external record. An empty record
// returns the order unchanged. Customer email and payment method are
// compared case-insensitively when both sides are present; mismatches
// append conflict tags but never block the merge. Shipping date, delivery
// date and parcels are overwritten by the record's values when present.
// The input order is never mutated.
func (m *Matcher) Match(o *order.Order, record map[string]any) *order.Order {
	if len(record) == 0 {
		return o
	}

	merged := o.Clone()

	if email := recordEmail(record); email != "" && o.CustomerEmail != "" {
		if !strings.EqualFold(o.CustomerEmail, email) {
			merged.MarkConflict(order.ConflictEmailMismatch)
		}
	}

	if method := recordString(record, "paymentMethod", "payment_method"); method != "" && o.PaymentMethod != "" {
		if !strings.EqualFold(o.PaymentMethod, method) {
			merged.MarkConflict(order.ConflictPaymentMethodMismatch)
		}
	}

	if t := recordDate(record, "shippingDate", "shipping_date"); t != nil {
		merged.ShippingDate = t
	}
	if t := recordDate(record, "deliveryDate", "delivery_date"); t != nil {
		merged.DeliveryDate = t
	}
	if parcels := recordParcels(record); parcels != nil {
		merged.Parcels = parcels
	}

	if merged.HasConflict {
		m.logger.Warn().
			Str("order_number", o.OrderNumber).
			Strs("conflicts", merged.Conflicts).
			Msg("order conflicts with external record")
	}
	return merged
}

func recordEmail(record map[string]any) string {
	if email := recordString(record, "customerEmail", "customer_email"); email != "" {
		return email
	}
	if customer, ok := record["customer"].(map[string]any); ok {
		return recordString(customer, "email")
	}
	return ""
}

func recordString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// recordDate accepts time values directly or as date / RFC3339 strings.
func recordDate(record map[string]any, keys ...string) *time.Time {
	for _, key := range keys {
		switch v := record[key].(type) {
		case time.Time:
			return &v
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
				if t, err := time.Parse(layout, v); err == nil {
					return &t
				}
			}
		}
	}
	return nil
}

// recordParcels accepts a list of parcel objects or bare tracking numbers.
func recordParcels(record map[string]any) []order.Parcel {
	list, ok := record["parcels"].([]any)
	if !ok || len(list) == 0 {
		return nil
	}

	parcels := make([]order.Parcel, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case map[string]any:
			parcels = append(parcels, order.Parcel{
				Carrier:        recordString(v, "carrier"),
				TrackingNumber: recordString(v, "trackingNumber", "tracking_number"),
			})
		case string:
			parcels = append(parcels, order.Parcel{TrackingNumber: v})
		}
	}
	if len(parcels) == 0 {
		return nil
	}
	return parcels
}
