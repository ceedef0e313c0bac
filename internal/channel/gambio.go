package channel

// GambioAdapter normalizes payloads from Gambio shops. Gambio exposes a
// flat legacy schema with snake_case keys and the osCommerce orders_id.
type GambioAdapter struct{}

func NewGambioAdapter() *GambioAdapter {
	return &GambioAdapter{}
}

func (a *GambioAdapter) Name() string { return "gambio" }

func (a *GambioAdapter) Supports(channel string, payload map[string]any) bool {
	if channel == "gambio" {
		return true
	}
	if _, ok := payload["orders_id"]; ok {
		return true
	}
	_, ok := payload["customers_email_address"]
	return ok
}

func (a *GambioAdapter) Normalize(payload map[string]any) map[string]any {
	out := copyPayload(payload)
	out["sourceSystem"] = a.Name()

	backfill(out, "orderNumber", payload["orders_id"])
	backfill(out, "customerEmail", payload["customers_email_address"])
	backfill(out, "paymentMethod", payload["payment_method"])
	backfill(out, "paymentDate", payload["payment_date"])
	return out
}
