package channel

// San6Adapter normalizes records coming out of the san6 ERP export. The
// export mixes camelCase and snake_case keys depending on the endpoint
// version, so both spellings are folded onto the canonical camelCase keys.
type San6Adapter struct{}

func NewSan6Adapter() *San6Adapter {
	return &San6Adapter{}
}

func (a *San6Adapter) Name() string { return "san6" }

func (a *San6Adapter) Supports(channel string, payload map[string]any) bool {
	if channel == "san6" {
		return true
	}
	if _, ok := payload["shipping_date"]; ok {
		return true
	}
	_, ok := payload["delivery_date"]
	return ok
}

func (a *San6Adapter) Normalize(payload map[string]any) map[string]any {
	out := copyPayload(payload)
	out["sourceSystem"] = a.Name()

	backfill(out, "orderNumber", payload["order_number"])
	backfill(out, "customerEmail", payload["customer_email"])
	backfill(out, "paymentMethod", payload["payment_method"])
	backfill(out, "shippingDate", payload["shipping_date"])
	backfill(out, "deliveryDate", payload["delivery_date"])
	return out
}
