package channel

// ShopwareAdapter normalizes payloads originating from a Shopware shop.
// Shopware nests customer and transaction data under the order entity.
type ShopwareAdapter struct{}

func NewShopwareAdapter() *ShopwareAdapter {
	return &ShopwareAdapter{}
}

func (a *ShopwareAdapter) Name() string { return "shopware" }

func (a *ShopwareAdapter) Supports(channel string, payload map[string]any) bool {
	if channel == "shopware" {
		return true
	}
	if _, ok := payload["salesChannelId"]; ok {
		return true
	}
	_, ok := payload["orderCustomer"]
	return ok
}

func (a *ShopwareAdapter) Normalize(payload map[string]any) map[string]any {
	out := copyPayload(payload)
	out["sourceSystem"] = a.Name()

	backfill(out, "customerEmail", lookupPath(payload, "orderCustomer", "email"))

	if tx := firstElement(payload["transactions"]); tx != nil {
		backfill(out, "paymentMethod", lookupPath(tx, "paymentMethod", "name"))
		backfill(out, "paymentDate", tx["paidAt"])
	}
	return out
}
