package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// Provider metadata stores are string key/value maps with a per-value
// length cap, so everything embedded in an intent is truncated to fit.
const maxMetadataValueRunes = 500

// LineItem is one priced listing inside an intent, with its commission
// split already applied.
type LineItem struct {
	ProductID        uuid.UUID       `json:"product_id"`
	SellerID         uuid.UUID       `json:"seller_id"`
	Title            string          `json:"title"`
	Price            decimal.Decimal `json:"price"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	SellerReceives   decimal.Decimal `json:"seller_receives"`
}

// Intent is the provider-agnostic summary of a pending purchase. It is
// built fresh per checkout request, handed to a payment adapter, and
// discarded; only the metadata survives as the provider's audit trail.
type Intent struct {
	Items               []LineItem        `json:"items"`
	Currency            enums.Currency    `json:"currency"`
	ItemTotal           decimal.Decimal   `json:"item_total"`
	ShippingCost        decimal.Decimal   `json:"shipping_cost"`
	ShippingDescription string            `json:"shipping_description"`
	DiscountAmount      decimal.Decimal   `json:"discount_amount"`
	CommissionRate      decimal.Decimal   `json:"commission_rate"`
	CommissionAmount    decimal.Decimal   `json:"commission_amount"`
	SellerReceives      decimal.Decimal   `json:"seller_receives"`
	Total               decimal.Decimal   `json:"total"`
	Metadata            map[string]string `json:"metadata"`
}

// PrimaryItem returns the first line item. Single-product intents have
// exactly one.
func (i *Intent) PrimaryItem() *LineItem {
	if i == nil || len(i.Items) == 0 {
		return nil
	}
	return &i.Items[0]
}

func truncateMetadataValue(value string) string {
	runes := []rune(value)
	if len(runes) <= maxMetadataValueRunes {
		return value
	}
	return string(runes[:maxMetadataValueRunes])
}

func metadataSet(meta map[string]string, key, value string) {
	meta[key] = truncateMetadataValue(value)
}
