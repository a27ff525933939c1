package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// SaleTransaction is the audit record created per checkout attempt. It
// captures the commission breakdown embedded in provider metadata so
// settled sales can be reconciled and paid out later.
type SaleTransaction struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index;uniqueIndex:idx_sale_transactions_provider_ref_product"`
	SellerID         uuid.UUID               `gorm:"column:seller_id;type:uuid;not null;index"`
	BuyerID          uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;index"`
	Provider         enums.PaymentProvider   `gorm:"column:provider;not null"`
	ProviderRef      string                  `gorm:"column:provider_ref;not null;uniqueIndex:idx_sale_transactions_provider_ref_product"`
	Currency         enums.Currency          `gorm:"column:currency;not null;default:GBP"`
	GrossAmount      decimal.Decimal         `gorm:"column:gross_amount;type:numeric(10,2);not null"`
	ShippingCost     decimal.Decimal         `gorm:"column:shipping_cost;type:numeric(10,2);not null"`
	CommissionRate   decimal.Decimal         `gorm:"column:commission_rate;type:numeric(5,4);not null"`
	CommissionAmount decimal.Decimal         `gorm:"column:commission_amount;type:numeric(10,2);not null"`
	SellerReceives   decimal.Decimal         `gorm:"column:seller_receives;type:numeric(10,2);not null"`
	Status           enums.TransactionStatus `gorm:"column:status;not null;default:pending;index"`
	CompletedAt      *time.Time              `gorm:"column:completed_at"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
