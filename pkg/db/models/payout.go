package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// Payout records a transfer of a seller's share to their connected
// account. The unique transaction index is the idempotency guarantee:
// a completed sale is transferred at most once.
type Payout struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID    uuid.UUID          `gorm:"column:transaction_id;type:uuid;not null;uniqueIndex"`
	SellerID         uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;index"`
	Amount           decimal.Decimal    `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency         enums.Currency     `gorm:"column:currency;not null;default:GBP"`
	StripeTransferID *string            `gorm:"column:stripe_transfer_id"`
	Status           enums.PayoutStatus `gorm:"column:status;not null"`
	FailureReason    *string            `gorm:"column:failure_reason"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
