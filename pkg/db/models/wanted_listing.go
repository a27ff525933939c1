package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// WantedListing is a buyer-posted request for equipment they are
// looking to purchase.
type WantedListing struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID   uuid.UUID             `gorm:"column:buyer_id;type:uuid;not null;index"`
	Title     string                `gorm:"column:title;not null"`
	Brand     *string               `gorm:"column:brand"`
	Category  enums.ProductCategory `gorm:"column:category;not null"`
	BudgetMax *decimal.Decimal      `gorm:"column:budget_max;type:numeric(10,2)"`
	Status    enums.WantedStatus    `gorm:"column:status;not null;default:open;index"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
