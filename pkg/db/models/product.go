package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// Product represents a seller's equipment listing. Price is held in
// major currency units (GBP).
type Product struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID         uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	Title            string                 `gorm:"column:title;not null"`
	Description      *string                `gorm:"column:description"`
	Brand            string                 `gorm:"column:brand;not null"`
	Category         enums.ProductCategory  `gorm:"column:category;not null"`
	Condition        enums.ProductCondition `gorm:"column:condition;not null"`
	Price            decimal.Decimal        `gorm:"column:price;type:numeric(10,2);not null"`
	Status           enums.ProductStatus    `gorm:"column:status;not null;default:active;index"`
	ShippingIncluded bool                   `gorm:"column:shipping_included;not null;default:false"`
	OriginPostcode   *string                `gorm:"column:origin_postcode"`
	PackageLengthCM  *int                   `gorm:"column:package_length_cm"`
	PackageWidthCM   *int                   `gorm:"column:package_width_cm"`
	PackageHeightCM  *int                   `gorm:"column:package_height_cm"`
	PackageWeightKG  *float64               `gorm:"column:package_weight_kg;type:numeric(6,2)"`
	SoldAt           *time.Time             `gorm:"column:sold_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
