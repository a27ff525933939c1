package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// CreateProductRequest is the payload for publishing a listing.
type CreateProductRequest struct {
	Title            string  `json:"title" validate:"required,max=140"`
	Description      *string `json:"description,omitempty"`
	Brand            string  `json:"brand" validate:"required,max=80"`
	Category         string  `json:"category" validate:"required"`
	Condition        string  `json:"condition" validate:"required"`
	Price            string  `json:"price" validate:"required"`
	ShippingIncluded bool    `json:"shipping_included"`
	OriginPostcode   *string `json:"origin_postcode,omitempty"`
	PackageLengthCM  *int    `json:"package_length_cm,omitempty"`
	PackageWidthCM   *int    `json:"package_width_cm,omitempty"`
	PackageHeightCM  *int    `json:"package_height_cm,omitempty"`
	PackageWeightKG  *float64 `json:"package_weight_kg,omitempty"`
}

// UpdateProductRequest carries the mutable listing fields.
type UpdateProductRequest struct {
	Title            *string `json:"title,omitempty" validate:"omitempty,max=140"`
	Description      *string `json:"description,omitempty"`
	Brand            *string `json:"brand,omitempty" validate:"omitempty,max=80"`
	Condition        *string `json:"condition,omitempty"`
	Price            *string `json:"price,omitempty"`
	ShippingIncluded *bool   `json:"shipping_included,omitempty"`
	OriginPostcode   *string `json:"origin_postcode,omitempty"`
}

// ProductDTO is the listing shape returned to clients.
type ProductDTO struct {
	ID               uuid.UUID              `json:"id"`
	SellerID         uuid.UUID              `json:"seller_id"`
	Title            string                 `json:"title"`
	Description      *string                `json:"description,omitempty"`
	Brand            string                 `json:"brand"`
	Category         enums.ProductCategory  `json:"category"`
	Condition        enums.ProductCondition `json:"condition"`
	Price            decimal.Decimal        `json:"price"`
	Status           enums.ProductStatus    `json:"status"`
	ShippingIncluded bool                   `json:"shipping_included"`
	OriginPostcode   *string                `json:"origin_postcode,omitempty"`
	SoldAt           *time.Time             `json:"sold_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// ListFilters narrows the public browse query.
type ListFilters struct {
	Category  string
	Condition string
	Brand     string
	SellerID  *uuid.UUID
	MaxPrice  *decimal.Decimal
	MinPrice  *decimal.Decimal
}

// ListResult is a cursor-paginated page of listings.
type ListResult struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:               p.ID,
		SellerID:         p.SellerID,
		Title:            p.Title,
		Description:      p.Description,
		Brand:            p.Brand,
		Category:         p.Category,
		Condition:        p.Condition,
		Price:            p.Price,
		Status:           p.Status,
		ShippingIncluded: p.ShippingIncluded,
		OriginPostcode:   p.OriginPostcode,
		SoldAt:           p.SoldAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
