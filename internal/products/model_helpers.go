package products

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
)

func newProductModel(sellerID uuid.UUID, req CreateProductRequest, category enums.ProductCategory, condition enums.ProductCondition, price decimal.Decimal) *models.Product {
	return &models.Product{
		SellerID:         sellerID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Brand:            strings.TrimSpace(req.Brand),
		Category:         category,
		Condition:        condition,
		Price:            price,
		Status:           enums.ProductStatusActive,
		ShippingIncluded: req.ShippingIncluded,
		OriginPostcode:   req.OriginPostcode,
		PackageLengthCM:  req.PackageLengthCM,
		PackageWidthCM:   req.PackageWidthCM,
		PackageHeightCM:  req.PackageHeightCM,
		PackageWeightKG:  req.PackageWeightKG,
	}
}
