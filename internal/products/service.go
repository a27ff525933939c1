package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/pagination"
)

// Service exposes listing management operations.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, req CreateProductRequest) (*ProductDTO, error)
	Update(ctx context.Context, sellerID, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	Remove(ctx context.Context, sellerID, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, filters ListFilters, page pagination.Params) (*ListResult, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error)
	MarkSold(ctx context.Context, productID uuid.UUID, at time.Time) error
}

type service struct {
	repo *Repository
}

// NewService constructs a product service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, req CreateProductRequest) (*ProductDTO, error) {
	category, err := enums.ParseProductCategory(strings.TrimSpace(req.Category))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	condition, err := enums.ParseProductCondition(strings.TrimSpace(req.Condition))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition")
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	product := newProductModel(sellerID, req, category, condition, price)
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, sellerID, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your listing")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing is no longer active")
	}

	if req.Title != nil {
		product.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Brand != nil {
		product.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Condition != nil {
		condition, err := enums.ParseProductCondition(strings.TrimSpace(*req.Condition))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition")
		}
		product.Condition = condition
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return nil, err
		}
		product.Price = price
	}
	if req.ShippingIncluded != nil {
		product.ShippingIncluded = *req.ShippingIncluded
	}
	if req.OriginPostcode != nil {
		product.OriginPostcode = req.OriginPostcode
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save product")
	}
	return FromModel(saved), nil
}

func (s *service) Remove(ctx context.Context, sellerID, productID uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.SellerID != sellerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not your listing")
	}

	ok, err := s.repo.MarkRemoved(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove product")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is no longer active")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) List(ctx context.Context, filters ListFilters, page pagination.Params) (*ListResult, error) {
	rows, more, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}

	result := &ListResult{Items: items}
	if more && len(rows) > 0 {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return items, nil
}

// MarkSold claims the listing for a settled sale. The conditional update
// means the second of two racing buyers gets a state conflict instead of
// a double sale.
func (s *service) MarkSold(ctx context.Context, productID uuid.UUID, at time.Time) error {
	ok, err := s.repo.MarkSold(ctx, productID, at)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark product sold")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product is no longer available")
	}
	return nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid price")
	}
	if price.IsNegative() || price.IsZero() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if price.Exponent() < -2 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price cannot have more than two decimal places")
	}
	return price, nil
}
