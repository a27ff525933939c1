package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/internal/shipping"
	"github.com/clubswap/clubswap-backend/pkg/commission"
	"github.com/clubswap/clubswap-backend/pkg/config"
	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type discountProvider interface {
	DiscountPercentFor(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// BuildIntentOptions carries the buyer's optional shipping selection.
type BuildIntentOptions struct {
	ShippingOptionID    string
	DestinationPostcode string
}

// Service assembles checkout intents from listings, seller tiers and
// shipping quotes.
type Service interface {
	BuildIntent(ctx context.Context, productID uuid.UUID, opts BuildIntentOptions) (*Intent, error)
	BuildCartIntent(ctx context.Context, buyerID uuid.UUID, productIDs []uuid.UUID) (*Intent, error)
}

// ServiceParams lists the collaborators needed by the checkout service.
// Quoter and Discounts are optional; without them intents carry zero
// shipping and no discount.
type ServiceParams struct {
	Products  productFinder
	Users     userFinder
	Quoter    shipping.Quoter
	Discounts discountProvider
	Config    config.CheckoutConfig
	Logger    *logger.Logger
}

type service struct {
	products  productFinder
	users     userFinder
	quoter    shipping.Quoter
	discounts discountProvider
	cfg       config.CheckoutConfig
	logg      *logger.Logger
}

// NewService constructs a checkout service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		products:  params.Products,
		users:     params.Users,
		quoter:    params.Quoter,
		discounts: params.Discounts,
		cfg:       params.Config,
		logg:      params.Logger,
	}, nil
}

// BuildIntent prices a single listing. Shipping is best effort: a
// failed or unresolvable quote yields a zero shipping cost instead of
// failing the checkout.
func (s *service) BuildIntent(ctx context.Context, productID uuid.UUID, opts BuildIntentOptions) (*Intent, error) {
	product, err := s.loadActiveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	tier := s.sellerTier(ctx, product.SellerID)
	split := commission.Calculate(product.Price, tier)

	shippingCost := decimal.Zero
	shippingDescription := ""
	if !product.ShippingIncluded && opts.ShippingOptionID != "" {
		if option := s.resolveShippingOption(ctx, product, opts); option != nil {
			shippingCost = option.Price
			shippingDescription = fmt.Sprintf("%s %s", option.Carrier, option.Service)
		}
	}

	total := product.Price.Add(shippingCost)

	meta := make(map[string]string)
	metadataSet(meta, "product_id", product.ID.String())
	metadataSet(meta, "seller_id", product.SellerID.String())
	metadataSet(meta, "commission_rate", split.Rate.String())
	metadataSet(meta, "commission_amount", split.CommissionAmount.StringFixed(2))
	metadataSet(meta, "seller_receives", split.SellerReceives.StringFixed(2))
	metadataSet(meta, "shipping_cost", shippingCost.StringFixed(2))

	return &Intent{
		Items: []LineItem{{
			ProductID:        product.ID,
			SellerID:         product.SellerID,
			Title:            product.Title,
			Price:            product.Price,
			CommissionRate:   split.Rate,
			CommissionAmount: split.CommissionAmount,
			SellerReceives:   split.SellerReceives,
		}},
		Currency:            enums.CurrencyGBP,
		ItemTotal:           product.Price,
		ShippingCost:        shippingCost,
		ShippingDescription: shippingDescription,
		DiscountAmount:      decimal.Zero,
		CommissionRate:      split.Rate,
		CommissionAmount:    split.CommissionAmount,
		SellerReceives:      split.SellerReceives,
		Total:               total,
		Metadata:            meta,
	}, nil
}

// BuildCartIntent prices a multi-item cart. Commission is computed per
// item against each seller's tier and summed. A flat shipping fee
// applies below the free-shipping threshold; the threshold compares the
// pre-discount subtotal.
func (s *service) BuildCartIntent(ctx context.Context, buyerID uuid.UUID, productIDs []uuid.UUID) (*Intent, error) {
	if len(productIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	items := make([]LineItem, 0, len(productIDs))
	subtotal := decimal.Zero
	commissionTotal := decimal.Zero
	sellerTotal := decimal.Zero
	tiers := make(map[uuid.UUID]enums.SellerTier)

	for _, id := range productIDs {
		product, err := s.loadActiveProduct(ctx, id)
		if err != nil {
			return nil, err
		}

		tier, ok := tiers[product.SellerID]
		if !ok {
			tier = s.sellerTier(ctx, product.SellerID)
			tiers[product.SellerID] = tier
		}

		split := commission.Calculate(product.Price, tier)
		items = append(items, LineItem{
			ProductID:        product.ID,
			SellerID:         product.SellerID,
			Title:            product.Title,
			Price:            product.Price,
			CommissionRate:   split.Rate,
			CommissionAmount: split.CommissionAmount,
			SellerReceives:   split.SellerReceives,
		})
		subtotal = subtotal.Add(product.Price)
		commissionTotal = commissionTotal.Add(split.CommissionAmount)
		sellerTotal = sellerTotal.Add(split.SellerReceives)
	}

	shippingCost, shippingDescription, err := s.cartShipping(subtotal)
	if err != nil {
		return nil, err
	}

	discount := s.cartDiscount(ctx, buyerID, subtotal)
	total := subtotal.Sub(discount).Add(shippingCost)

	productIDStrings := make([]string, 0, len(items))
	sellerIDStrings := make([]string, 0, len(items))
	for _, item := range items {
		productIDStrings = append(productIDStrings, item.ProductID.String())
		sellerIDStrings = append(sellerIDStrings, item.SellerID.String())
	}

	meta := make(map[string]string)
	metadataSet(meta, "product_ids", strings.Join(productIDStrings, ","))
	metadataSet(meta, "seller_ids", strings.Join(sellerIDStrings, ","))
	metadataSet(meta, "commission_amount", commissionTotal.StringFixed(2))
	metadataSet(meta, "seller_receives", sellerTotal.StringFixed(2))
	metadataSet(meta, "shipping_cost", shippingCost.StringFixed(2))
	if discount.IsPositive() {
		metadataSet(meta, "discount_amount", discount.StringFixed(2))
	}

	return &Intent{
		Items:               items,
		Currency:            enums.CurrencyGBP,
		ItemTotal:           subtotal,
		ShippingCost:        shippingCost,
		ShippingDescription: shippingDescription,
		DiscountAmount:      discount,
		CommissionAmount:    commissionTotal,
		SellerReceives:      sellerTotal,
		Total:               total,
		Metadata:            meta,
	}, nil
}

func (s *service) loadActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product unavailable")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product unavailable")
	}
	return product, nil
}

// sellerTier resolves the listing owner's tier. A missing seller row is
// logged and treated as an unknown tier, which the commission table
// maps to the free rate.
func (s *service) sellerTier(ctx context.Context, sellerID uuid.UUID) enums.SellerTier {
	seller, err := s.users.FindByID(ctx, sellerID)
	if err != nil {
		s.logg.Warn(s.logg.WithSellerID(ctx, sellerID.String()), "seller lookup failed, using fallback commission rate")
		return ""
	}
	return seller.Tier
}

// resolveShippingOption rates the parcel and picks the buyer's chosen
// option. Any failure along the way returns nil so the checkout
// proceeds with zero shipping.
func (s *service) resolveShippingOption(ctx context.Context, product *models.Product, opts BuildIntentOptions) *shipping.QuoteOption {
	if s.quoter == nil {
		return nil
	}
	if product.OriginPostcode == nil || !shipping.ValidatePostcode(*product.OriginPostcode) {
		return nil
	}
	if !shipping.ValidatePostcode(opts.DestinationPostcode) {
		return nil
	}

	req := shipping.QuoteRequest{
		From:     *product.OriginPostcode,
		To:       opts.DestinationPostcode,
		Value:    product.Price,
		Category: product.Category,
	}
	if product.PackageLengthCM != nil {
		req.Dimensions.LengthCM = *product.PackageLengthCM
	}
	if product.PackageWidthCM != nil {
		req.Dimensions.WidthCM = *product.PackageWidthCM
	}
	if product.PackageHeightCM != nil {
		req.Dimensions.HeightCM = *product.PackageHeightCM
	}
	if product.PackageWeightKG != nil {
		req.Dimensions.WeightKG = *product.PackageWeightKG
	}

	result, err := s.quoter.CalculateShipping(ctx, req)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", product.ID.String()), "shipping quote failed, continuing without shipping")
		return nil
	}

	option, ok := result.Option(opts.ShippingOptionID)
	if !ok {
		s.logg.Warn(s.logg.WithField(ctx, "shipping_option_id", opts.ShippingOptionID), "shipping option not offered, continuing without shipping")
		return nil
	}
	return option
}

func (s *service) cartShipping(subtotal decimal.Decimal) (decimal.Decimal, string, error) {
	threshold, err := s.cfg.FreeShippingThresholdAmount()
	if err != nil {
		return decimal.Zero, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse free shipping threshold")
	}
	if subtotal.GreaterThanOrEqual(threshold) {
		return decimal.Zero, "Free shipping", nil
	}

	fee, err := s.cfg.FlatShippingFeeAmount()
	if err != nil {
		return decimal.Zero, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse flat shipping fee")
	}
	return fee, "Standard shipping", nil
}

// cartDiscount applies the buyer's student discount percent, when one
// is verified. Discount failures never block a checkout.
func (s *service) cartDiscount(ctx context.Context, buyerID uuid.UUID, subtotal decimal.Decimal) decimal.Decimal {
	if s.discounts == nil || buyerID == uuid.Nil {
		return decimal.Zero
	}
	percent, err := s.discounts.DiscountPercentFor(ctx, buyerID)
	if err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, buyerID.String()), "discount lookup failed, continuing without discount")
		return decimal.Zero
	}
	if !percent.IsPositive() {
		return decimal.Zero
	}
	return subtotal.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
}
