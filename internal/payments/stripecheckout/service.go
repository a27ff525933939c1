package stripecheckout

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/clubswap/clubswap-backend/internal/checkout"
	"github.com/clubswap/clubswap-backend/pkg/config"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	pkgstripe "github.com/clubswap/clubswap-backend/pkg/stripe"
)

// StripeSessionClient exposes the subset of Stripe operations required
// by the checkout session service.
type StripeSessionClient interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the configured Stripe client so the session
// service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeSessionClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}

// Session is the hosted checkout session handed back to the client.
type Session struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// Service turns checkout intents into hosted Stripe Checkout sessions.
type Service interface {
	CreateSession(ctx context.Context, intent *checkout.Intent) (*Session, error)
}

// ServiceParams lists the collaborators needed by the session service.
type ServiceParams struct {
	Client StripeSessionClient
	App    config.AppConfig
	Stripe config.StripeConfig
}

type service struct {
	client StripeSessionClient
	app    config.AppConfig
	stripe config.StripeConfig
}

// NewService constructs a Stripe checkout service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	return &service{
		client: params.Client,
		app:    params.App,
		stripe: params.Stripe,
	}, nil
}

// CreateSession builds the hosted session from the intent's line items
// and embeds the commission metadata for later reconciliation.
func (s *service) CreateSession(ctx context.Context, intent *checkout.Intent) (*Session, error) {
	if intent == nil || len(intent.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intent has no items")
	}

	currency := strings.ToLower(intent.Currency.String())

	amounts := make([]int64, len(intent.Items))
	for i, item := range intent.Items {
		amounts[i] = toMinorUnits(item.Price)
	}
	spreadDiscount(amounts, toMinorUnits(intent.DiscountAmount))

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(intent.Items)+1)
	for i, item := range intent.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(amounts[i]),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Title),
				},
			},
		})
	}
	if intent.ShippingCost.IsPositive() {
		name := intent.ShippingDescription
		if name == "" {
			name = "Shipping"
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(toMinorUnits(intent.ShippingCost)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(s.redirectURL(s.stripe.SuccessPath)),
		CancelURL:  stripe.String(s.redirectURL(s.stripe.CancelPath)),
	}
	for key, value := range intent.Metadata {
		params.AddMetadata(key, value)
	}

	created, err := s.client.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe checkout session")
	}

	return &Session{ID: created.ID, URL: created.URL}, nil
}

func (s *service) redirectURL(path string) string {
	base := strings.TrimRight(s.app.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// toMinorUnits converts a major-unit GBP amount to pence. Listing
// prices carry at most two decimal places, so the product is integral.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// spreadDiscount reduces the line amounts in place by a minor-unit
// discount, allocated proportionally. Hosted checkout has no negative
// line items, so the discount has to live inside the item prices for
// the session to charge the intent total. The discount covers items
// only, never shipping.
func spreadDiscount(amounts []int64, discount int64) {
	var subtotal int64
	for _, amount := range amounts {
		subtotal += amount
	}
	if discount <= 0 || subtotal <= 0 {
		return
	}
	if discount > subtotal {
		discount = subtotal
	}

	var allocated int64
	for i, amount := range amounts {
		share := discount * amount / subtotal
		amounts[i] = amount - share
		allocated += share
	}
	// Flooring leaves a penny remainder per line at most; take the rest
	// from lines that still have balance.
	for i := 0; allocated < discount; i = (i + 1) % len(amounts) {
		if amounts[i] > 0 {
			amounts[i]--
			allocated++
		}
	}
}
