package paypalorders

import (
	"context"
	"fmt"
	"strings"

	paypallib "github.com/plutov/paypal/v4"

	"github.com/clubswap/clubswap-backend/internal/checkout"
	"github.com/clubswap/clubswap-backend/pkg/config"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	pkgpaypal "github.com/clubswap/clubswap-backend/pkg/paypal"
)

// PayPalOrderClient exposes the subset of PayPal operations required by
// the order service.
type PayPalOrderClient interface {
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypallib.PurchaseUnitRequest, payer *paypallib.CreateOrderPayer, appContext *paypallib.ApplicationContext) (*paypallib.Order, error)
	CaptureOrder(ctx context.Context, orderID string, request paypallib.CaptureOrderRequest) (*paypallib.CaptureOrderResponse, error)
}

type paypalClientWrapper struct {
	api *paypallib.Client
}

// NewPayPalClient wraps the configured PayPal client so the order
// service can be tested.
func NewPayPalClient(client *pkgpaypal.Client) PayPalOrderClient {
	if client == nil {
		return nil
	}
	return &paypalClientWrapper{api: client.API()}
}

func (w *paypalClientWrapper) CreateOrder(ctx context.Context, intent string, purchaseUnits []paypallib.PurchaseUnitRequest, payer *paypallib.CreateOrderPayer, appContext *paypallib.ApplicationContext) (*paypallib.Order, error) {
	return w.api.CreateOrder(ctx, intent, purchaseUnits, payer, appContext)
}

func (w *paypalClientWrapper) CaptureOrder(ctx context.Context, orderID string, request paypallib.CaptureOrderRequest) (*paypallib.CaptureOrderResponse, error) {
	return w.api.CaptureOrder(ctx, orderID, request)
}

// Order is the created PayPal order handed back to the client.
type Order struct {
	ID          string `json:"paypal_order_id"`
	ApprovalURL string `json:"approval_url"`
}

// CaptureResult reports the outcome of capturing an approved order.
type CaptureResult struct {
	OrderID   string `json:"paypal_order_id"`
	Status    string `json:"status"`
	Completed bool   `json:"completed"`
}

// Service turns checkout intents into PayPal orders and captures them
// after buyer approval.
type Service interface {
	CreateOrder(ctx context.Context, intent *checkout.Intent) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error)
}

// ServiceParams lists the collaborators needed by the order service.
type ServiceParams struct {
	Client    PayPalOrderClient
	App       config.AppConfig
	BrandName string
}

type service struct {
	client    PayPalOrderClient
	app       config.AppConfig
	brandName string
}

// NewService constructs a PayPal order service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("paypal order client required")
	}
	return &service{
		client:    params.Client,
		app:       params.App,
		brandName: params.BrandName,
	}, nil
}

// CreateOrder builds a capture-intent order carrying the item breakdown
// and the commission metadata as the purchase unit's custom id.
func (s *service) CreateOrder(ctx context.Context, intent *checkout.Intent) (*Order, error) {
	if intent == nil || len(intent.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intent has no items")
	}

	currency := intent.Currency.String()

	items := make([]paypallib.Item, 0, len(intent.Items))
	for _, item := range intent.Items {
		items = append(items, paypallib.Item{
			Name:     item.Title,
			Quantity: "1",
			UnitAmount: &paypallib.Money{
				Currency: currency,
				Value:    item.Price.StringFixed(2),
			},
		})
	}

	breakdown := &paypallib.PurchaseUnitAmountBreakdown{
		ItemTotal: &paypallib.Money{
			Currency: currency,
			Value:    intent.ItemTotal.StringFixed(2),
		},
	}
	if intent.ShippingCost.IsPositive() {
		breakdown.Shipping = &paypallib.Money{
			Currency: currency,
			Value:    intent.ShippingCost.StringFixed(2),
		}
	}
	if intent.DiscountAmount.IsPositive() {
		breakdown.Discount = &paypallib.Money{
			Currency: currency,
			Value:    intent.DiscountAmount.StringFixed(2),
		}
	}

	units := []paypallib.PurchaseUnitRequest{{
		Amount: &paypallib.PurchaseUnitAmount{
			Currency:  currency,
			Value:     intent.Total.StringFixed(2),
			Breakdown: breakdown,
		},
		Items:    items,
		CustomID: intent.Metadata["product_id"],
	}}

	appCtx := &paypallib.ApplicationContext{
		BrandName: s.brandName,
		ReturnURL: s.redirectURL("/checkout/success"),
		CancelURL: s.redirectURL("/checkout/cancel"),
	}

	created, err := s.client.CreateOrder(ctx, paypallib.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create paypal order")
	}

	return &Order{
		ID:          created.ID,
		ApprovalURL: approvalLink(created),
	}, nil
}

// CaptureOrder captures an approved order. The settlement itself is
// recorded by the caller once the capture reports completed.
func (s *service) CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error) {
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paypal order id required")
	}

	captured, err := s.client.CaptureOrder(ctx, trimmed, paypallib.CaptureOrderRequest{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capture paypal order")
	}

	return &CaptureResult{
		OrderID:   captured.ID,
		Status:    captured.Status,
		Completed: captured.Status == "COMPLETED",
	}, nil
}

func (s *service) redirectURL(path string) string {
	return strings.TrimRight(s.app.BaseURL, "/") + path
}

func approvalLink(order *paypallib.Order) string {
	for _, link := range order.Links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}
