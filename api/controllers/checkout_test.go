package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/api/middleware"
	checkoutsvc "github.com/clubswap/clubswap-backend/internal/checkout"
	"github.com/clubswap/clubswap-backend/internal/orders"
	"github.com/clubswap/clubswap-backend/internal/payments/stripecheckout"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

type stubCheckoutService struct {
	intent *checkoutsvc.Intent
	err    error
}

func (s stubCheckoutService) BuildIntent(ctx context.Context, productID uuid.UUID, opts checkoutsvc.BuildIntentOptions) (*checkoutsvc.Intent, error) {
	return s.intent, s.err
}

func (s stubCheckoutService) BuildCartIntent(ctx context.Context, buyerID uuid.UUID, productIDs []uuid.UUID) (*checkoutsvc.Intent, error) {
	return s.intent, s.err
}

type stubSessionService struct {
	session *stripecheckout.Session
	err     error
}

func (s stubSessionService) CreateSession(ctx context.Context, intent *checkoutsvc.Intent) (*stripecheckout.Session, error) {
	return s.session, s.err
}

type stubOrdersService struct {
	recorded []string
	err      error
}

func (s *stubOrdersService) RecordIntent(ctx context.Context, buyerID uuid.UUID, provider enums.PaymentProvider, providerRef string, intent *checkoutsvc.Intent) ([]orders.TransactionDTO, error) {
	s.recorded = append(s.recorded, providerRef)
	return nil, s.err
}

func (s *stubOrdersService) MarkCompleted(ctx context.Context, providerRef string, at time.Time) (int64, error) {
	return 0, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubOrdersService) MarkFailed(ctx context.Context, providerRef string) (int64, error) {
	return 0, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubOrdersService) ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]orders.TransactionDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubOrdersService) ListSales(ctx context.Context, sellerID uuid.UUID) ([]orders.TransactionDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func testIntent() *checkoutsvc.Intent {
	price := decimal.RequireFromString("320.00")
	shipping := decimal.RequireFromString("6.95")
	return &checkoutsvc.Intent{
		Currency:            enums.CurrencyGBP,
		ItemTotal:           price,
		ShippingCost:        shipping,
		ShippingDescription: "Royal Mail Tracked 48",
		DiscountAmount:      decimal.Zero,
		CommissionRate:      decimal.RequireFromString("0.05"),
		CommissionAmount:    decimal.RequireFromString("16.00"),
		SellerReceives:      decimal.RequireFromString("304.00"),
		Total:               price.Add(shipping),
	}
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	ordersStub := &stubOrdersService{}
	handler := Checkout(
		stubCheckoutService{intent: testIntent()},
		stubSessionService{session: &stripecheckout.Session{ID: "cs_test_123", URL: "https://checkout.stripe.com/pay/cs_test_123"}},
		ordersStub,
		nil,
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"product_id":"`+uuid.NewString()+`","shipping_option_id":"rm-tracked-48"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data checkoutResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID != "cs_test_123" {
		t.Fatalf("unexpected session id: %s", envelope.Data.SessionID)
	}
	if envelope.Data.Commission.Amount.StringFixed(2) != "16.00" {
		t.Fatalf("unexpected commission amount: %s", envelope.Data.Commission.Amount)
	}
	if envelope.Data.Total.StringFixed(2) != "326.95" {
		t.Fatalf("unexpected total: %s", envelope.Data.Total)
	}
	if len(ordersStub.recorded) != 1 || ordersStub.recorded[0] != "cs_test_123" {
		t.Fatalf("expected intent recorded under session id, got %v", ordersStub.recorded)
	}
}

func TestCheckoutRequiresAuth(t *testing.T) {
	t.Parallel()

	handler := Checkout(stubCheckoutService{intent: testIntent()}, stubSessionService{}, &stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"product_id":"`+uuid.NewString()+`"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutValidationError(t *testing.T) {
	t.Parallel()

	handler := Checkout(stubCheckoutService{intent: testIntent()}, stubSessionService{}, &stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutListingNotFound(t *testing.T) {
	t.Parallel()

	handler := Checkout(
		stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")},
		stubSessionService{},
		&stubOrdersService{},
		nil,
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"product_id":"`+uuid.NewString()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartCheckoutSuccess(t *testing.T) {
	t.Parallel()

	ordersStub := &stubOrdersService{}
	handler := CartCheckout(
		stubCheckoutService{intent: testIntent()},
		stubSessionService{session: &stripecheckout.Session{ID: "cs_test_cart", URL: "https://checkout.stripe.com/pay/cs_test_cart"}},
		ordersStub,
		nil,
	)

	body := `{"product_ids":["` + uuid.NewString() + `","` + uuid.NewString() + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(ordersStub.recorded) != 1 || ordersStub.recorded[0] != "cs_test_cart" {
		t.Fatalf("expected intent recorded under session id, got %v", ordersStub.recorded)
	}
}

func TestCartCheckoutRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	handler := CartCheckout(stubCheckoutService{intent: testIntent()}, stubSessionService{}, &stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart", strings.NewReader(`{"product_ids":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
