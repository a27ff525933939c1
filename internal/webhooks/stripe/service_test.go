package stripewebhook

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/internal/orders"
	"github.com/clubswap/clubswap-backend/internal/products"
	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	transactions := `
CREATE TABLE IF NOT EXISTS sale_transactions (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  provider TEXT NOT NULL,
  provider_ref TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'GBP',
  gross_amount NUMERIC NOT NULL,
  shipping_cost NUMERIC NOT NULL DEFAULT 0,
  commission_rate NUMERIC NOT NULL,
  commission_amount NUMERIC NOT NULL,
  seller_receives NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	productsDDL := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  brand TEXT NOT NULL,
  category TEXT NOT NULL,
  condition TEXT NOT NULL,
  price NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  shipping_included INTEGER NOT NULL DEFAULT 0,
  origin_postcode TEXT,
  package_length_cm INTEGER,
  package_width_cm INTEGER,
  package_height_cm INTEGER,
  package_weight_kg NUMERIC,
  sold_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(transactions).Error)
	require.NoError(t, db.Exec(productsDDL).Error)

	t.Cleanup(func() {
		_ = db.Exec("DELETE FROM sale_transactions").Error
		_ = db.Exec("DELETE FROM products").Error
	})

	return db
}

func newWebhookService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()

	settlement, err := orders.NewSettlement(orders.SettlementParams{
		Orders:            orders.NewRepository(db),
		Products:          products.NewRepository(db),
		TransactionRunner: gormTxRunner{db: db},
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{Settlement: settlement})
	require.NoError(t, err)
	return svc
}

func seedSession(t *testing.T, db *gorm.DB, sessionID string, productIDs ...uuid.UUID) {
	t.Helper()

	for _, productID := range productIDs {
		product := &models.Product{
			ID:        productID,
			SellerID:  uuid.New(),
			Title:     "Scotty Cameron Newport 2",
			Brand:     "Titleist",
			Category:  enums.ProductCategoryPutters,
			Condition: enums.ProductConditionGood,
			Price:     decimal.RequireFromString("320.00"),
			Status:    enums.ProductStatusActive,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		require.NoError(t, db.Create(product).Error)

		row := &models.SaleTransaction{
			ID:               uuid.New(),
			ProductID:        productID,
			SellerID:         product.SellerID,
			BuyerID:          uuid.New(),
			Provider:         enums.PaymentProviderStripe,
			ProviderRef:      sessionID,
			Currency:         enums.CurrencyGBP,
			GrossAmount:      product.Price,
			CommissionRate:   decimal.RequireFromString("0.05"),
			CommissionAmount: decimal.RequireFromString("16.00"),
			SellerReceives:   decimal.RequireFromString("304.00"),
			Status:           enums.TransactionStatusPending,
			CreatedAt:        time.Now().UTC(),
			UpdatedAt:        time.Now().UTC(),
		}
		require.NoError(t, db.Create(row).Error)
	}
}

func sessionEvent(t *testing.T, eventType stripe.EventType, sessionID string) *stripe.Event {
	t.Helper()

	raw, err := json.Marshal(&stripe.CheckoutSession{ID: sessionID})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventSessionCompleted(t *testing.T) {
	db := setupWebhookTestDB(t)
	svc := newWebhookService(t, db)

	productID := uuid.New()
	seedSession(t, db, "cs_test_settle", productID)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_settle")
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	var tx models.SaleTransaction
	require.NoError(t, db.Where("provider_ref = ?", "cs_test_settle").First(&tx).Error)
	assert.Equal(t, enums.TransactionStatusCompleted, tx.Status)
	assert.NotNil(t, tx.CompletedAt)

	var product models.Product
	require.NoError(t, db.Where("id = ?", productID).First(&product).Error)
	assert.Equal(t, enums.ProductStatusSold, product.Status)
	assert.NotNil(t, product.SoldAt)
}

func TestHandleEventReplayIsIdempotent(t *testing.T) {
	db := setupWebhookTestDB(t)
	svc := newWebhookService(t, db)

	seedSession(t, db, "cs_test_replay", uuid.New())

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_replay")
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	var count int64
	require.NoError(t, db.Model(&models.SaleTransaction{}).
		Where("provider_ref = ? AND status = ?", "cs_test_replay", enums.TransactionStatusCompleted).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestHandleEventSessionExpired(t *testing.T) {
	db := setupWebhookTestDB(t)
	svc := newWebhookService(t, db)

	productID := uuid.New()
	seedSession(t, db, "cs_test_expired", productID)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionExpired, "cs_test_expired")
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	var tx models.SaleTransaction
	require.NoError(t, db.Where("provider_ref = ?", "cs_test_expired").First(&tx).Error)
	assert.Equal(t, enums.TransactionStatusFailed, tx.Status)

	// The listing stays purchasable after an abandoned session.
	var product models.Product
	require.NoError(t, db.Where("id = ?", productID).First(&product).Error)
	assert.Equal(t, enums.ProductStatusActive, product.Status)
}

func TestHandleEventUnknownSessionIsAcknowledged(t *testing.T) {
	db := setupWebhookTestDB(t)
	svc := newWebhookService(t, db)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_unknown")
	require.NoError(t, svc.HandleEvent(context.Background(), event))
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	db := setupWebhookTestDB(t)
	svc := newWebhookService(t, db)

	event := &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventTypeCustomerCreated,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
}

func TestHandleEventRejectsMissingData(t *testing.T) {
	db := setupWebhookTestDB(t)
	svc := newWebhookService(t, db)

	require.Error(t, svc.HandleEvent(context.Background(), &stripe.Event{Type: stripe.EventTypeCheckoutSessionCompleted}))
}

type fakeIdempotencyStore struct {
	keys map[string]string
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return f.keys[key], nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	if f.keys == nil {
		f.keys = map[string]string{}
	}
	f.keys[key] = "1"
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestIdempotencyGuard(t *testing.T) {
	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "stripe-webhook")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Delete(context.Background(), "evt_1"))
	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}
