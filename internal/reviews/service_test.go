package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

func setupReviewsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	reviews := `
CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  reviewer_id TEXT NOT NULL,
  transaction_id TEXT UNIQUE,
  rating INTEGER NOT NULL,
  body TEXT,
  created_at DATETIME
);`
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
	require.NoError(t, db.Exec(reviews).Error)
	require.NoError(t, db.Exec(transactions).Error)

	t.Cleanup(func() {
		_ = db.Exec("DELETE FROM reviews").Error
		_ = db.Exec("DELETE FROM sale_transactions").Error
	})

	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupReviewsTestDB(t)
	svc, err := NewService(NewRepository(db), db)
	require.NoError(t, err)
	return svc, db
}

func seedSale(t *testing.T, db *gorm.DB, buyerID, sellerID uuid.UUID, status enums.TransactionStatus) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	tx := &models.SaleTransaction{
		ID:               uuid.New(),
		ProductID:        uuid.New(),
		SellerID:         sellerID,
		BuyerID:          buyerID,
		Provider:         enums.PaymentProviderStripe,
		ProviderRef:      "cs_" + uuid.NewString()[:8],
		Currency:         enums.CurrencyGBP,
		GrossAmount:      decimal.RequireFromString("100.00"),
		CommissionRate:   decimal.RequireFromString("0.05"),
		CommissionAmount: decimal.RequireFromString("5.00"),
		SellerReceives:   decimal.RequireFromString("95.00"),
		Status:           status,
	}
	if status == enums.TransactionStatusCompleted {
		tx.CompletedAt = &now
	}
	require.NoError(t, db.Create(tx).Error)
	return tx.ID
}

func TestCreateReviewAndRating(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sellerID := uuid.New()
	for _, rating := range []int{5, 4} {
		_, err := svc.Create(ctx, uuid.New(), CreateReviewRequest{SellerID: sellerID, Rating: rating})
		require.NoError(t, err)
	}

	rating, err := svc.SellerRating(ctx, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rating.ReviewCount)
	assert.InDelta(t, 4.5, rating.AverageRating, 0.001)

	listed, err := svc.ListBySeller(ctx, sellerID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestCreateReviewValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	reviewer := uuid.New()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(ctx, reviewer, CreateReviewRequest{SellerID: uuid.New(), Rating: rating})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}

	_, err := svc.Create(ctx, reviewer, CreateReviewRequest{SellerID: reviewer, Rating: 5})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateReviewAgainstSale(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	txID := seedSale(t, db, buyerID, sellerID, enums.TransactionStatusCompleted)

	created, err := svc.Create(ctx, buyerID, CreateReviewRequest{SellerID: sellerID, TransactionID: &txID, Rating: 5})
	require.NoError(t, err)
	require.NotNil(t, created.TransactionID)

	// One review per sale.
	_, err = svc.Create(ctx, buyerID, CreateReviewRequest{SellerID: sellerID, TransactionID: &txID, Rating: 1})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCreateReviewSaleChecks(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()

	missing := uuid.New()
	_, err := svc.Create(ctx, buyerID, CreateReviewRequest{SellerID: sellerID, TransactionID: &missing, Rating: 4})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	pending := seedSale(t, db, buyerID, sellerID, enums.TransactionStatusPending)
	_, err = svc.Create(ctx, buyerID, CreateReviewRequest{SellerID: sellerID, TransactionID: &pending, Rating: 4})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	completed := seedSale(t, db, buyerID, sellerID, enums.TransactionStatusCompleted)
	_, err = svc.Create(ctx, uuid.New(), CreateReviewRequest{SellerID: sellerID, TransactionID: &completed, Rating: 4})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestSellerRatingEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	rating, err := svc.SellerRating(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), rating.ReviewCount)
	assert.Equal(t, 0.0, rating.AverageRating)
}
