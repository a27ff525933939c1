package orders

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

	"github.com/clubswap/clubswap-backend/internal/checkout"
	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
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
	payouts := `
CREATE TABLE IF NOT EXISTS payouts (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL UNIQUE,
  seller_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'GBP',
  stripe_transfer_id TEXT,
  status TEXT NOT NULL,
  failure_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(transactions).Error)
	require.NoError(t, db.Exec(payouts).Error)

	t.Cleanup(func() {
		_ = db.Exec("DELETE FROM payouts").Error
		_ = db.Exec("DELETE FROM sale_transactions").Error
	})

	return db
}

func seedTransaction(t *testing.T, db *gorm.DB, mutate func(*models.SaleTransaction)) *models.SaleTransaction {
	t.Helper()

	tx := &models.SaleTransaction{
		ID:               uuid.New(),
		ProductID:        uuid.New(),
		SellerID:         uuid.New(),
		BuyerID:          uuid.New(),
		Provider:         enums.PaymentProviderStripe,
		ProviderRef:      "cs_test_" + uuid.NewString(),
		Currency:         enums.CurrencyGBP,
		GrossAmount:      decimal.RequireFromString("100.00"),
		ShippingCost:     decimal.Zero,
		CommissionRate:   decimal.RequireFromString("0.05"),
		CommissionAmount: decimal.RequireFromString("5.00"),
		SellerReceives:   decimal.RequireFromString("95.00"),
		Status:           enums.TransactionStatusPending,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if mutate != nil {
		mutate(tx)
	}
	require.NoError(t, db.Create(tx).Error)
	return tx
}

func TestRepositoryCreateAllAndFindByProviderRef(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ref := "cs_test_cart"
	rows := []*models.SaleTransaction{
		{
			ID: uuid.New(), ProductID: uuid.New(), SellerID: uuid.New(), BuyerID: uuid.New(),
			Provider: enums.PaymentProviderStripe, ProviderRef: ref, Currency: enums.CurrencyGBP,
			GrossAmount: decimal.RequireFromString("20.00"), ShippingCost: decimal.RequireFromString("5.99"),
			CommissionRate: decimal.RequireFromString("0.05"), CommissionAmount: decimal.RequireFromString("1.00"),
			SellerReceives: decimal.RequireFromString("19.00"), Status: enums.TransactionStatusPending,
		},
		{
			ID: uuid.New(), ProductID: uuid.New(), SellerID: uuid.New(), BuyerID: uuid.New(),
			Provider: enums.PaymentProviderStripe, ProviderRef: ref, Currency: enums.CurrencyGBP,
			GrossAmount: decimal.RequireFromString("25.00"), ShippingCost: decimal.Zero,
			CommissionRate: decimal.RequireFromString("0.05"), CommissionAmount: decimal.RequireFromString("1.25"),
			SellerReceives: decimal.RequireFromString("23.75"), Status: enums.TransactionStatusPending,
		},
	}
	require.NoError(t, repo.CreateAll(ctx, rows))

	found, err := repo.FindByProviderRef(ctx, ref)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestRepositoryMarkCompletedByProviderRef(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	tx := seedTransaction(t, db, nil)
	at := time.Now().UTC()

	settled, err := repo.MarkCompletedByProviderRef(ctx, tx.ProviderRef, at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), settled)

	// Replayed settlement touches nothing.
	settled, err = repo.MarkCompletedByProviderRef(ctx, tx.ProviderRef, at)
	require.NoError(t, err)
	assert.Equal(t, int64(0), settled)

	found, err := repo.FindByProviderRef(ctx, tx.ProviderRef)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, enums.TransactionStatusCompleted, found[0].Status)
	require.NotNil(t, found[0].CompletedAt)
}

func TestRepositoryListCompletedWithoutPayout(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	paid := seedTransaction(t, db, func(tx *models.SaleTransaction) {
		tx.Status = enums.TransactionStatusCompleted
		tx.CompletedAt = &now
	})
	unpaid := seedTransaction(t, db, func(tx *models.SaleTransaction) {
		tx.Status = enums.TransactionStatusCompleted
		tx.CompletedAt = &now
	})
	seedTransaction(t, db, nil) // still pending

	require.NoError(t, db.Create(&models.Payout{
		ID:            uuid.New(),
		TransactionID: paid.ID,
		SellerID:      paid.SellerID,
		Amount:        paid.SellerReceives,
		Currency:      enums.CurrencyGBP,
		Status:        enums.PayoutStatusPaid,
	}).Error)

	rows, err := repo.ListCompletedWithoutPayout(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, unpaid.ID, rows[0].ID)
}

func TestRepositoryListCompletedWithoutPayoutIncludesFailedAttempts(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	failed := seedTransaction(t, db, func(tx *models.SaleTransaction) {
		tx.Status = enums.TransactionStatusCompleted
		tx.CompletedAt = &now
	})

	reason := "account cannot currently receive transfers"
	require.NoError(t, db.Create(&models.Payout{
		ID:            uuid.New(),
		TransactionID: failed.ID,
		SellerID:      failed.SellerID,
		Amount:        failed.SellerReceives,
		Currency:      enums.CurrencyGBP,
		Status:        enums.PayoutStatusFailed,
		FailureReason: &reason,
	}).Error)

	// A failed attempt must not strand the sale; the next run retries it.
	rows, err := repo.ListCompletedWithoutPayout(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, failed.ID, rows[0].ID)

	require.NoError(t, db.Model(&models.Payout{}).
		Where("transaction_id = ?", failed.ID).
		Updates(map[string]any{"status": enums.PayoutStatusPaid, "failure_reason": nil}).Error)

	rows, err = repo.ListCompletedWithoutPayout(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositorySummarizeSeller(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sellerID := uuid.New()
	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		seedTransaction(t, db, func(tx *models.SaleTransaction) {
			tx.SellerID = sellerID
			tx.Status = enums.TransactionStatusCompleted
			tx.CompletedAt = &now
		})
	}
	seedTransaction(t, db, func(tx *models.SaleTransaction) {
		tx.SellerID = sellerID // pending, excluded
	})

	summary, err := repo.SummarizeSeller(ctx, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.CompletedCount)
	assert.InDelta(t, 200.0, summary.GrossTotal, 0.001)
	assert.InDelta(t, 190.0, summary.NetTotal, 0.001)
}

func cartIntent(t *testing.T) *checkout.Intent {
	t.Helper()
	return &checkout.Intent{
		Items: []checkout.LineItem{
			{
				ProductID: uuid.New(), SellerID: uuid.New(), Title: "Wedge",
				Price:          decimal.RequireFromString("20.00"),
				CommissionRate: decimal.RequireFromString("0.05"), CommissionAmount: decimal.RequireFromString("1.00"),
				SellerReceives: decimal.RequireFromString("19.00"),
			},
			{
				ProductID: uuid.New(), SellerID: uuid.New(), Title: "Putter",
				Price:          decimal.RequireFromString("25.00"),
				CommissionRate: decimal.RequireFromString("0.05"), CommissionAmount: decimal.RequireFromString("1.25"),
				SellerReceives: decimal.RequireFromString("23.75"),
			},
		},
		Currency:     enums.CurrencyGBP,
		ItemTotal:    decimal.RequireFromString("45.00"),
		ShippingCost: decimal.RequireFromString("5.99"),
		Total:        decimal.RequireFromString("50.99"),
	}
}

func TestServiceRecordIntentShippingOnFirstRow(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	intent := cartIntent(t)
	buyerID := uuid.New()

	recorded, err := svc.RecordIntent(ctx, buyerID, enums.PaymentProviderStripe, "cs_test_abc", intent)
	require.NoError(t, err)
	require.Len(t, recorded, 2)

	assert.True(t, recorded[0].ShippingCost.Equal(decimal.RequireFromString("5.99")))
	assert.True(t, recorded[1].ShippingCost.IsZero())
	for _, row := range recorded {
		assert.Equal(t, buyerID, row.BuyerID)
		assert.Equal(t, enums.TransactionStatusPending, row.Status)
		assert.Equal(t, "cs_test_abc", row.ProviderRef)
	}
}

func TestServiceRecordIntentValidation(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.RecordIntent(context.Background(), uuid.New(), enums.PaymentProviderStripe, "ref", nil)
	require.Error(t, err)

	_, err = svc.RecordIntent(context.Background(), uuid.New(), enums.PaymentProviderStripe, "", cartIntent(t))
	require.Error(t, err)
}
