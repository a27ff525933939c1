package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// Repository wires together sale transaction persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateAll inserts the transaction rows for one checkout session.
func (r *Repository) CreateAll(ctx context.Context, rows []*models.SaleTransaction) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// FindByProviderRef loads every row recorded under a provider session
// or order id.
func (r *Repository) FindByProviderRef(ctx context.Context, providerRef string) ([]models.SaleTransaction, error) {
	var rows []models.SaleTransaction
	err := r.db.WithContext(ctx).
		Where("provider_ref = ?", providerRef).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// MarkCompletedByProviderRef settles every pending row for the provider
// reference. Rows already completed or failed are left untouched, so a
// replayed webhook settles nothing twice.
func (r *Repository) MarkCompletedByProviderRef(ctx context.Context, providerRef string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SaleTransaction{}).
		Where("provider_ref = ? AND status = ?", providerRef, enums.TransactionStatusPending).
		Updates(map[string]any{
			"status":       enums.TransactionStatusCompleted,
			"completed_at": at,
		})
	return res.RowsAffected, res.Error
}

// MarkFailedByProviderRef records an abandoned or rejected session.
func (r *Repository) MarkFailedByProviderRef(ctx context.Context, providerRef string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SaleTransaction{}).
		Where("provider_ref = ? AND status = ?", providerRef, enums.TransactionStatusPending).
		Update("status", enums.TransactionStatusFailed)
	return res.RowsAffected, res.Error
}

// ListCompletedWithoutPayout returns settled sales not yet paid out,
// oldest first. Sales whose last attempt failed stay in the set so the
// next run retries them; only a paid row removes a sale.
func (r *Repository) ListCompletedWithoutPayout(ctx context.Context, limit int) ([]models.SaleTransaction, error) {
	var rows []models.SaleTransaction
	err := r.db.WithContext(ctx).
		Joins("LEFT JOIN payouts ON payouts.transaction_id = sale_transactions.id AND payouts.status = ?", enums.PayoutStatusPaid).
		Where("sale_transactions.status = ? AND payouts.id IS NULL", enums.TransactionStatusCompleted).
		Order("sale_transactions.completed_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

// ListByBuyer returns a buyer's purchase history, newest first.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.SaleTransaction, error) {
	var rows []models.SaleTransaction
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListBySeller returns a seller's sales history, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SaleTransaction, error) {
	var rows []models.SaleTransaction
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// SellerSalesSummary aggregates a seller's settled sales.
type SellerSalesSummary struct {
	CompletedCount int64
	GrossTotal     float64
	NetTotal       float64
}

// SummarizeSeller totals the seller's completed sales for dashboards.
func (r *Repository) SummarizeSeller(ctx context.Context, sellerID uuid.UUID) (*SellerSalesSummary, error) {
	var row struct {
		CompletedCount int64
		GrossTotal     *float64
		NetTotal       *float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.SaleTransaction{}).
		Select("COUNT(*) AS completed_count, SUM(gross_amount) AS gross_total, SUM(seller_receives) AS net_total").
		Where("seller_id = ? AND status = ?", sellerID, enums.TransactionStatusCompleted).
		Scan(&row).
		Error
	if err != nil {
		return nil, err
	}

	summary := &SellerSalesSummary{CompletedCount: row.CompletedCount}
	if row.GrossTotal != nil {
		summary.GrossTotal = *row.GrossTotal
	}
	if row.NetTotal != nil {
		summary.NetTotal = *row.NetTotal
	}
	return summary, nil
}
