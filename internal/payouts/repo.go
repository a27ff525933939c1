package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// Repository wires together payout persistence helpers.
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

// RecordPaid upserts the payout row for a sale as paid. The unique
// transaction index is the double-pay gate; a retry after a failed
// attempt flips the existing row to paid instead of inserting a second
// one.
func (r *Repository) RecordPaid(ctx context.Context, payout *models.Payout) error {
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	payout.Status = enums.PayoutStatusPaid
	payout.FailureReason = nil
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":             enums.PayoutStatusPaid,
			"stripe_transfer_id": payout.StripeTransferID,
			"failure_reason":     nil,
		}),
	}).Create(payout).Error
}

// RecordFailed upserts a failed payout row for the sale. A row already
// marked paid is left alone: the transfer went through on another run
// and the failure here was observational.
func (r *Repository) RecordFailed(ctx context.Context, payout *models.Payout) error {
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	payout.Status = enums.PayoutStatusFailed
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":         enums.PayoutStatusFailed,
			"failure_reason": payout.FailureReason,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: "payouts", Name: "status"}, Value: enums.PayoutStatusPaid},
		}},
	}).Create(payout).Error
}

// FindByTransactionID loads the payout recorded for a sale, if any.
func (r *Repository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).First(&payout, "transaction_id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

// ListBySeller returns the seller's payout history, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Payout, error) {
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}
