package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clubswap/clubswap-backend/internal/checkout"
	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

// Service records and settles the activity log of checkout sessions.
type Service interface {
	RecordIntent(ctx context.Context, buyerID uuid.UUID, provider enums.PaymentProvider, providerRef string, intent *checkout.Intent) ([]TransactionDTO, error)
	MarkCompleted(ctx context.Context, providerRef string, at time.Time) (int64, error)
	MarkFailed(ctx context.Context, providerRef string) (int64, error)
	ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]TransactionDTO, error)
	ListSales(ctx context.Context, sellerID uuid.UUID) ([]TransactionDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs an orders service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// RecordIntent writes one pending transaction row per line item under
// the provider's session or order id. The cart-level shipping fee is
// carried on the first row. Rows keep full listing prices and the
// commission split computed on them; a cart discount is funded by the
// marketplace, so the buyer's charge can be below the row sum while
// seller proceeds stay intact.
func (s *service) RecordIntent(ctx context.Context, buyerID uuid.UUID, provider enums.PaymentProvider, providerRef string, intent *checkout.Intent) ([]TransactionDTO, error) {
	if intent == nil || len(intent.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intent has no items")
	}
	if providerRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider reference required")
	}

	rows := make([]*models.SaleTransaction, 0, len(intent.Items))
	for i, item := range intent.Items {
		row := &models.SaleTransaction{
			ProductID:        item.ProductID,
			SellerID:         item.SellerID,
			BuyerID:          buyerID,
			Provider:         provider,
			ProviderRef:      providerRef,
			Currency:         intent.Currency,
			GrossAmount:      item.Price,
			CommissionRate:   item.CommissionRate,
			CommissionAmount: item.CommissionAmount,
			SellerReceives:   item.SellerReceives,
			Status:           enums.TransactionStatusPending,
		}
		if i == 0 {
			row.ShippingCost = intent.ShippingCost
		}
		rows = append(rows, row)
	}

	if err := s.repo.CreateAll(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record sale transactions")
	}

	out := make([]TransactionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, *FromModel(row))
	}
	return out, nil
}

func (s *service) MarkCompleted(ctx context.Context, providerRef string, at time.Time) (int64, error) {
	settled, err := s.repo.MarkCompletedByProviderRef(ctx, providerRef, at)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle sale transactions")
	}
	return settled, nil
}

func (s *service) MarkFailed(ctx context.Context, providerRef string) (int64, error) {
	failed, err := s.repo.MarkFailedByProviderRef(ctx, providerRef)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fail sale transactions")
	}
	return failed, nil
}

func (s *service) ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]TransactionDTO, error) {
	rows, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list purchases")
	}
	return fromModels(rows), nil
}

func (s *service) ListSales(ctx context.Context, sellerID uuid.UUID) ([]TransactionDTO, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sales")
	}
	return fromModels(rows), nil
}
