package orders

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/internal/products"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SettlementParams bundles the settlement dependencies.
type SettlementParams struct {
	Orders            *Repository
	Products          *products.Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Settlement finalizes checkout sessions once the payment provider
// confirms or abandons them. Both the Stripe webhook and the PayPal
// capture flow run through it.
type Settlement struct {
	orders   *Repository
	products *products.Repository
	txRunner txRunner
	logg     *logger.Logger
}

func NewSettlement(params SettlementParams) (*Settlement, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Settlement{
		orders:   params.Orders,
		products: params.Products,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
	}, nil
}

// Settle completes the pending transactions under the provider
// reference and marks the purchased listings sold. Replays settle zero
// rows and return cleanly.
func (s *Settlement) Settle(ctx context.Context, providerRef string) (int64, error) {
	if providerRef == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "provider reference required")
	}

	now := time.Now().UTC()
	var settled int64
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		productsRepo := s.products.WithTx(tx)

		rows, err := ordersRepo.FindByProviderRef(ctx, providerRef)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session transactions")
		}
		if len(rows) == 0 {
			s.logg.Warn(ctx, fmt.Sprintf("no transactions recorded for session %s", providerRef))
			return nil
		}

		settled, err = ordersRepo.MarkCompletedByProviderRef(ctx, providerRef, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete session transactions")
		}
		if settled == 0 {
			return nil
		}

		for _, row := range rows {
			sold, err := productsRepo.MarkSold(ctx, row.ProductID, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark product sold")
			}
			if !sold {
				s.logg.Warn(s.logg.WithField(ctx, "product_id", row.ProductID.String()),
					"product already off market at settlement")
			}
		}

		s.logg.Info(ctx, fmt.Sprintf("settled %d transactions for session %s", settled, providerRef))
		return nil
	})
	return settled, err
}

// Fail marks the pending transactions failed. The listings stay
// purchasable.
func (s *Settlement) Fail(ctx context.Context, providerRef string) (int64, error) {
	if providerRef == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "provider reference required")
	}
	failed, err := s.orders.MarkFailedByProviderRef(ctx, providerRef)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fail session transactions")
	}
	if failed > 0 {
		s.logg.Info(ctx, fmt.Sprintf("marked %d transactions failed for session %s", failed, providerRef))
	}
	return failed, nil
}
