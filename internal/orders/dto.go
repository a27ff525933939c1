package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// TransactionDTO is the activity-log shape returned to clients.
type TransactionDTO struct {
	ID               uuid.UUID               `json:"id"`
	ProductID        uuid.UUID               `json:"product_id"`
	SellerID         uuid.UUID               `json:"seller_id"`
	BuyerID          uuid.UUID               `json:"buyer_id"`
	Provider         enums.PaymentProvider   `json:"provider"`
	ProviderRef      string                  `json:"provider_ref"`
	Currency         enums.Currency          `json:"currency"`
	GrossAmount      decimal.Decimal         `json:"gross_amount"`
	ShippingCost     decimal.Decimal         `json:"shipping_cost"`
	CommissionRate   decimal.Decimal         `json:"commission_rate"`
	CommissionAmount decimal.Decimal         `json:"commission_amount"`
	SellerReceives   decimal.Decimal         `json:"seller_receives"`
	Status           enums.TransactionStatus `json:"status"`
	CompletedAt      *time.Time              `json:"completed_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

func FromModel(tx *models.SaleTransaction) *TransactionDTO {
	if tx == nil {
		return nil
	}
	return &TransactionDTO{
		ID:               tx.ID,
		ProductID:        tx.ProductID,
		SellerID:         tx.SellerID,
		BuyerID:          tx.BuyerID,
		Provider:         tx.Provider,
		ProviderRef:      tx.ProviderRef,
		Currency:         tx.Currency,
		GrossAmount:      tx.GrossAmount,
		ShippingCost:     tx.ShippingCost,
		CommissionRate:   tx.CommissionRate,
		CommissionAmount: tx.CommissionAmount,
		SellerReceives:   tx.SellerReceives,
		Status:           tx.Status,
		CompletedAt:      tx.CompletedAt,
		CreatedAt:        tx.CreatedAt,
	}
}

func fromModels(rows []models.SaleTransaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
