package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/api/responses"
	"github.com/clubswap/clubswap-backend/api/validators"
	checkoutsvc "github.com/clubswap/clubswap-backend/internal/checkout"
	"github.com/clubswap/clubswap-backend/internal/orders"
	"github.com/clubswap/clubswap-backend/internal/payments/stripecheckout"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type checkoutRequest struct {
	ProductID           uuid.UUID `json:"product_id" validate:"required"`
	ShippingOptionID    string    `json:"shipping_option_id,omitempty"`
	DestinationPostcode string    `json:"destination_postcode,omitempty"`
}

type cartCheckoutRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" validate:"required,min=1"`
}

type commissionResponse struct {
	Rate           decimal.Decimal `json:"rate"`
	Amount         decimal.Decimal `json:"amount"`
	SellerReceives decimal.Decimal `json:"seller_receives"`
}

type shippingResponse struct {
	Cost        decimal.Decimal `json:"cost"`
	Description string          `json:"description,omitempty"`
}

type checkoutResponse struct {
	SessionID  string             `json:"session_id"`
	URL        string             `json:"url"`
	Commission commissionResponse `json:"commission"`
	Shipping   shippingResponse   `json:"shipping"`
	Discount   decimal.Decimal    `json:"discount"`
	Total      decimal.Decimal    `json:"total"`
}

func newCheckoutResponse(session *stripecheckout.Session, intent *checkoutsvc.Intent) checkoutResponse {
	return checkoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
		Commission: commissionResponse{
			Rate:           intent.CommissionRate,
			Amount:         intent.CommissionAmount,
			SellerReceives: intent.SellerReceives,
		},
		Shipping: shippingResponse{
			Cost:        intent.ShippingCost,
			Description: intent.ShippingDescription,
		},
		Discount: intent.DiscountAmount,
		Total:    intent.Total,
	}
}

// Checkout builds a single-listing payment intent and opens a Stripe
// Checkout session for it.
func Checkout(intents checkoutsvc.Service, sessions stripecheckout.Service, ordersSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if intents == nil || sessions == nil || ordersSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := intents.BuildIntent(r.Context(), body.ProductID, checkoutsvc.BuildIntentOptions{
			ShippingOptionID:    body.ShippingOptionID,
			DestinationPostcode: body.DestinationPostcode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := sessions.CreateSession(r.Context(), intent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := ordersSvc.RecordIntent(r.Context(), buyerID, enums.PaymentProviderStripe, session.ID, intent); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(session, intent))
	}
}

// CartCheckout quotes the whole basket and opens one Stripe Checkout
// session covering every listing in it.
func CartCheckout(intents checkoutsvc.Service, sessions stripecheckout.Service, ordersSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if intents == nil || sessions == nil || ordersSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cartCheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := intents.BuildCartIntent(r.Context(), buyerID, body.ProductIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := sessions.CreateSession(r.Context(), intent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := ordersSvc.RecordIntent(r.Context(), buyerID, enums.PaymentProviderStripe, session.ID, intent); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(session, intent))
	}
}
