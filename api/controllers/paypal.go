package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/clubswap/clubswap-backend/api/responses"
	"github.com/clubswap/clubswap-backend/api/validators"
	checkoutsvc "github.com/clubswap/clubswap-backend/internal/checkout"
	"github.com/clubswap/clubswap-backend/internal/orders"
	"github.com/clubswap/clubswap-backend/internal/payments/paypalorders"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type paypalOrderRequest struct {
	ProductID           uuid.UUID `json:"product_id" validate:"required"`
	ShippingOptionID    string    `json:"shipping_option_id,omitempty"`
	DestinationPostcode string    `json:"destination_postcode,omitempty"`
}

type paypalOrderResponse struct {
	OrderID     string             `json:"order_id"`
	ApprovalURL string             `json:"approval_url"`
	Commission  commissionResponse `json:"commission"`
	Shipping    shippingResponse   `json:"shipping"`
	Total       string             `json:"total"`
}

type paypalCaptureRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

type paypalCaptureResponse struct {
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Completed bool   `json:"completed"`
}

// PayPalOrderCreate builds a payment intent and opens a PayPal order
// for it.
func PayPalOrderCreate(intents checkoutsvc.Service, paypal paypalorders.Service, ordersSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if intents == nil || paypal == nil || ordersSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paypal service unavailable"))
			return
		}

		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body paypalOrderRequest
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

		order, err := paypal.CreateOrder(r.Context(), intent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := ordersSvc.RecordIntent(r.Context(), buyerID, enums.PaymentProviderPayPal, order.ID, intent); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, paypalOrderResponse{
			OrderID:     order.ID,
			ApprovalURL: order.ApprovalURL,
			Commission: commissionResponse{
				Rate:           intent.CommissionRate,
				Amount:         intent.CommissionAmount,
				SellerReceives: intent.SellerReceives,
			},
			Shipping: shippingResponse{
				Cost:        intent.ShippingCost,
				Description: intent.ShippingDescription,
			},
			Total: intent.Total.StringFixed(2),
		})
	}
}

// PayPalOrderCapture captures an approved PayPal order and settles the
// sale when the capture completes.
func PayPalOrderCapture(paypal paypalorders.Service, settlement *orders.Settlement, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if paypal == nil || settlement == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paypal service unavailable"))
			return
		}

		var body paypalCaptureRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := paypal.CaptureOrder(r.Context(), body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Completed {
			if _, err := settlement.Settle(r.Context(), result.OrderID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, paypalCaptureResponse{
			OrderID:   result.OrderID,
			Status:    result.Status,
			Completed: result.Completed,
		})
	}
}
