package controllers

import (
	"net/http"

	"github.com/clubswap/clubswap-backend/api/responses"
	"github.com/clubswap/clubswap-backend/api/validators"
	"github.com/clubswap/clubswap-backend/internal/payments/connect"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type payoutEstimateRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// ConnectOnboard creates the seller's Stripe Express account and
// returns the hosted onboarding link.
func ConnectOnboard(svc connect.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connect service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Onboard(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PayoutEstimate previews the commission split for a sale amount at
// the caller's tier.
func PayoutEstimate(svc connect.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connect service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body payoutEstimateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimate, err := svc.EstimatePayout(r.Context(), userID, body.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimate)
	}
}
