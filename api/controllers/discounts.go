package controllers

import (
	"net/http"

	"github.com/clubswap/clubswap-backend/api/responses"
	"github.com/clubswap/clubswap-backend/api/validators"
	"github.com/clubswap/clubswap-backend/internal/discounts"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type studentVerifyRequest struct {
	InstitutionEmail string `json:"institution_email" validate:"required,email"`
}

type pgaVerifyRequest struct {
	MemberNumber string `json:"member_number" validate:"required"`
}

// StudentVerify grants the student discount after checking the
// institution email domain.
func StudentVerify(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body studentVerifyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyStudent(r.Context(), userID, body.InstitutionEmail)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PGAVerify records a PGA membership and upgrades the seller tier.
func PGAVerify(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pgaVerifyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.VerifyPGAMembership(r.Context(), userID, body.MemberNumber); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "verified", "tier": "pga-pro"})
	}
}
