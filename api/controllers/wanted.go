package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clubswap/clubswap-backend/api/responses"
	"github.com/clubswap/clubswap-backend/api/validators"
	"github.com/clubswap/clubswap-backend/internal/wanted"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

// WantedCreate posts a wanted listing for hard-to-find equipment.
func WantedCreate(svc wanted.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wanted service unavailable"))
			return
		}

		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body wanted.CreateWantedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Create(r.Context(), buyerID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// WantedList browses open wanted listings, optionally by category.
func WantedList(svc wanted.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wanted service unavailable"))
			return
		}

		category := strings.TrimSpace(r.URL.Query().Get("category"))
		listings, err := svc.ListOpen(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listings)
	}
}

// WantedFulfill marks the caller's wanted listing as fulfilled.
func WantedFulfill(svc wanted.Service, logg *logger.Logger) http.HandlerFunc {
	return wantedTransition(svc, logg, svcFulfill)
}

// WantedClose withdraws the caller's wanted listing.
func WantedClose(svc wanted.Service, logg *logger.Logger) http.HandlerFunc {
	return wantedTransition(svc, logg, svcClose)
}

type wantedAction int

const (
	svcFulfill wantedAction = iota
	svcClose
)

func wantedTransition(svc wanted.Service, logg *logger.Logger, action wantedAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wanted service unavailable"))
			return
		}

		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := pathUUID(chi.URLParam(r, "listingId"), "listing id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch action {
		case svcFulfill:
			err = svc.Fulfill(r.Context(), buyerID, listingID)
		default:
			err = svc.Close(r.Context(), buyerID, listingID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
