package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/api/responses"
	"github.com/clubswap/clubswap-backend/api/validators"
	"github.com/clubswap/clubswap-backend/internal/shipping"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type shippingQuoteRequest struct {
	From       string              `json:"from" validate:"required"`
	To         string              `json:"to" validate:"required"`
	Dimensions shipping.Dimensions `json:"dimensions"`
	Value      string              `json:"value,omitempty"`
	Category   string              `json:"category,omitempty"`
}

func (req shippingQuoteRequest) toQuoteRequest() (*shipping.QuoteRequest, error) {
	out := &shipping.QuoteRequest{
		From:       req.From,
		To:         req.To,
		Dimensions: req.Dimensions,
		Category:   enums.ProductCategory(strings.TrimSpace(req.Category)),
	}
	if raw := strings.TrimSpace(req.Value); raw != "" {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be a decimal amount")
		}
		out.Value = value
	}
	return out, nil
}

// ShippingQuote fetches carrier rates for a parcel between two UK
// postcodes.
func ShippingQuote(quoter shipping.Quoter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if quoter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		var body shippingQuoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteReq, err := body.toQuoteRequest()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := quoter.CalculateShipping(r.Context(), *quoteReq)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
