package controllers

import (
	"net/http"

	"github.com/clubswap/clubswap-backend/api/responses"
	"github.com/clubswap/clubswap-backend/internal/payouts"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

// CronRunPayouts triggers one payout batch. The route sits behind the
// cron token middleware so only the scheduler can hit it.
func CronRunPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		summary, err := svc.ProcessScheduledPayouts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
