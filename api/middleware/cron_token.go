package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/clubswap/clubswap-backend/api/responses"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

// CronToken guards operational endpoints behind a shared bearer token.
func CronToken(token string, logg *logger.Logger) func(http.Handler) http.Handler {
	expected := strings.TrimSpace(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cron endpoint disabled"))
				return
			}

			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
				raw = strings.TrimSpace(raw[7:])
			}
			if subtle.ConstantTimeCompare([]byte(raw), []byte(expected)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid cron token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
