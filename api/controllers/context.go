package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/clubswap/clubswap-backend/api/middleware"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

// currentUserID resolves the authenticated user from the request
// context populated by the auth middleware.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user identity")
	}
	return id, nil
}

// pathUUID parses a uuid path parameter, mapping junk to a validation
// error instead of a 404.
func pathUUID(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a valid uuid")
	}
	return id, nil
}
