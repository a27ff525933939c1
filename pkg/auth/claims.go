package auth

import (
	"github.com/clubswap/clubswap-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	Tier   enums.SellerTier
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"user_id"`
	Role   enums.UserRole   `json:"role"`
	Tier   enums.SellerTier `json:"tier"`
	jwt.RegisteredClaims
}
