package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims carries the authenticated caller principal. Roles are not
// embedded; the ledger is the source of truth for them.
type AccessTokenClaims struct {
	CallerID uuid.UUID `json:"caller_id"`
	jwt.RegisteredClaims
}
