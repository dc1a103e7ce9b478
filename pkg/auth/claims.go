package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ClientID uuid.UUID
	Role     enums.Role
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to kiosk sessions.
type AccessTokenClaims struct {
	ClientID uuid.UUID  `json:"client_id"`
	Role     enums.Role `json:"role"`
	jwt.RegisteredClaims
}
