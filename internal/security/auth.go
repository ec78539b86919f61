// Package security implements bearer-token authentication for the status
// API. There is exactly one operator role in this daemon — whoever holds
// the configured token can read status and issue manual unblocks — so
// there is no per-object authorization layer here, unlike a multi-tenant
// system with row-level permission checks.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenExpiry = 24 * time.Hour

// AuthService issues and validates the single operator bearer token used
// by the status API.
type AuthService struct {
	jwtSecret []byte
}

// Claims represents the JWT claims embedded in an operator token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service from the configured
// signing secret.
func NewAuthService(secret string) *AuthService {
	return &AuthService{jwtSecret: []byte(secret)}
}

// GenerateOperatorToken issues an HS256 token for the single operator
// role, signed with the configured secret and valid for tokenExpiry. The
// daemon itself never calls it; any token it mints passes ValidateToken
// on a service built from the same secret.
func (a *AuthService) GenerateOperatorToken() (string, error) {
	claims := &Claims{
		Role: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateToken parses and validates a bearer token presented to the
// status API.
func (a *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
