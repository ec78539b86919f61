package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ids-rs/idsrs/internal/ierrors"
	"github.com/ids-rs/idsrs/internal/security"
)

// AuthMiddleware validates the operator bearer token. There is exactly one
// role in this daemon, so unlike the teacher's split auth/permission
// middleware there is no separate RBAC check — authenticated means
// authorized.
type AuthMiddleware struct {
	auth *security.AuthService
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(auth *security.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate validates the bearer token from the Authorization header.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ierrors.ErrMissingAuthHeader
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return ierrors.ErrInvalidAuthFormat
	}

	if _, err := m.auth.ValidateToken(token); err != nil {
		return ierrors.ErrInvalidToken
	}

	return c.Next()
}
