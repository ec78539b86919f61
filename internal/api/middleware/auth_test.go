package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ids-rs/idsrs/internal/security"
)

func newTestApp(auth *security.AuthService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	mw := NewAuthMiddleware(auth)
	app.Get("/protected", mw.Authenticate, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAuthenticate_MissingHeaderRejected(t *testing.T) {
	app := newTestApp(security.NewAuthService("secret"))

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticate_WrongSchemeRejected(t *testing.T) {
	app := newTestApp(security.NewAuthService("secret"))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticate_ValidTokenAllowed(t *testing.T) {
	auth := security.NewAuthService("secret")
	tok, err := auth.GenerateOperatorToken()
	require.NoError(t, err)

	app := newTestApp(auth)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
