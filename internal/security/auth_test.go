package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_GenerateAndValidateToken(t *testing.T) {
	a := NewAuthService("test-signing-secret")

	tok, err := a.GenerateOperatorToken()
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := a.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Role)
}

func TestAuthService_ValidateToken_RejectsWrongSecret(t *testing.T) {
	a := NewAuthService("secret-a")
	tok, err := a.GenerateOperatorToken()
	require.NoError(t, err)

	b := NewAuthService("secret-b")
	_, err = b.ValidateToken(tok)
	assert.Error(t, err)
}

func TestAuthService_ValidateToken_RejectsGarbage(t *testing.T) {
	a := NewAuthService("test-signing-secret")
	_, err := a.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
