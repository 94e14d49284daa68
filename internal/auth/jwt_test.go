package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(testSecret, TokenUser{
		ID:      "user-1",
		Role:    RoleStudent,
		Name:    "Grace",
		Surname: "Hopper",
	}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, RoleStudent, claims.Role)
	assert.Equal(t, "Grace", claims.Name)
	assert.Equal(t, "Hopper", claims.Surname)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, TokenUser{ID: "user-1", Role: RoleStudent}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("another-secret", token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, TokenUser{ID: "user-1", Role: RoleStudent}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestParseTokenRejectsEmptySubject(t *testing.T) {
	c := Claims{
		Role: RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseToken(testSecret, signed)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
