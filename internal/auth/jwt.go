package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recognized across the API.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

var ErrInvalidCredential = errors.New("invalid credential")

// Claims is the verified payload of a bearer token. Name and Surname are
// convenience claims for display; Sub is the user id.
type Claims struct {
	Sub     string `json:"sub"`
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user TokenUser, ttl time.Duration) (string, error) {
	c := Claims{
		Sub:     user.ID,
		Role:    user.Role,
		Name:    user.Name,
		Surname: user.Surname,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString([]byte(secret))
}

// TokenUser carries the identity fields embedded into a token.
type TokenUser struct {
	ID      string
	Role    string
	Name    string
	Surname string
}

// ParseToken verifies the signature and expiry of a token and returns its
// claims. Decoding without verification is never exposed; client-supplied
// identity is only trusted after this check.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredential
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidCredential
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.Sub == "" {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
