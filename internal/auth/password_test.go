package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1", hash)

	assert.True(t, VerifyPassword(hash, "Secret1"))
	assert.False(t, VerifyPassword(hash, "secret1"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Abc123", nil},
		{"too short", "Ab1", ErrPasswordTooShort},
		{"no uppercase", "abc123", ErrPasswordNoUpper},
		{"no lowercase", "ABC123", ErrPasswordNoLower},
		{"no number", "Abcdef", ErrPasswordNoNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
