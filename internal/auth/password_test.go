package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	require.NotEqual(t, "Str0ng!Pass", hash)

	assert.True(t, VerifyPassword(hash, "Str0ng!Pass"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		failures int
	}{
		{"strong", "Abcdef1!", 0},
		{"too short", "Ab1!", 1},
		{"no uppercase", "abcdef1!", 1},
		{"no lowercase", "ABCDEF1!", 1},
		{"no digit", "Abcdefg!", 1},
		{"no special", "Abcdefg1", 1},
		{"empty", "", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidatePasswordStrength(tt.password)
			assert.Len(t, problems, tt.failures)
		})
	}
}
