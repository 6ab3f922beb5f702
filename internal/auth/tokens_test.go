package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("access-secret", "refresh-secret")

	token, err := tm.IssueAccessToken(42, "alice", RoleManager, "session-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, RoleManager, claims.Role)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("access-secret", "refresh-secret")

	token, err := tm.IssueRefreshToken(42, "session-1")
	require.NoError(t, err)

	claims, err := tm.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("access-secret", "refresh-secret")
	verifier := NewTokenManager("other-secret", "another-secret")

	access, err := issuer.IssueAccessToken(1, "bob", RoleUser, "s1")
	require.NoError(t, err)
	_, err = verifier.VerifyAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh, err := issuer.IssueRefreshToken(1, "s1")
	require.NoError(t, err)
	_, err = verifier.VerifyRefreshToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsCrossTokenUse(t *testing.T) {
	tm := NewTokenManager("access-secret", "refresh-secret")

	refresh, err := tm.IssueRefreshToken(7, "s2")
	require.NoError(t, err)

	// A refresh token is signed with the refresh secret and must not pass
	// access verification.
	_, err = tm.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("access-secret", "refresh-secret")

	now := time.Now().UTC()
	claims := &AccessClaims{
		UserID:    9,
		Username:  "carol",
		Role:      RoleAdmin,
		SessionID: "s3",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = tm.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("access-secret", "refresh-secret")

	_, err := tm.VerifyAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
