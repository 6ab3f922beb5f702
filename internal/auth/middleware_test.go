package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionID = "0190f7a0-0000-7000-8000-000000000001"

func TestRequireRejectsRevokedSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tokens := NewTokenManager("access-secret", "refresh-secret")
	access, err := tokens.IssueAccessToken(7, "alice", RoleUser, testSessionID)
	require.NoError(t, err)

	// Session row still unexpired, but revoked.
	mock.ExpectQuery(`SELECT expires_at, is_active`).
		WithArgs(testSessionID).
		WillReturnRows(sqlmock.NewRows([]string{"expires_at", "is_active"}).
			AddRow(time.Now().UTC().Add(time.Hour), false))

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	NewMiddleware(tokens, NewRepository(db)).Require(next).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Phiên đăng nhập không hợp lệ"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireAcceptsLiveSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tokens := NewTokenManager("access-secret", "refresh-secret")
	access, err := tokens.IssueAccessToken(7, "alice", RoleManager, testSessionID)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT expires_at, is_active`).
		WithArgs(testSessionID).
		WillReturnRows(sqlmock.NewRows([]string{"expires_at", "is_active"}).
			AddRow(time.Now().UTC().Add(time.Hour), true))

	var got AuthContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := FromContext(r.Context())
		require.True(t, ok)
		got = ac
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	NewMiddleware(tokens, NewRepository(db)).Require(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, RoleManager, got.Role)
	assert.Equal(t, testSessionID, got.SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
