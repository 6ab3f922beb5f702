package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	username string
	token    string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, username, token string) error {
	m.username = username
	m.token = token
	return nil
}

func TestForgotPasswordHidesAccountExistence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mailer := &captureMailer{}
	handler := NewHandler(NewService(NewRepository(db), NewTokenManager("access-secret", "refresh-secret"), mailer), false)

	post := func(username string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password",
			strings.NewReader(`{"username":"`+username+`"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ForgotPassword(rec, req)
		return rec
	}

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE username`).
		WithArgs("khongcoai").
		WillReturnError(sql.ErrNoRows)
	unknown := post("khongcoai")

	hash, err := HashPassword("Str0ng!Pass1")
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE username`).
		WithArgs("alice").
		WillReturnRows(testUserRow(7, "alice", hash, 0, nil))
	mock.ExpectExec(`INSERT INTO password_reset_tokens`).
		WithArgs(sqlmock.AnyArg(), int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	known := post("alice")

	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, unknown.Code, known.Code)
	assert.Equal(t, unknown.Body.String(), known.Body.String())
	assert.Equal(t, "alice", mailer.username)
	assert.NotEmpty(t, mailer.token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleStatusUnknownAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewHandler(NewService(NewRepository(db), NewTokenManager("access-secret", "refresh-secret"), nil), false)

	mock.ExpectExec(`UPDATE users`).
		WithArgs(int64(99), false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodPut, "/api/admin/managers/99/toggle-status",
		strings.NewReader(`{"is_active":false}`))
	req.SetPathValue("id", "99")
	rec := httptest.NewRecorder()
	handler.ToggleStatus(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Không tìm thấy tài khoản"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
