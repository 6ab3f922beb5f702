package auth

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUserColumns = []string{
	"id", "username", "password_hash", "role", "is_active", "first_login",
	"require_password_change", "failed_login_attempts", "locked_until",
	"last_login", "created_at", "updated_at",
}

func testUserRow(id int64, username, hash string, attempts int, lockedUntil any) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(testUserColumns).
		AddRow(id, username, hash, RoleUser, true, false, false, attempts, lockedUntil, nil, now, now)
}

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(NewRepository(db), NewTokenManager("access-secret", "refresh-secret"), nil), mock
}

func TestLoginFifthFailureLocksAccount(t *testing.T) {
	service, mock := newMockService(t)

	hash, err := HashPassword("Kh4c!Password")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE username`).
		WithArgs("alice").
		WillReturnRows(testUserRow(7, "alice", hash, 4, nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, failed_login_attempts, locked_until`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "failed_login_attempts", "locked_until"}).
			AddRow(int64(7), 4, nil))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(int64(7), 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err = service.Login(context.Background(), "alice", "Sai-Mat-Khau1!", "ua", "203.0.113.9")

	var locked ErrAccountLocked
	require.ErrorAs(t, err, &locked)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), locked.Until, 2*time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginLockedAccountRejectsCorrectPassword(t *testing.T) {
	service, mock := newMockService(t)

	hash, err := HashPassword("Str0ng!Pass1")
	require.NoError(t, err)

	until := time.Now().UTC().Add(20 * time.Minute)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE username`).
		WithArgs("alice").
		WillReturnRows(testUserRow(7, "alice", hash, 5, until))

	result, err := service.Login(context.Background(), "alice", "Str0ng!Pass1", "ua", "203.0.113.9")

	var locked ErrAccountLocked
	require.ErrorAs(t, err, &locked)
	assert.WithinDuration(t, until, locked.Until, time.Second)
	assert.Empty(t, result.AccessToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPasswordBelowThreshold(t *testing.T) {
	service, mock := newMockService(t)

	hash, err := HashPassword("Kh4c!Password")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE username`).
		WithArgs("alice").
		WillReturnRows(testUserRow(7, "alice", hash, 1, nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, failed_login_attempts, locked_until`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "failed_login_attempts", "locked_until"}).
			AddRow(int64(7), 1, nil))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(int64(7), 2, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err = service.Login(context.Background(), "alice", "Sai-Mat-Khau1!", "ua", "203.0.113.9")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}
