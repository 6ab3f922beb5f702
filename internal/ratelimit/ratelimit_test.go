package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicies(t *testing.T) {
	assert.Equal(t, 20, LoginPolicy.Max)
	assert.Equal(t, 15*time.Minute, LoginPolicy.Window)
	assert.Equal(t, 3, ResetPolicy.Max)
	assert.Equal(t, time.Hour, ResetPolicy.Window)
	assert.Equal(t, 100, APIPolicy.Max)
	assert.Equal(t, time.Minute, APIPolicy.Window)

	prefixes := map[string]bool{
		LoginPolicy.KeyPrefix: true,
		ResetPolicy.KeyPrefix: true,
		APIPolicy.KeyPrefix:   true,
	}
	assert.Len(t, prefixes, 3)
}

func TestCheckAllowsUnderLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	oldest := time.Now().UTC().Add(-10 * time.Minute)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM rate_limits`).
		WithArgs("login:203.0.113.9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("login:203.0.113.9").
		WillReturnRows(sqlmock.NewRows([]string{"count", "min"}).AddRow(5, oldest))
	mock.ExpectExec(`INSERT INTO rate_limits`).
		WithArgs("login:203.0.113.9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := NewLimiter(db).Check(context.Background(), LoginPolicy, "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 14, result.Remaining)
	assert.WithinDuration(t, oldest.Add(LoginPolicy.Window), result.ResetAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckRejectsAtLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	oldest := time.Now().UTC().Add(-5 * time.Minute)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM rate_limits`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "min"}).AddRow(LoginPolicy.Max, oldest))
	mock.ExpectRollback()

	result, err := NewLimiter(db).Check(context.Background(), LoginPolicy, "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.WithinDuration(t, oldest.Add(LoginPolicy.Window), result.ResetAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
