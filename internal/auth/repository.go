package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `
	id, username, password_hash, role, is_active, first_login,
	require_password_change, failed_login_attempts, locked_until,
	last_login, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var user User
	var lockedUntil, lastLogin sql.NullTime
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role,
		&user.IsActive, &user.FirstLogin, &user.RequirePasswordChange,
		&user.FailedLoginAttempts, &lockedUntil, &lastLogin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	if lockedUntil.Valid {
		value := lockedUntil.Time.UTC()
		user.LockedUntil = &value
	}
	if lastLogin.Valid {
		value := lastLogin.Time.UTC()
		user.LastLogin = &value
	}
	return user, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1
	`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("query user by username: %w", err)
	}
	return user, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)
	`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (r *Repository) CreateUser(ctx context.Context, username, passwordHash, role string, firstLogin bool) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role, is_active, first_login)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING `+userColumns+`
	`, username, passwordHash, role, firstLogin))
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// ListStaff returns admin and manager accounts for the admin dashboard.
func (r *Repository) ListStaff(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, role, is_active, created_at, updated_at
		FROM users
		WHERE role IN ('admin', 'manager')
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Username, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff: %w", err)
	}
	return users, nil
}

func (r *Repository) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set user active rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordFailedLogin increments the username-keyed failure counter and sets
// the lock timestamp once the threshold is reached. The row is locked for
// the duration of the transaction so two concurrent failures cannot both
// read the same counter value. Returns the lock expiry when a lock is set
// or already in force. A missing username is a no-op, matching the generic
// response the caller gives in that case.
func (r *Repository) RecordFailedLogin(ctx context.Context, username string, maxAttempts int, lockDuration time.Duration, now time.Time) (*time.Time, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin failed login tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	var attempts int
	var lockedUntil sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT id, failed_login_attempts, locked_until
		FROM users
		WHERE username = $1
		FOR UPDATE
	`, username).Scan(&id, &attempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock user row: %w", err)
	}

	if lockedUntil.Valid && now.Before(lockedUntil.Time) {
		until := lockedUntil.Time.UTC()
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit existing lock tx: %w", err)
		}
		return &until, nil
	}

	attempts++
	var nextLock *time.Time
	var nextLockValue any
	if attempts >= maxAttempts {
		until := now.UTC().Add(lockDuration)
		nextLock = &until
		nextLockValue = until
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = $2, locked_until = $3, updated_at = NOW()
		WHERE id = $1
	`, id, attempts, nextLockValue); err != nil {
		return nil, fmt.Errorf("update failed login counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit failed login tx: %w", err)
	}

	return nextLock, nil
}

func (r *Repository) ResetFailedLogins(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE username = $1
	`, username)
	if err != nil {
		return fmt.Errorf("reset failed logins: %w", err)
	}
	return nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET last_login = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the hash and clears lockout and the
// require-password-change flag. When clearFirstLogin is set the first-login
// sentinel is cleared as well.
func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string, clearFirstLogin bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = NOW(),
		    failed_login_attempts = 0,
		    locked_until = NULL,
		    require_password_change = FALSE,
		    first_login = CASE WHEN $3 THEN FALSE ELSE first_login END,
		    updated_at = NOW()
		WHERE id = $1
	`, userID, passwordHash, clearFirstLogin)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Sessions.

func (r *Repository) CreateSession(ctx context.Context, userID int64, userAgent, ipAddress string, ttl time.Duration) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	expiresAt := time.Now().UTC().Add(ttl)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_sessions (id, user_id, expires_at, user_agent, ip_address, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
	`, id.String(), userID, expiresAt, userAgent, ipAddress)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	return id.String(), nil
}

// ValidateSession reports whether the session exists, is active and has not
// expired. Any lookup failure reads as invalid.
func (r *Repository) ValidateSession(ctx context.Context, sessionID string) (bool, error) {
	var expiresAt time.Time
	var isActive bool
	err := r.db.QueryRowContext(ctx, `
		SELECT expires_at, is_active
		FROM user_sessions
		WHERE id = $1
	`, sessionID).Scan(&expiresAt, &isActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query session: %w", err)
	}

	return isActive && time.Now().UTC().Before(expiresAt.UTC()), nil
}

// InvalidateSession is idempotent; an already-inactive or unknown session id
// stays inert.
func (r *Repository) InvalidateSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_sessions
		SET is_active = FALSE
		WHERE id = $1
	`, sessionID)
	if err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}

func (r *Repository) InvalidateUserSessions(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_sessions
		SET is_active = FALSE
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("invalidate user sessions: %w", err)
	}
	return nil
}

// Password reset tokens. Only the SHA-256 of the token touches the database.

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (r *Repository) CreateResetToken(ctx context.Context, userID int64, rawToken string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, hashToken(rawToken), userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

func (r *Repository) GetResetToken(ctx context.Context, rawToken string) (ResetToken, error) {
	var token ResetToken
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, expires_at, used
		FROM password_reset_tokens
		WHERE token_hash = $1
	`, hashToken(rawToken)).Scan(&token.UserID, &token.ExpiresAt, &token.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResetToken{}, err
		}
		return ResetToken{}, fmt.Errorf("query reset token: %w", err)
	}
	return token, nil
}

func (r *Repository) MarkResetTokenUsed(ctx context.Context, rawToken string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE password_reset_tokens
		SET used = TRUE
		WHERE token_hash = $1
	`, hashToken(rawToken))
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	return nil
}

// Audit log.

func (r *Repository) InsertAudit(ctx context.Context, userID int64, action, resourceType, resourceID, ipAddress, userAgent string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, action, resource_type, resource_id, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, action, resourceType, resourceID, ipAddress, userAgent)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// Cleanup, called from the maintenance endpoint.

func (r *Repository) DeleteExpiredSessions(ctx context.Context, retention time.Duration, batchSize int) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := r.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM user_sessions
			WHERE expires_at < $1 OR (is_active = FALSE AND created_at < $1)
			ORDER BY created_at ASC
			LIMIT $2
		)
		DELETE FROM user_sessions s
		USING stale
		WHERE s.id = stale.id
	`, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func (r *Repository) DeleteStaleResetTokens(ctx context.Context, batchSize int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT token_hash
			FROM password_reset_tokens
			WHERE used = TRUE OR expires_at < NOW()
			ORDER BY created_at ASC
			LIMIT $1
		)
		DELETE FROM password_reset_tokens t
		USING stale
		WHERE t.token_hash = stale.token_hash
	`, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete stale reset tokens: %w", err)
	}
	return res.RowsAffected()
}
