package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultMaxAttempts  = 5
	defaultLockDuration = 30 * time.Minute
	defaultSessionTTL   = 7 * 24 * time.Hour
	defaultResetTTL     = time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrInvalidSession     = errors.New("invalid session")
	ErrUsernameTaken      = errors.New("username taken")
	ErrWrongPassword      = errors.New("wrong password")
	ErrResetTokenInvalid  = errors.New("reset token invalid")
	ErrResetTokenUsed     = errors.New("reset token used")
	ErrResetTokenExpired  = errors.New("reset token expired")
)

// ErrAccountLocked carries the lock expiry so handlers can answer with the
// remaining time.
type ErrAccountLocked struct {
	Until time.Time
}

func (e ErrAccountLocked) Error() string {
	return "account temporarily locked"
}

// ErrWeakPassword carries the unmet strength rules.
type ErrWeakPassword struct {
	Details []string
}

func (e ErrWeakPassword) Error() string {
	return "password too weak"
}

// ResetMailer delivers the password-reset token to the user out of band.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, username, token string) error
}

// Service implements the identity core: credential verification with
// username-keyed lockout, session lifecycle, token issuance and the password
// flows.
//
// The lockout keys on username alone. Switching to IP-keyed lockout is a
// product decision, not a bug fix.
type Service struct {
	repo         *Repository
	tokens       *TokenManager
	mailer       ResetMailer
	maxAttempts  int
	lockDuration time.Duration
	sessionTTL   time.Duration
	resetTTL     time.Duration
}

func NewService(repo *Repository, tokens *TokenManager, mailer ResetMailer) *Service {
	return &Service{
		repo:         repo,
		tokens:       tokens,
		mailer:       mailer,
		maxAttempts:  defaultMaxAttempts,
		lockDuration: defaultLockDuration,
		sessionTTL:   defaultSessionTTL,
		resetTTL:     defaultResetTTL,
	}
}

func (s *Service) WithSecurityConfig(maxAttempts int, lockDuration, sessionTTL time.Duration) *Service {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if lockDuration > 0 {
		s.lockDuration = lockDuration
	}
	if sessionTTL > 0 {
		s.sessionTTL = sessionTTL
	}
	return s
}

type LoginResult struct {
	User         User
	AccessToken  string
	RefreshToken string
	FirstLogin   bool
}

// Login verifies credentials, drives the lockout counter and, on success,
// creates a session and issues the token pair. Unknown usernames and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, username, password, userAgent, ipAddress string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No row to count against; same generic answer either way.
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return LoginResult{}, ErrAccountLocked{Until: *user.LockedUntil}
	}

	if !user.IsActive {
		return LoginResult{}, ErrAccountDisabled
	}

	if user.FirstLogin {
		return LoginResult{User: user, FirstLogin: true}, nil
	}

	if !VerifyPassword(user.PasswordHash, password) {
		lockedUntil, recErr := s.repo.RecordFailedLogin(ctx, username, s.maxAttempts, s.lockDuration, now)
		if recErr != nil {
			return LoginResult{}, recErr
		}
		if lockedUntil != nil {
			return LoginResult{}, ErrAccountLocked{Until: *lockedUntil}
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := s.repo.ResetFailedLogins(ctx, username); err != nil {
		return LoginResult{}, err
	}

	sessionID, err := s.repo.CreateSession(ctx, user.ID, userAgent, ipAddress, s.sessionTTL)
	if err != nil {
		return LoginResult{}, err
	}

	access, err := s.tokens.IssueAccessToken(user.ID, user.Username, user.Role, sessionID)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID, sessionID)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		return LoginResult{}, err
	}
	_ = s.repo.InsertAudit(ctx, user.ID, "login", "user", fmt.Sprint(user.ID), ipAddress, userAgent)

	return LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh mints a new access token from a refresh token whose session is
// still alive. The new token carries the same userId/sessionId/role as the
// original login.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefresh
	}

	alive, err := s.repo.ValidateSession(ctx, claims.SessionID)
	if err != nil {
		return "", err
	}
	if !alive {
		return "", ErrInvalidSession
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidRefresh
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrInvalidRefresh
	}

	return s.tokens.IssueAccessToken(user.ID, user.Username, user.Role, claims.SessionID)
}

// Logout invalidates the session behind the access token. Bad or expired
// tokens are ignored: logout always succeeds from the client's view.
func (s *Service) Logout(ctx context.Context, accessToken, ipAddress, userAgent string) error {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil
	}

	if err := s.repo.InvalidateSession(ctx, claims.SessionID); err != nil {
		return err
	}
	_ = s.repo.InsertAudit(ctx, claims.UserID, "logout", "user", fmt.Sprint(claims.UserID), ipAddress, userAgent)
	return nil
}

// ForgotPassword issues a single-use reset token. The caller returns one and
// the same message whether or not the username exists.
func (s *Service) ForgotPassword(ctx context.Context, username, ipAddress, userAgent string) error {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	token, err := randomToken(32)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	if err := s.repo.CreateResetToken(ctx, user.ID, token, time.Now().UTC().Add(s.resetTTL)); err != nil {
		return err
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, user.Username, token); err != nil {
			return err
		}
	}

	_ = s.repo.InsertAudit(ctx, user.ID, "password_reset_requested", "user", fmt.Sprint(user.ID), ipAddress, userAgent)
	return nil
}

// ResetPassword consumes a reset token, replaces the password, clears the
// lockout state and invalidates every session of the user.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword, ipAddress, userAgent string) error {
	if details := ValidatePasswordStrength(newPassword); len(details) > 0 {
		return ErrWeakPassword{Details: details}
	}

	token, err := s.repo.GetResetToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if token.Used {
		return ErrResetTokenUsed
	}
	if time.Now().UTC().After(token.ExpiresAt.UTC()) {
		return ErrResetTokenExpired
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, token.UserID, hash, false); err != nil {
		return err
	}
	if err := s.repo.MarkResetTokenUsed(ctx, rawToken); err != nil {
		return err
	}
	if err := s.repo.InvalidateUserSessions(ctx, token.UserID); err != nil {
		return err
	}

	_ = s.repo.InsertAudit(ctx, token.UserID, "password_reset_completed", "user", fmt.Sprint(token.UserID), ipAddress, userAgent)
	return nil
}

// SetPassword finishes the first-login flow: the account was provisioned
// with a placeholder and the owner now chooses the real password.
func (s *Service) SetPassword(ctx context.Context, username, newPassword string) error {
	if details := ValidatePasswordStrength(newPassword); len(details) > 0 {
		return ErrWeakPassword{Details: details}
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, user.ID, hash, true)
}

// ChangePassword verifies the current password before replacing it.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return err
	}

	if !VerifyPassword(user.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}

	if details := ValidatePasswordStrength(newPassword); len(details) > 0 {
		return ErrWeakPassword{Details: details}
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, userID, hash, false)
}

// CreateUser provisions an account; admin action.
func (s *Service) CreateUser(ctx context.Context, username, password, role string) (User, error) {
	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.CreateUser(ctx, username, hash, role, false)
}

func (s *Service) ListStaff(ctx context.Context) ([]User, error) {
	return s.repo.ListStaff(ctx)
}

func (s *Service) SetUserActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetUserActive(ctx, id, active)
}

// BootstrapAdmin upserts the initial admin account from the environment.
// Unlike a fresh CreateUser it is safe to run on every start.
func (s *Service) BootstrapAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required together")
	}

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.repo.CreateUser(ctx, username, hash, RoleAdmin, false)
	return err
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
