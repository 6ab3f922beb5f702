package auth

import "time"

// Role names are fixed; the permission table in permissions.go is the single
// source of truth for what each role may do.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

type User struct {
	ID                    int64      `json:"id"`
	Username              string     `json:"username"`
	PasswordHash          string     `json:"-"`
	Role                  string     `json:"role"`
	IsActive              bool       `json:"is_active"`
	FirstLogin            bool       `json:"first_login"`
	RequirePasswordChange bool       `json:"require_password_change"`
	FailedLoginAttempts   int        `json:"-"`
	LockedUntil           *time.Time `json:"-"`
	LastLogin             *time.Time `json:"last_login,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	UserAgent string
	IPAddress string
	IsActive  bool
	CreatedAt time.Time
}

type ResetToken struct {
	UserID    int64
	ExpiresAt time.Time
	Used      bool
}

// AuthContext is the request-scoped identity attached by the middleware after
// both the token signature and the backing session have been checked.
type AuthContext struct {
	UserID    int64
	Username  string
	Role      string
	SessionID string
}
