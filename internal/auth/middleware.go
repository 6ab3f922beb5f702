package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/tvtrungg/covid-management-system/internal/httpx"
)

type contextKey int

const authContextKey contextKey = iota

func WithAuthContext(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(AuthContext)
	return ac, ok
}

// Middleware authenticates requests: bearer token signature first, then a
// live-session check against the database. Revoking a session therefore cuts
// off its access tokens immediately, before their own expiry.
type Middleware struct {
	tokens *TokenManager
	repo   *Repository
}

func NewMiddleware(tokens *TokenManager, repo *Repository) *Middleware {
	return &Middleware{tokens: tokens, repo: repo}
}

func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			httpx.Error(w, http.StatusUnauthorized, "Token không hợp lệ")
			return
		}

		claims, err := m.tokens.VerifyAccessToken(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, "Token đã hết hạn")
			return
		}

		alive, err := m.repo.ValidateSession(r.Context(), claims.SessionID)
		if err != nil {
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Lỗi server")
			return
		}
		if !alive {
			httpx.Error(w, http.StatusUnauthorized, "Phiên đăng nhập không hợp lệ")
			return
		}

		ctx := WithAuthContext(r.Context(), AuthContext{
			UserID:    claims.UserID,
			Username:  claims.Username,
			Role:      claims.Role,
			SessionID: claims.SessionID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission chains after Require and checks the static permission
// table for the caller's role.
func (m *Middleware) RequirePermission(p Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := FromContext(r.Context())
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
				return
			}

			if !HasPermission(ac.Role, p) {
				httpx.Error(w, http.StatusForbidden, "Không có quyền truy cập")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
