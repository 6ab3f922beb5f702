package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"github.com/tvtrungg/covid-management-system/internal/auth"
	"github.com/tvtrungg/covid-management-system/internal/httpx"
	"github.com/tvtrungg/covid-management-system/internal/observability"
)

// KeyFunc extracts the limiter key from a request. An empty key skips the
// check for that request.
type KeyFunc func(r *http.Request) string

func ByClientIP(r *http.Request) string { return observability.ClientIP(r) }

func ByUserID(r *http.Request) string {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		return ""
	}
	return strconv.FormatInt(ac.UserID, 10)
}

// Middleware enforces the policy before the wrapped handler runs. A limiter
// error is reported and the request is let through.
func (l *Limiter) Middleware(p Policy, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := l.Check(r.Context(), p, k)
			if err != nil {
				if l.log != nil {
					l.log.Warn("rate_limit_check_failed", map[string]any{
						"policy": p.Name,
						"error":  err.Error(),
					})
				}
				sentry.CaptureException(err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			if !result.Allowed {
				httpx.Error(w, http.StatusTooManyRequests, "Quá nhiều yêu cầu. Vui lòng thử lại sau.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
