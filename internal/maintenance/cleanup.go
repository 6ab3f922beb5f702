// Package maintenance exposes the cron-driven cleanup endpoint that purges
// expired sessions, spent reset tokens and stale rate-limit rows.
package maintenance

import (
	"net/http"
	"strings"
	"time"

	"github.com/tvtrungg/covid-management-system/internal/auth"
	"github.com/tvtrungg/covid-management-system/internal/httpx"
	"github.com/tvtrungg/covid-management-system/internal/observability"
	"github.com/tvtrungg/covid-management-system/internal/ratelimit"
)

type CleanupHandler struct {
	authRepo         *auth.Repository
	limiter          *ratelimit.Limiter
	logger           *observability.Logger
	cronSecret       string
	sessionRetention time.Duration
	limitRetention   time.Duration
	batchSize        int
}

func NewCleanupHandler(
	authRepo *auth.Repository,
	limiter *ratelimit.Limiter,
	logger *observability.Logger,
	cronSecret string,
	sessionRetention time.Duration,
	limitRetention time.Duration,
	batchSize int,
) *CleanupHandler {
	return &CleanupHandler{
		authRepo:         authRepo,
		limiter:          limiter,
		logger:           logger,
		cronSecret:       strings.TrimSpace(cronSecret),
		sessionRetention: sessionRetention,
		limitRetention:   limitRetention,
		batchSize:        batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Without a configured secret the endpoint does not exist.
	if h.cronSecret == "" {
		httpx.Error(w, http.StatusNotFound, "not found")
		return
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessions, err := h.authRepo.DeleteExpiredSessions(r.Context(), h.sessionRetention, h.batchSize)
	if err != nil {
		h.logger.Error("cleanup_failed", map[string]any{"step": "sessions", "error": err.Error()})
		httpx.Error(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	tokens, err := h.authRepo.DeleteStaleResetTokens(r.Context(), h.batchSize)
	if err != nil {
		h.logger.Error("cleanup_failed", map[string]any{"step": "reset_tokens", "error": err.Error()})
		httpx.Error(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	limits, err := h.limiter.DeleteExpired(r.Context(), h.limitRetention, h.batchSize)
	if err != nil {
		h.logger.Error("cleanup_failed", map[string]any{"step": "rate_limits", "error": err.Error()})
		httpx.Error(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	h.logger.Info("cleanup_completed", map[string]any{
		"deleted_sessions":        sessions,
		"deleted_reset_tokens":    tokens,
		"deleted_rate_limit_rows": limits,
	})

	httpx.Raw(w, http.StatusOK, map[string]any{
		"status": "ok",
		"result": map[string]int64{
			"deleted_sessions":        sessions,
			"deleted_reset_tokens":    tokens,
			"deleted_rate_limit_rows": limits,
		},
	})
}
