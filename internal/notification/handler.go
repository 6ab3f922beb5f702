package notification

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"github.com/tvtrungg/covid-management-system/internal/auth"
	"github.com/tvtrungg/covid-management-system/internal/httpx"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	notifications, total, err := h.repo.List(r.Context(), ac.UserID, ListFilter{
		UnreadOnly: q.Get("unread") == "true",
		Category:   q.Get("category"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}

	unread, err := h.repo.UnreadCount(r.Context(), ac.UserID)
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}

	httpx.Raw(w, http.StatusOK, map[string]any{
		"data":         notifications,
		"total":        total,
		"unread_count": unread,
	})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	if err := h.repo.MarkRead(r.Context(), ac.UserID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy thông báo")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể cập nhật thông báo")
		return
	}
	httpx.Message(w, http.StatusOK, "Đã đánh dấu đã đọc")
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	updated, err := h.repo.MarkAllRead(r.Context(), ac.UserID)
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể cập nhật thông báo")
		return
	}

	httpx.Raw(w, http.StatusOK, map[string]any{
		"message": "Đã đánh dấu tất cả đã đọc",
		"updated": updated,
	})
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	prefs, err := h.repo.GetPreferences(r.Context(), ac.UserID)
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, prefs)
}

type preferencesRequest struct {
	EmailEnabled bool            `json:"email_enabled"`
	SMSEnabled   bool            `json:"sms_enabled"`
	PushEnabled  bool            `json:"push_enabled"`
	Categories   json.RawMessage `json:"categories" validate:"required"`
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	var body preferencesRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	prefs, err := h.repo.UpdatePreferences(r.Context(), Preferences{
		UserID:       ac.UserID,
		EmailEnabled: body.EmailEnabled,
		SMSEnabled:   body.SMSEnabled,
		PushEnabled:  body.PushEnabled,
		Categories:   body.Categories,
	})
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể cập nhật tùy chọn")
		return
	}
	httpx.DataMessage(w, http.StatusOK, prefs, "Cập nhật tùy chọn thành công")
}
