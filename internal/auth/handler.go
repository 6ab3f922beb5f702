package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tvtrungg/covid-management-system/internal/httpx"
	"github.com/tvtrungg/covid-management-system/internal/observability"
)

const refreshCookieName = "refreshToken"

// ResetLimitFunc gates password reset requests per username. A nil func
// disables the check.
type ResetLimitFunc func(ctx context.Context, username string) (bool, error)

type Handler struct {
	service       *Service
	secureCookies bool
	resetLimit    ResetLimitFunc
}

func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{service: service, secureCookies: secureCookies}
}

func (h *Handler) WithResetLimit(fn ResetLimitFunc) *Handler {
	h.resetLimit = fn
	return h
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,max=200"`
}

type loginResponse struct {
	User                  User   `json:"user"`
	AccessToken           string `json:"accessToken"`
	RequirePasswordChange bool   `json:"requirePasswordChange"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	result, err := h.service.Login(r.Context(), body.Username, body.Password,
		r.UserAgent(), observability.ClientIP(r))
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	if result.FirstLogin {
		httpx.Raw(w, http.StatusOK, map[string]bool{"firstLogin": true})
		return
	}

	h.setRefreshCookie(w, result.RefreshToken, int(h.service.tokens.RefreshTTL().Seconds()))
	httpx.Raw(w, http.StatusOK, loginResponse{
		User:                  result.User,
		AccessToken:           result.AccessToken,
		RequirePasswordChange: result.User.RequirePasswordChange,
	})
}

func (h *Handler) writeLoginError(w http.ResponseWriter, err error) {
	var locked ErrAccountLocked
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Error(w, http.StatusUnauthorized, "Tên đăng nhập hoặc mật khẩu không đúng")
	case errors.Is(err, ErrAccountDisabled):
		httpx.Error(w, http.StatusUnauthorized, "Tài khoản đã bị khóa")
	case errors.As(err, &locked):
		remaining := int(time.Until(locked.Until).Minutes()) + 1
		w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(locked.Until).Seconds())))
		httpx.Error(w, http.StatusLocked, "Tài khoản bị khóa. Thử lại sau "+strconv.Itoa(remaining)+" phút.")
	default:
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Lỗi server")
	}
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		httpx.Error(w, http.StatusUnauthorized, "Refresh token không tồn tại")
		return
	}

	access, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRefresh):
			httpx.Error(w, http.StatusUnauthorized, "Refresh token không hợp lệ")
		case errors.Is(err, ErrInvalidSession):
			httpx.Error(w, http.StatusUnauthorized, "Phiên đăng nhập đã hết hạn")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Lỗi server")
		}
		return
	}

	httpx.Raw(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if err := h.service.Logout(r.Context(), token, observability.ClientIP(r), r.UserAgent()); err != nil {
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Lỗi server")
			return
		}
	}

	h.setRefreshCookie(w, "", -1)
	httpx.Message(w, http.StatusOK, "Đăng xuất thành công")
}

type forgotPasswordRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
}

const forgotPasswordMessage = "Nếu tài khoản tồn tại, email đặt lại mật khẩu đã được gửi."

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body forgotPasswordRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	if h.resetLimit != nil {
		allowed, err := h.resetLimit(r.Context(), body.Username)
		if err != nil {
			sentry.CaptureException(err)
		} else if !allowed {
			httpx.Error(w, http.StatusTooManyRequests, "Quá nhiều yêu cầu. Vui lòng thử lại sau.")
			return
		}
	}

	err := h.service.ForgotPassword(r.Context(), body.Username, observability.ClientIP(r), r.UserAgent())
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Lỗi server")
		return
	}

	// Same message for known and unknown usernames.
	httpx.Message(w, http.StatusOK, forgotPasswordMessage)
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=200"`
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetPasswordRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	err := h.service.ResetPassword(r.Context(), body.Token, body.NewPassword,
		observability.ClientIP(r), r.UserAgent())
	if err != nil {
		var weak ErrWeakPassword
		switch {
		case errors.As(err, &weak):
			httpx.Raw(w, http.StatusBadRequest, map[string]any{
				"error":   "Mật khẩu không đủ mạnh",
				"details": weak.Details,
			})
		case errors.Is(err, ErrResetTokenInvalid):
			httpx.Error(w, http.StatusBadRequest, "Token không hợp lệ")
		case errors.Is(err, ErrResetTokenUsed):
			httpx.Error(w, http.StatusBadRequest, "Token đã được sử dụng")
		case errors.Is(err, ErrResetTokenExpired):
			httpx.Error(w, http.StatusBadRequest, "Token đã hết hạn")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Lỗi server")
		}
		return
	}

	httpx.Message(w, http.StatusOK, "Mật khẩu đã được đặt lại thành công")
}

type setPasswordRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	NewPassword string `json:"newPassword" validate:"required,max=200"`
}

func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var body setPasswordRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	err := h.service.SetPassword(r.Context(), body.Username, body.NewPassword)
	if err != nil {
		var weak ErrWeakPassword
		switch {
		case errors.As(err, &weak):
			httpx.Raw(w, http.StatusBadRequest, map[string]any{
				"error":   "Mật khẩu không đủ mạnh",
				"details": weak.Details,
			})
		case errors.Is(err, ErrInvalidCredentials):
			httpx.Error(w, http.StatusBadRequest, "Không thể cập nhật mật khẩu")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Lỗi server")
		}
		return
	}

	httpx.Message(w, http.StatusOK, "Đặt mật khẩu thành công")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,max=200"`
	NewPassword     string `json:"newPassword" validate:"required,max=200"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ac, ok := FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	var body changePasswordRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	err := h.service.ChangePassword(r.Context(), ac.UserID, body.CurrentPassword, body.NewPassword)
	if err != nil {
		var weak ErrWeakPassword
		switch {
		case errors.Is(err, ErrWrongPassword):
			httpx.Error(w, http.StatusBadRequest, "Mật khẩu hiện tại không đúng")
		case errors.As(err, &weak):
			httpx.Raw(w, http.StatusBadRequest, map[string]any{
				"error":   "Mật khẩu không đủ mạnh",
				"details": weak.Details,
			})
		case errors.Is(err, ErrInvalidCredentials):
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy tài khoản")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Lỗi server")
		}
		return
	}

	httpx.Message(w, http.StatusOK, "Đổi mật khẩu thành công")
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin manager user"`
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), body.Username, body.Password, body.Role)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			httpx.Error(w, http.StatusBadRequest, "Tên đăng nhập đã tồn tại")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tạo tài khoản")
		return
	}

	httpx.DataMessage(w, http.StatusCreated, user, "Tạo tài khoản thành công")
}

func (h *Handler) ListManagers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListStaff(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}

	httpx.Data(w, http.StatusOK, users)
}

type toggleStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	var body toggleStatusRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	if err := h.service.SetUserActive(r.Context(), id, *body.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy tài khoản")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể cập nhật trạng thái tài khoản")
		return
	}

	httpx.Message(w, http.StatusOK, "Cập nhật trạng thái thành công")
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
