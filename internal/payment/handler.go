package payment

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/tvtrungg/covid-management-system/internal/auth"
	"github.com/tvtrungg/covid-management-system/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	account, err := h.service.Account(r.Context(), ac.UserID)
	if err != nil {
		h.writeError(w, err, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, account)
}

type depositRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	var body depositRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	account, err := h.service.Deposit(r.Context(), ac.UserID, body.Amount)
	if err != nil {
		h.writeError(w, err, "Không thể nạp tiền")
		return
	}
	httpx.DataMessage(w, http.StatusOK, account, "Nạp tiền thành công")
}

type payRequest struct {
	Amount      int64  `json:"amount" validate:"required,min=1"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	var body payRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	account, err := h.service.Pay(r.Context(), ac.UserID, body.Amount, body.Description)
	if err != nil {
		h.writeError(w, err, "Không thể thanh toán")
		return
	}
	httpx.DataMessage(w, http.StatusOK, account, "Thanh toán thành công")
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	transactions, err := h.service.Transactions(r.Context(), ac.UserID)
	if err != nil {
		h.writeError(w, err, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, transactions)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInsufficient):
		httpx.Error(w, http.StatusBadRequest, "Số dư không đủ")
	case errors.Is(err, ErrInvalidAmount):
		httpx.Error(w, http.StatusBadRequest, "Số tiền không hợp lệ")
	case errors.Is(err, ErrNoProfile), errors.Is(err, ErrAccountNotFound):
		httpx.Error(w, http.StatusNotFound, "Không tìm thấy tài khoản thanh toán")
	default:
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, fallback)
	}
}
