package pack

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"github.com/tvtrungg/covid-management-system/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	packages, err := h.service.List(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, packages)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy gói")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, p)
}

type packageLineRequest struct {
	ProductID   int64 `json:"product_id" validate:"required"`
	MaxQuantity int   `json:"max_quantity" validate:"required,min=1"`
}

type packageRequest struct {
	Name           string               `json:"name" validate:"required,max=200"`
	LimitPerPerson int                  `json:"limit_per_person" validate:"required,min=1"`
	TimeLimitType  string               `json:"time_limit_type" validate:"required,oneof=day week month"`
	TimeLimitValue int                  `json:"time_limit_value" validate:"required,min=1"`
	Products       []packageLineRequest `json:"products" validate:"dive"`
}

func (req packageRequest) toInput() Input {
	lines := make([]LineInput, 0, len(req.Products))
	for _, l := range req.Products {
		lines = append(lines, LineInput{ProductID: l.ProductID, MaxQuantity: l.MaxQuantity})
	}
	return Input{
		Name:           req.Name,
		LimitPerPerson: req.LimitPerPerson,
		TimeLimitType:  req.TimeLimitType,
		TimeLimitValue: req.TimeLimitValue,
		Products:       lines,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body packageRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	p, err := h.service.Create(r.Context(), body.toInput())
	if err != nil {
		if errors.Is(err, ErrNoProducts) {
			httpx.Error(w, http.StatusBadRequest, "Vui lòng thêm ít nhất một sản phẩm vào gói")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tạo gói")
		return
	}
	httpx.DataMessage(w, http.StatusCreated, p, "Tạo gói thành công")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	var body packageRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	p, err := h.service.Update(r.Context(), id, body.toInput())
	if err != nil {
		switch {
		case errors.Is(err, ErrNoProducts):
			httpx.Error(w, http.StatusBadRequest, "Vui lòng thêm ít nhất một sản phẩm vào gói")
		case errors.Is(err, ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy gói")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Không thể cập nhật gói")
		}
		return
	}
	httpx.DataMessage(w, http.StatusOK, p, "Cập nhật gói thành công")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrOrdered):
			httpx.Error(w, http.StatusBadRequest, "Không thể xóa gói đã có đơn hàng")
		case errors.Is(err, ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy gói")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Không thể xóa gói")
		}
		return
	}
	httpx.Message(w, http.StatusOK, "Xóa gói thành công")
}
