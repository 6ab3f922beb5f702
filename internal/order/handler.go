package order

import (
	"errors"
	"net/http"
	"strconv"

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

type orderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type placeOrderRequest struct {
	PackageID int64              `json:"package_id" validate:"required"`
	Items     []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	var body placeOrderRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	items := make([]ItemInput, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.service.Place(r.Context(), ac.UserID, body.PackageID, items)
	if err != nil {
		switch {
		case errors.Is(err, ErrLimitExceeded):
			httpx.Error(w, http.StatusBadRequest, "Đã vượt quá giới hạn mua gói này")
		case errors.Is(err, ErrQuantityExceeded):
			httpx.Error(w, http.StatusBadRequest, "Số lượng vượt quá giới hạn cho phép")
		case errors.Is(err, ErrItemNotInPackage):
			httpx.Error(w, http.StatusBadRequest, "Sản phẩm không thuộc gói này")
		case errors.Is(err, ErrNoItems):
			httpx.Error(w, http.StatusBadRequest, "Vui lòng chọn ít nhất một sản phẩm")
		case errors.Is(err, ErrPackageNotFound):
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy gói")
		case errors.Is(err, ErrNoProfile):
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy hồ sơ")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Không thể tạo đơn hàng")
		}
		return
	}

	httpx.DataMessage(w, http.StatusCreated, o, "Đặt hàng thành công")
}

func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	orders, err := h.service.ListOwn(r.Context(), ac.UserID)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy hồ sơ")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, orders)
}

func (h *Handler) GetOwn(w http.ResponseWriter, r *http.Request) {
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

	o, err := h.service.GetOwn(r.Context(), ac.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoProfile):
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy đơn hàng")
		case errors.Is(err, ErrNotOwner):
			httpx.Error(w, http.StatusForbidden, "Không có quyền truy cập")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		}
		return
	}
	httpx.Data(w, http.StatusOK, o)
}
