package product

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"github.com/tvtrungg/covid-management-system/internal/httpx"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.List(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, products)
}

type productRequest struct {
	Name   string   `json:"name" validate:"required,max=200"`
	Price  int64    `json:"price" validate:"required,min=0"`
	Unit   string   `json:"unit" validate:"required,max=50"`
	Images []string `json:"images" validate:"omitempty,dive,url"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body productRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	p, err := h.repo.Create(r.Context(), Input{
		Name:   body.Name,
		Price:  body.Price,
		Unit:   body.Unit,
		Images: body.Images,
	})
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tạo sản phẩm")
		return
	}
	httpx.DataMessage(w, http.StatusCreated, p, "Tạo sản phẩm thành công")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	var body productRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	p, err := h.repo.Update(r.Context(), id, Input{
		Name:   body.Name,
		Price:  body.Price,
		Unit:   body.Unit,
		Images: body.Images,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy sản phẩm")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể cập nhật sản phẩm")
		return
	}
	httpx.DataMessage(w, http.StatusOK, p, "Cập nhật sản phẩm thành công")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrInPackage):
			httpx.Error(w, http.StatusBadRequest, "Không thể xóa sản phẩm đang nằm trong gói")
		case errors.Is(err, ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy sản phẩm")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Không thể xóa sản phẩm")
		}
		return
	}
	httpx.Message(w, http.StatusOK, "Xóa sản phẩm thành công")
}
