package location

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

func (h *Handler) ListProvinces(w http.ResponseWriter, r *http.Request) {
	provinces, err := h.service.Provinces(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, provinces)
}

func (h *Handler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	provinceID, err := strconv.ParseInt(r.URL.Query().Get("province_id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	districts, err := h.service.Districts(r.Context(), provinceID)
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, districts)
}

func (h *Handler) ListWards(w http.ResponseWriter, r *http.Request) {
	districtID, err := strconv.ParseInt(r.URL.Query().Get("district_id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	wards, err := h.service.Wards(r.Context(), districtID)
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, wards)
}

func (h *Handler) ListTreatmentLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.TreatmentLocations(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, locations)
}

type treatmentLocationRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

func (h *Handler) CreateTreatmentLocation(w http.ResponseWriter, r *http.Request) {
	var body treatmentLocationRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	loc, err := h.service.CreateTreatmentLocation(r.Context(), body.Name, body.Capacity)
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tạo địa điểm")
		return
	}
	httpx.DataMessage(w, http.StatusCreated, loc, "Tạo địa điểm thành công")
}

func (h *Handler) UpdateTreatmentLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	var body treatmentLocationRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	loc, err := h.service.UpdateTreatmentLocation(r.Context(), id, body.Name, body.Capacity)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy địa điểm")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể cập nhật địa điểm")
		return
	}
	httpx.DataMessage(w, http.StatusOK, loc, "Cập nhật địa điểm thành công")
}

func (h *Handler) DeleteTreatmentLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	if err := h.service.DeleteTreatmentLocation(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrLocationInUse):
			httpx.Error(w, http.StatusBadRequest, "Không thể xóa địa điểm đang được sử dụng")
		case errors.Is(err, ErrLocationNotFound):
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy địa điểm")
		default:
			sentry.CaptureException(err)
			httpx.Error(w, http.StatusInternalServerError, "Không thể xóa địa điểm")
		}
		return
	}
	httpx.Message(w, http.StatusOK, "Xóa địa điểm thành công")
}
