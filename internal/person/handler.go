package person

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	people, total, err := h.service.List(r.Context(), ListFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			httpx.Error(w, http.StatusBadRequest, "Trạng thái không hợp lệ")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}

	httpx.Raw(w, http.StatusOK, map[string]any{
		"data":  people,
		"total": total,
	})
}

type personRequest struct {
	UserID              *int64 `json:"user_id"`
	FullName            string `json:"full_name" validate:"required,max=200"`
	IDNumber            string `json:"id_number" validate:"required,min=9,max=12"`
	BirthYear           *int   `json:"birth_year" validate:"omitempty,min=1900,max=2026"`
	Status              string `json:"status" validate:"required,oneof=F0 F1 F2 F3"`
	ProvinceID          *int64 `json:"province_id"`
	DistrictID          *int64 `json:"district_id"`
	WardID              *int64 `json:"ward_id"`
	TreatmentLocationID *int64 `json:"treatment_location_id"`
	RelatedPersonID     *int64 `json:"related_person_id"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body personRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	p, err := h.service.Create(r.Context(), CreateInput{
		UserID:              body.UserID,
		FullName:            body.FullName,
		IDNumber:            body.IDNumber,
		BirthYear:           body.BirthYear,
		Status:              body.Status,
		ProvinceID:          body.ProvinceID,
		DistrictID:          body.DistrictID,
		WardID:              body.WardID,
		TreatmentLocationID: body.TreatmentLocationID,
		RelatedPersonID:     body.RelatedPersonID,
	})
	if err != nil {
		h.writeMutationError(w, err, "Không thể tạo hồ sơ")
		return
	}

	httpx.DataMessage(w, http.StatusCreated, p, "Tạo hồ sơ thành công")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	var body personRequest
	if !httpx.Decode(w, r, &body) {
		return
	}

	p, err := h.service.Update(r.Context(), id, UpdateInput{
		FullName:            body.FullName,
		BirthYear:           body.BirthYear,
		Status:              body.Status,
		ProvinceID:          body.ProvinceID,
		DistrictID:          body.DistrictID,
		WardID:              body.WardID,
		TreatmentLocationID: body.TreatmentLocationID,
		RelatedPersonID:     body.RelatedPersonID,
	})
	if err != nil {
		h.writeMutationError(w, err, "Không thể cập nhật hồ sơ")
		return
	}

	httpx.DataMessage(w, http.StatusOK, p, "Cập nhật hồ sơ thành công")
}

func (h *Handler) writeMutationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrDuplicateIDNumber):
		httpx.Error(w, http.StatusBadRequest, "Số CMND/CCCD đã tồn tại")
	case errors.Is(err, ErrLocationFull):
		httpx.Error(w, http.StatusBadRequest, "Địa điểm điều trị đã đầy")
	case errors.Is(err, ErrInvalidStatus):
		httpx.Error(w, http.StatusBadRequest, "Trạng thái không hợp lệ")
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "Không tìm thấy hồ sơ")
	default:
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, fallback)
	}
}

// Profile returns the covid record owned by the logged-in user.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Chưa xác thực")
		return
	}

	p, err := h.service.Profile(r.Context(), ac.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Không tìm thấy hồ sơ")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}

	httpx.Data(w, http.StatusOK, p)
}
