package analytics

import (
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tvtrungg/covid-management-system/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			httpx.Error(w, http.StatusBadRequest, "Khoảng thời gian không hợp lệ")
			return
		}
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, stats)
}

// dateRange reads from/to query params (2006-01-02), defaulting to the
// last 30 days.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -30)
	until := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		since = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// Inclusive end date.
		until = parsed.AddDate(0, 0, 1)
	}
	return since, until, nil
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	since, until, err := dateRange(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Khoảng thời gian không hợp lệ")
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), since, until)
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tải dữ liệu")
		return
	}
	httpx.Data(w, http.StatusOK, dashboard)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	since, until, err := dateRange(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Khoảng thời gian không hợp lệ")
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), since, until)
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể xuất báo cáo")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bao-cao.csv"`)
	if err := WriteCSV(w, dashboard); err != nil {
		sentry.CaptureException(err)
	}
}
