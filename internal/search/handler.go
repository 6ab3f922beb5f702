package search

import (
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

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	results, total, err := h.service.Search(r.Context(), Query{
		Keyword: q.Get("q"),
		Type:    q.Get("type"),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		sentry.CaptureException(err)
		httpx.Error(w, http.StatusInternalServerError, "Không thể tìm kiếm")
		return
	}

	httpx.Raw(w, http.StatusOK, map[string]any{
		"data":  results,
		"total": total,
	})
}
