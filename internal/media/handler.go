package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tvtrungg/covid-management-system/internal/httpx"
)

const maxUploadSizeBytes = 10 << 20

type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
}

type Handler struct {
	uploader ImageUploader
}

func NewHandler(uploader ImageUploader) *Handler {
	return &Handler{uploader: uploader}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		httpx.Error(w, http.StatusServiceUnavailable, "Tải ảnh chưa được cấu hình")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSizeBytes); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Vui lòng chọn tệp")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Không thể đọc tệp")
		return
	}
	if len(data) == 0 {
		httpx.Error(w, http.StatusBadRequest, "Tệp rỗng")
		return
	}
	if len(data) > maxUploadSizeBytes {
		httpx.Error(w, http.StatusBadRequest, "Tệp quá lớn")
		return
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		httpx.Error(w, http.StatusBadRequest, "Tệp phải là hình ảnh")
		return
	}

	imageSource := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	secureURL, err := h.uploader.UploadImage(r.Context(), imageSource)
	if err != nil {
		httpx.Error(w, http.StatusBadGateway, "Không thể tải ảnh lên")
		return
	}

	httpx.Raw(w, http.StatusOK, map[string]string{"secure_url": secureURL})
}
