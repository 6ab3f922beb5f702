package maintenance

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tvtrungg/covid-management-system/internal/observability"
)

func newHandler(secret string) *CleanupHandler {
	return NewCleanupHandler(nil, nil, observability.NewLogger(), secret,
		14*24*time.Hour, 24*time.Hour, 500)
}

func TestCleanupHiddenWithoutSecret(t *testing.T) {
	h := newHandler("")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/internal/maintenance/cleanup", nil)
	h.Handle(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestCleanupRejectsBadSecret(t *testing.T) {
	h := newHandler("top-secret")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong secret", "Bearer wrong"},
		{"wrong scheme", "Basic top-secret"},
		{"bare token", "top-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/internal/maintenance/cleanup", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.Handle(rec, req)
			assert.Equal(t, 401, rec.Code)
		})
	}
}
