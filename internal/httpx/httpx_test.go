package httpx

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeWriters(t *testing.T) {
	rec := httptest.NewRecorder()
	Data(rec, 200, map[string]int{"n": 1})
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"n":1}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	DataMessage(rec, 201, "x", "tạo thành công")
	assert.JSONEq(t, `{"data":"x","message":"tạo thành công"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Message(rec, 200, "ok")
	assert.JSONEq(t, `{"message":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Error(rec, 400, "Dữ liệu không hợp lệ")
	assert.Equal(t, 400, rec.Code)
	assert.JSONEq(t, `{"error":"Dữ liệu không hợp lệ"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Raw(rec, 200, map[string]bool{"firstLogin": true})
	assert.JSONEq(t, `{"firstLogin":true}`, rec.Body.String())
}

type decodeTarget struct {
	Name string `json:"name" validate:"required,min=3"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"name":"abc"}`, true},
		{"validation failure", `{"name":"x"}`, false},
		{"missing field", `{}`, false},
		{"unknown field", `{"name":"abc","extra":1}`, false},
		{"malformed json", `{"name":`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))

			var dst decodeTarget
			ok := Decode(rec, req, &dst)
			assert.Equal(t, tt.ok, ok)

			if !tt.ok {
				require.Equal(t, 400, rec.Code)
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "Dữ liệu không hợp lệ", body["error"])
			}
		})
	}
}
