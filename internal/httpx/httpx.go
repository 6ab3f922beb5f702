// Package httpx holds the JSON response envelope and validated request
// decoding shared by every handler package.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const maxJSONBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type envelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Data writes {"data": ...}.
func Data(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

// DataMessage writes {"data": ..., "message": ...}.
func DataMessage(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Data: data, Message: message})
}

// Message writes {"message": ...}.
func Message(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Message: message})
}

// Error writes {"error": ...}.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Error: message})
}

// Raw writes an arbitrary payload without the envelope. Login uses it for
// the {firstLogin:true} sentinel the dashboard expects verbatim.
func Raw(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload)
}

// Decode reads a JSON body into dst, rejecting unknown fields, then runs
// struct validation. On failure it writes a 400 and returns false.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		Error(w, http.StatusBadRequest, "Dữ liệu không hợp lệ")
		return false
	}

	return true
}

// Validate runs struct validation outside of request decoding.
func Validate(dst any) error {
	return validate.Struct(dst)
}
