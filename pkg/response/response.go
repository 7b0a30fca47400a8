package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the unnamed failure shape.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// FieldErrorBody lets form clients attach the message to the named input.
type FieldErrorBody struct {
	Field        string `json:"field"`
	Message      string `json:"message"`
	Code         string `json:"code,omitempty"`
	ProviderCode string `json:"provider_code,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

func ErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	JSON(w, status, ErrorBody{Error: msg, Code: code})
}

func FieldError(w http.ResponseWriter, status int, body FieldErrorBody) {
	JSON(w, status, body)
}

func Success(w http.ResponseWriter) {
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
