package server

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a request failure.
type ErrorDetail struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	RequestID   string `json:"request_id,omitempty"`
	Diagnostics any    `json:"diagnostics,omitempty"`
}

// Error codes.
const (
	CodeBadRequest   = "bad_request"
	CodeInvalidTree  = "invalid_tree"
	CodeNotFound     = "not_found"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal_error"
	CodeTooLarge     = "request_too_large"
	CodeUnauthorized = "unauthorized"
	CodeRateLimited  = "rate_limited"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, diagnostics any) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{
		Code:        code,
		Message:     message,
		RequestID:   w.Header().Get(RequestIDHeader),
		Diagnostics: diagnostics,
	}})
}
