// Package httputil provides shared HTTP response helpers for the server's own
// responses (adapter failures, recovered panics). Application responses are
// written by the handler adapter, not here.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Error codes used in JSON error bodies.
const (
	CodeHandlerError   = "handler_error"
	CodeInternalError  = "internal_error"
	CodeBodyTooLarge   = "body_too_large"
	CodeBodyReadFailed = "body_read_failed"
)

// ErrorBody is the JSON shape of every error response the server writes.
type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, ErrorBody{Error: errCode, Message: message})
}

// WriteRequestError writes a JSON error response tagged with a request ID so
// the failure can be matched to server logs.
func WriteRequestError(w http.ResponseWriter, status int, errCode, message, requestID string) {
	WriteJSON(w, status, ErrorBody{Error: errCode, Message: message, RequestID: requestID})
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusInternalServerError, errCode, message)
}
