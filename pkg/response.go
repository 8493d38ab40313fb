package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the body of every failed API call.
// The board server uses the same shape, so clients can share decoding.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"errorCode"`
}

// JSON writes data as the raw JSON body with the given status.
//
// Responses are not wrapped in an envelope: the notification routes must stay
// wire-compatible with the board server's API so the same REST client can
// talk to either.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// Empty writes "{}" with the given status (PUT/DELETE acknowledgements).
func Empty(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("{}"))
}

// Error writes an error response. Domain errors are mapped to their HTTP status.
func Error(w http.ResponseWriter, err error) {
	ErrorWithMessage(w, mapErrorToStatus(err), err.Error())
}

// ErrorWithMessage writes an error response with an explicit status and message.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := ErrorResponse{
		Error:     message,
		ErrorCode: status,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode error response", http.StatusInternalServerError)
	}
}

// mapErrorToStatus walks the error chain with errors.Is, so wrapped domain
// errors resolve to the same status as the bare sentinel.
func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
