package common

import (
	"errors"
	"net/http"
)

// ErrorCode values shared by every transport.
const (
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeUnauthorized   = "unauthorized"
	CodeInternal       = "internal_error"
)

// APIError represents one structured transport failure.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ClassifyError maps an adapter error onto an HTTP status and a stable error body.
func ClassifyError(err error) (int, APIError) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, APIError{Code: CodeInternal, Message: "unknown error"}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, APIError{
			Code:    CodeUnauthorized,
			Message: err.Error(),
			Hint:    "Send Authorization: Bearer <token>; mint one with `leadboard token`.",
		}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, APIError{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, APIError{
			Code:    CodeConflict,
			Message: err.Error(),
			Hint:    "Reload the board snapshot and retry against current columns.",
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: err.Error()}
	default:
		return http.StatusInternalServerError, APIError{Code: CodeInternal, Message: err.Error()}
	}
}
