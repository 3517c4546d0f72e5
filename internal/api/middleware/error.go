// Package middleware provides HTTP middleware and response helpers for the API.
package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/roster-scheduler/backend/internal/apperr"
)

// Common error codes
const (
	ErrNotFound        = string(apperr.KindNotFound)
	ErrBadRequest      = "bad_request"
	ErrConflict        = string(apperr.KindConflict)
	ErrInternalError   = string(apperr.KindInternal)
	ErrValidation      = string(apperr.KindValidation)
	ErrUnauthorized    = string(apperr.KindUnauthorized)
	ErrTooManyRequests = "too_many_requests"
)

// SuccessResponse is the envelope of every successful API response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the envelope of every failed API response.
type ErrorResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope. A nil data omits the data field.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	if message == "" {
		message = "Success"
	}
	WriteJSON(w, status, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// WriteErrorWithFields writes a JSON error response carrying per-field failures.
func WriteErrorWithFields(w http.ResponseWriter, status int, errCode, message string, fields []apperr.FieldError) {
	WriteJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
		Errors:  fields,
	})
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError writes err as an error envelope. Typed failures keep their
// message; anything else is logged and reported as an internal error.
func WriteAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err, "An unexpected error occurred")
	}

	if appErr.Kind == apperr.KindInternal {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	WriteErrorWithFields(w, StatusFor(appErr.Kind), string(appErr.Kind), appErr.Message, appErr.Fields)
}

// ErrorRecovery returns middleware that recovers from panics and returns a 500 error.
func ErrorRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						slog.Any("panic", err),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					WriteError(w, http.StatusInternalServerError, ErrInternalError, "An unexpected error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NotFound writes the envelope for unmatched API routes.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, ErrNotFound, fmt.Sprintf("Route %s not found", r.URL.Path))
	})
}

// MethodNotAllowed writes the envelope for routes matched with the wrong method.
func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, ErrBadRequest, "Method not allowed")
	})
}
