// Package httpapi exposes the REST surface: fan-facing order endpoints,
// the public celebrity catalog and the seller dashboard. Every response
// uses the same envelope, success and error alike.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/viveo-rs/viveo-backend/internal/lifecycle"
)

// Error codes surfaced in the error envelope.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeOutOfStock        = "OUT_OF_STOCK"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Meta    any  `json:"meta,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

func writeDataMeta(w http.ResponseWriter, status int, data, meta any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data, Meta: meta})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Message: message, Code: code}})
}

func writeInternal(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}

// writeTransitionError maps lifecycle manager failures onto the error
// envelope. Unknown errors are logged in full and answered generically.
func writeTransitionError(w http.ResponseWriter, logger *slog.Logger, err error, orderID string) {
	var invalid *lifecycle.InvalidTransitionError
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "order not found")
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, CodeInvalidTransition, invalid.Error())
	default:
		logger.Error("failed to apply transition", "error", err, "order_id", orderID)
		writeInternal(w)
	}
}

type listMeta struct {
	Total int `json:"total"`
}
