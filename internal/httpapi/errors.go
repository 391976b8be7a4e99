package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/jobgrid/internal/auth"
	"github.com/Lllllllleong/jobgrid/internal/planner"
	"github.com/Lllllllleong/jobgrid/internal/services"
	"github.com/Lllllllleong/jobgrid/internal/store"
	"github.com/Lllllllleong/jobgrid/internal/upload"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeServiceError maps a service error to a status code. message is the
// user-facing text; validation errors carry their own.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, planner.ErrInvalid), errors.Is(err, upload.ErrLocalFileRejected):
		status, code, message = http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, code, message = http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"
	case errors.Is(err, auth.ErrUnauthenticated):
		status, code, message = http.StatusUnauthorized, "unauthenticated", "Please sign in"
	case errors.Is(err, auth.ErrEmailExists):
		status, code = http.StatusConflict, "email_exists"
	case errors.Is(err, services.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, planner.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, upload.ErrUploadFailed):
		status, code = http.StatusBadGateway, "upload_failed"
	}

	logCtx := slog.With("request_id", RequestIDFrom(r.Context()), "method", r.Method, "path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		logCtx.Error(message, "error", err)
	} else {
		logCtx.Warn(message, "error", err, "status", status)
	}
	WriteError(w, r, status, code, message)
}

const maxJSONBody = 1 << 20

// decodeJSON reads a JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return false
	}
	return true
}
