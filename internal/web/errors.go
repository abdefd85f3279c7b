package web

// errors.go provides unified error response handling for the web layer.
//
// Every handler error goes through respondError, which:
//  1. picks the HTTP status from the error's type (statusFor)
//  2. maps the error to a user message and code via core.MapError
//  3. logs the technical error with the request ID
//  4. writes an ErrorResponse; details are only exposed for 4xx errors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/academia/internal/core"
)

var (
	errNoFile         = errors.New("no file provided")
	errInvalidID      = errors.New("invalid import id")
	errInvalidJSON    = errors.New("invalid request: body is not valid JSON")
	errUploadTooLarge = errors.New("file too large for upload")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var reqErr *RequestError
	var valErr core.ValidationError

	switch {
	case errors.As(err, &reqErr),
		errors.As(err, &valErr),
		errors.Is(err, errNoFile),
		errors.Is(err, errInvalidID),
		errors.Is(err, errInvalidJSON),
		errors.Is(err, core.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrJobNotPending),
		errors.Is(err, core.ErrKindMismatch):
		return http.StatusConflict
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case core.IsPrecondition(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped JSON error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	resp := ErrorResponse{
		Error:  userMsg.Message,
		Action: userMsg.Action,
		Code:   userMsg.Code,
	}
	if status < http.StatusInternalServerError {
		resp.Details = err.Error()
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		resp.Error = "Invalid request"
		resp.Fields = reqErr.Fields
	}

	writeJSONStatus(w, status, resp)
}

// writeJSON encodes v as a 200 JSON response.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
