package web

// errors.go turns handler errors into responses.
//
// The technical error is logged with the request id. The client gets the
// mapped user message: an HTML fragment for HTMX requests, JSON otherwise.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/datamorpher/internal/core"
	"github.com/JonMunkholm/datamorpher/internal/logging"
)

var (
	errNoFile          = errors.New("no file provided")
	errFileTooLarge    = errors.New("file too large")
	errUnsupportedType = errors.New("unsupported file type")
	errInvalidForm     = errors.New("no file provided: malformed multipart form")
)

// ErrorResponse is the JSON body of an error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
}

// respondError logs err and writes the user-facing message with status.
// Errors with no mapped message are logged at error level.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	userErr := core.NewUserError(err)
	msg := userErr.User

	level := slog.LevelWarn
	if status >= 500 || !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	logging.WithFields(r.Context(),
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
	).Log(r.Context(), level, "request error", "error", userErr.Technical)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := errorAlert(msg).Render(r.Context(), w); err != nil {
			slog.Error("render error fragment", "error", err)
		}
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:  msg.Message,
		Action: msg.Action,
		Code:   msg.Code,
	})
}

// statusFor picks the HTTP status for an error returned by the job service.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrQueueFull),
		errors.Is(err, core.ErrShuttingDown),
		errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errNoFile), errors.Is(err, errInvalidForm):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
