package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"genesys/internal/dispatch"
	"genesys/internal/perception"
	"genesys/internal/store"
	"genesys/internal/tools"
	"genesys/internal/upload"
)

// errBadRequest marks malformed form input.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, tools.ErrUnknownFunction), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, perception.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, perception.ErrMalformedToolCall):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errBadRequest), dispatch.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := RequestIDFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		s.log.Error("%s %s failed [%s]: %v", r.Method, r.URL.Path, id, err)
	} else {
		s.log.Warn("%s %s rejected [%s]: %v", r.Method, r.URL.Path, id, err)
	}

	msg := dispatch.UserMessage(err)
	switch {
	case errors.Is(err, store.ErrNotFound):
		msg = "No archived upload with that id."
	case errors.Is(err, errBadRequest):
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, RequestID: id})
}
