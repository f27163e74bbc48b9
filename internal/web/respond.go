package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/explainui/internal/annotate"
	"github.com/vbonduro/explainui/internal/domain"
	"github.com/vbonduro/explainui/internal/exchange"
	"github.com/vbonduro/explainui/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps a service error to a status code. Unexpected errors are
// logged and reported as 500 without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *exchange.ValidationError
	var tooLarge *http.MaxBytesError
	var bad *badRequest
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid import", Field: ve.Field, Reason: ve.Reason})
	case errors.As(err, &tooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, "request too large")
	case errors.As(err, &bad):
		writeMessage(w, http.StatusBadRequest, bad.msg)
	case errors.Is(err, service.ErrNotImage):
		writeMessage(w, http.StatusUnsupportedMediaType, "unsupported image format")
	case errors.Is(err, service.ErrNoImage):
		writeMessage(w, http.StatusNotFound, "no image loaded")
	case errors.Is(err, service.ErrPinNotFound):
		writeMessage(w, http.StatusNotFound, "pin not found")
	case errors.Is(err, service.ErrNoDrafter):
		writeMessage(w, http.StatusNotImplemented, "note drafting is not configured")
	case errors.Is(err, annotate.ErrStaleImport):
		writeMessage(w, http.StatusConflict, "import superseded by a newer image")
	case errors.Is(err, domain.ErrInvalidField):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	return dec.Decode(v)
}

func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}

// badRequest marks a malformed request so writeError answers 400 rather
// than 500.
type badRequest struct {
	msg string
	err error
}

func (e *badRequest) Error() string { return e.msg + ": " + e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

func asBadRequest(err error, msg string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return &badRequest{msg: msg, err: err}
}
