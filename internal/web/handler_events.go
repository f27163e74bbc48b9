package web

import (
	"net/http"

	"github.com/vbonduro/explainui/internal/annotate"
)

type eventResponse struct {
	annotate.Outcome
	Session sessionView `json:"session"`
}

// handleEvent applies one pointer or keyboard event from the canvas.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev annotate.Event
	if err := decodeBody(r, &ev); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid event")
		return
	}
	if ev.Kind == "" {
		writeMessage(w, http.StatusBadRequest, "event type required")
		return
	}

	out, err := s.service.Editor().Dispatch(r.Context(), ev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Outcome: out, Session: s.sessionView()})
}
